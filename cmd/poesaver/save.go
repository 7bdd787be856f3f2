package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/poesaver"
	"github.com/fwojciec/poesaver/crawl"
	"github.com/fwojciec/poesaver/fs"
)

// Run executes the save command.
func (c *SaveCmd) Run(deps *Dependencies) error {
	if c.LocalFile != "" {
		if len(c.URLs) > 0 || c.Batch != "" {
			err := poesaver.Errorf(poesaver.EINVALID, "--local-file cannot be combined with URLs or --batch")
			fmt.Fprintf(deps.Stderr, "error: %s\n", errorReason(err))
			return err
		}
		return c.runLocal(deps)
	}
	return c.runURLs(deps)
}

func (c *SaveCmd) runLocal(deps *Dependencies) error {
	abs, err := filepath.Abs(c.LocalFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "Processing local HTML file: %s\n", c.LocalFile)

	saved := 0
	if err := c.saveLocal(deps, abs); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s: %s\n", c.LocalFile, errorReason(err))
	} else {
		saved = 1
	}

	fmt.Fprintf(deps.Stdout, "\nCompleted: %d/1\n", saved)
	if saved == 0 {
		return fmt.Errorf("failed to process %s", c.LocalFile)
	}
	return nil
}

func (c *SaveCmd) saveLocal(deps *Dependencies, abs string) error {
	data, err := os.ReadFile(abs)
	if os.IsNotExist(err) {
		return poesaver.Errorf(poesaver.ENOTFOUND, "local file not found: %s", c.LocalFile)
	} else if err != nil {
		return err
	}
	id := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	return c.process(deps, string(data), "file://"+abs, id, outputPath(c.Output))
}

func (c *SaveCmd) runURLs(deps *Dependencies) error {
	urls := append([]string(nil), c.URLs...)
	if c.Batch != "" {
		list, err := fs.ReadURLList(c.Batch, deps.Logger)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", errorReason(err))
			return err
		}
		if len(list) == 0 {
			err := poesaver.Errorf(poesaver.EINVALID, "no URLs found in %s", c.Batch)
			fmt.Fprintf(deps.Stderr, "error: %s\n", errorReason(err))
			return err
		}
		urls = append(urls, list...)
	}
	if len(urls) == 0 {
		err := poesaver.Errorf(poesaver.EINVALID, "no input: pass share URLs, --batch or --local-file")
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorReason(err))
		return err
	}

	for _, u := range urls {
		if !poesaver.IsShareURL(u) {
			fmt.Fprintf(deps.Stderr, "warning: skipping invalid URL: %s\n", u)
			continue
		}
		if !deps.Queue.Push(u) {
			fmt.Fprintf(deps.Stderr, "warning: skipping duplicate URL: %s\n", u)
		}
	}

	total := deps.Queue.Len()
	if total == 0 {
		err := poesaver.Errorf(poesaver.EINVALID, "no valid Poe share URLs found")
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorReason(err))
		return err
	}
	if c.Output != "" && total > 1 {
		err := poesaver.Errorf(poesaver.EINVALID, "--output requires a single URL, got %d", total)
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorReason(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Processing %d conversation(s)...\n", total)

	saved, n := 0, 0
	for {
		url, ok := deps.Queue.Pop()
		if !ok {
			break
		}
		if err := deps.Ctx.Err(); err != nil {
			fmt.Fprintln(deps.Stderr, "Interrupted.")
			fmt.Fprintf(deps.Stdout, "\nCompleted: %d/%d\n", saved, total)
			return err
		}
		n++
		fmt.Fprintf(deps.Stdout, "\n[%d/%d] Fetching: %s\n", n, total, url)

		if err := c.saveURL(deps, url); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s: %s\n", url, errorReason(err))
			continue
		}
		saved++
	}

	fmt.Fprintf(deps.Stdout, "\nCompleted: %d/%d\n", saved, total)
	if saved < total {
		return fmt.Errorf("%d of %d conversations failed", total-saved, total)
	}
	return nil
}

func (c *SaveCmd) saveURL(deps *Dependencies, url string) error {
	if err := deps.Limiter.Wait(deps.Ctx, crawl.Domain(url)); err != nil {
		return err
	}
	html, err := crawl.FetchWithRetryDelays(deps.Ctx, url, deps.Fetcher.Fetch, deps.Logger, deps.RetryDelays)
	if err != nil {
		return err
	}
	id, _ := poesaver.ShareID(url)
	return c.process(deps, html, url, id, outputPath(c.Output))
}

// process runs one page through parse, render and output.
func (c *SaveCmd) process(deps *Dependencies, html, source, id, path string) error {
	conv, err := deps.Parser.Parse(html, source, id)
	if err != nil {
		return err
	}
	content, err := deps.Renderer.Render(conv)
	if err != nil {
		return err
	}

	if deps.Previewer != nil {
		out, err := deps.Previewer.Preview(content)
		if err != nil {
			return err
		}
		if err := archive(deps, conv); err != nil {
			return err
		}
		fmt.Fprint(deps.Stdout, out)
		return nil
	}

	written, err := deps.Writer.WriteDocument(deps.Ctx, &poesaver.Document{
		Title:   conv.Title,
		Content: content,
		Path:    path,
	})
	if err != nil {
		return err
	}

	var pdfPath string
	if deps.Exporter != nil {
		pdfPath = strings.TrimSuffix(written, filepath.Ext(written)) + ".pdf"
		if err := deps.Exporter.Export(content, pdfPath); err != nil {
			discard(deps, written, pdfPath)
			return fmt.Errorf("export pdf: %w", err)
		}
	}

	if err := archive(deps, conv); err != nil {
		discard(deps, written, pdfPath)
		return err
	}

	fmt.Fprintf(deps.Stdout, "Saved: %s\n", written)
	report := fmt.Sprintf("  %d messages, %d words, %s",
		len(conv.Messages), conv.WordCount(), fs.FormatSize(int64(len(content))))
	if deps.Tokens != nil {
		tokens, err := deps.Tokens.CountTokens(deps.Ctx, content)
		if err != nil {
			deps.Logger.Warn("token count failed", "path", written, "err", err)
		} else {
			report += ", " + fs.FormatTokens(tokens)
		}
	}
	fmt.Fprintln(deps.Stdout, report)
	if pdfPath != "" {
		fmt.Fprintf(deps.Stdout, "Saved: %s\n", pdfPath)
	}
	return nil
}

// archive stores conv when archiving is enabled. An unchanged conversation
// is reported, not treated as a failure.
func archive(deps *Dependencies, conv *poesaver.Conversation) error {
	if deps.Conversations == nil {
		return nil
	}
	a, err := deps.Conversations.CreateConversation(deps.Ctx, conv)
	switch {
	case poesaver.ErrorCode(err) == poesaver.ECONFLICT:
		fmt.Fprintln(deps.Stdout, "Archive: unchanged since last save")
	case err != nil:
		return err
	default:
		fmt.Fprintf(deps.Stdout, "Archive: %s\n", a.ID)
	}
	return nil
}

// discard removes the files of a failed item.
func discard(deps *Dependencies, paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			deps.Logger.Warn("cannot remove output of failed item", "path", path, "err", err)
		}
	}
}

// errorReason returns the message shown for a failed operation. Errors
// that are not application errors carry their own text.
func errorReason(err error) string {
	var e *poesaver.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
