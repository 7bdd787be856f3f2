package main_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/poesaver"
	main "github.com/fwojciec/poesaver/cmd/poesaver"
	"github.com/fwojciec/poesaver/crawl"
	"github.com/fwojciec/poesaver/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	shareURL1 = "https://poe.com/s/abc123"
	shareURL2 = "https://poe.com/s/def456"
)

func testConversation(id string) *poesaver.Conversation {
	return &poesaver.Conversation{
		Title:          "Chat " + id,
		ConversationID: id,
		AssistantName:  "Claude",
		Messages: []*poesaver.Message{
			{Sender: poesaver.HumanSender, Role: poesaver.RoleHuman, Content: "hello there"},
			{Sender: "Claude", Role: poesaver.RoleAssistant, Content: "hi how can I help"},
		},
	}
}

// testDeps returns dependencies where every collaborator succeeds.
func testDeps(t *testing.T) (*main.Dependencies, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	deps := &main.Dependencies{
		Ctx:    context.Background(),
		Stdout: stdout,
		Stderr: stderr,
		Logger: slog.New(slog.DiscardHandler),
		Fetcher: &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				return "<html>" + url + "</html>", nil
			},
		},
		Limiter: &mock.DomainLimiter{
			WaitFn: func(_ context.Context, _ string) error { return nil },
		},
		Queue: crawl.NewFrontier(100, 0.01),
		Parser: &mock.Parser{
			ParseFn: func(_, _, id string) (*poesaver.Conversation, error) {
				return testConversation(id), nil
			},
		},
		Renderer: &mock.Renderer{
			RenderFn: func(conv *poesaver.Conversation) (string, error) {
				return "# " + conv.Title + "\n", nil
			},
		},
		Writer: &mock.DocumentWriter{
			WriteDocumentFn: func(_ context.Context, doc *poesaver.Document) (string, error) {
				if doc.Path != "" {
					return doc.Path, nil
				}
				return filepath.Join("out", doc.Title+".md"), nil
			},
		},
	}
	return deps, stdout, stderr
}

func TestSaveCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("saves each URL and reports a summary", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := testDeps(t)
		var written []*poesaver.Document
		deps.Writer = &mock.DocumentWriter{
			WriteDocumentFn: func(_ context.Context, doc *poesaver.Document) (string, error) {
				written = append(written, doc)
				return "out/" + doc.Title + ".md", nil
			},
		}

		cmd := &main.SaveCmd{URLs: []string{shareURL1, shareURL2}}
		err := cmd.Run(deps)

		require.NoError(t, err)
		require.Len(t, written, 2)
		assert.Equal(t, "Chat abc123", written[0].Title)
		assert.Equal(t, "# Chat abc123\n", written[0].Content)
		assert.Empty(t, written[0].Path)
		assert.Equal(t, "Chat def456", written[1].Title)

		out := stdout.String()
		assert.Contains(t, out, "[1/2] Fetching: "+shareURL1)
		assert.Contains(t, out, "Saved: out/Chat abc123.md")
		assert.Contains(t, out, "2 messages, 7 words, 14.0 B")
		assert.Contains(t, out, "Completed: 2/2")
	})

	t.Run("passes share ID and URL to the parser", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := testDeps(t)
		var gotHTML, gotSource, gotID string
		deps.Parser = &mock.Parser{
			ParseFn: func(html, source, id string) (*poesaver.Conversation, error) {
				gotHTML, gotSource, gotID = html, source, id
				return testConversation(id), nil
			},
		}

		err := (&main.SaveCmd{URLs: []string{shareURL1}}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "<html>"+shareURL1+"</html>", gotHTML)
		assert.Equal(t, shareURL1, gotSource)
		assert.Equal(t, "abc123", gotID)
	})

	t.Run("waits on the limiter for the share domain", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := testDeps(t)
		var domains []string
		deps.Limiter = &mock.DomainLimiter{
			WaitFn: func(_ context.Context, domain string) error {
				domains = append(domains, domain)
				return nil
			},
		}

		err := (&main.SaveCmd{URLs: []string{shareURL1, "https://www.poe.com/s/xyz"}}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, []string{"poe.com", "www.poe.com"}, domains)
	})

	t.Run("skips invalid and duplicate URLs", func(t *testing.T) {
		t.Parallel()

		deps, stdout, stderr := testDeps(t)
		fetched := 0
		deps.Fetcher = &mock.Fetcher{
			FetchFn: func(_ context.Context, _ string) (string, error) {
				fetched++
				return "<html></html>", nil
			},
		}

		cmd := &main.SaveCmd{URLs: []string{
			shareURL1,
			"https://example.com/s/abc",
			"https://POE.com/s/abc123",
		}}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Equal(t, 1, fetched)
		assert.Contains(t, stderr.String(), "skipping invalid URL: https://example.com/s/abc")
		assert.Contains(t, stderr.String(), "skipping duplicate URL: https://POE.com/s/abc123")
		assert.Contains(t, stdout.String(), "Completed: 1/1")
	})

	t.Run("continues after a failed item and returns an error", func(t *testing.T) {
		t.Parallel()

		deps, stdout, stderr := testDeps(t)
		deps.Fetcher = &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				if url == shareURL1 {
					return "", poesaver.Errorf(poesaver.EINVALID, "access denied")
				}
				return "<html></html>", nil
			},
		}

		err := (&main.SaveCmd{URLs: []string{shareURL1, shareURL2}}).Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "error: "+shareURL1+": access denied")
		assert.Contains(t, stdout.String(), "Saved: out/Chat def456.md")
		assert.Contains(t, stdout.String(), "Completed: 1/2")
	})

	t.Run("retries transport errors", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := testDeps(t)
		deps.RetryDelays = []time.Duration{0, 0}
		calls := 0
		deps.Fetcher = &mock.Fetcher{
			FetchFn: func(_ context.Context, _ string) (string, error) {
				calls++
				if calls < 3 {
					return "", errors.New("connection reset")
				}
				return "<html></html>", nil
			},
		}

		err := (&main.SaveCmd{URLs: []string{shareURL1}}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("marks parse failures as failed items", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := testDeps(t)
		deps.Parser = &mock.Parser{
			ParseFn: func(_, _, _ string) (*poesaver.Conversation, error) {
				return nil, errors.New("boom")
			},
		}

		err := (&main.SaveCmd{URLs: []string{shareURL1}}).Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "boom")
	})

	t.Run("stops before the next item when interrupted", func(t *testing.T) {
		t.Parallel()

		deps, stdout, stderr := testDeps(t)
		ctx, cancel := context.WithCancel(context.Background())
		deps.Ctx = ctx
		fetched := 0
		deps.Fetcher = &mock.Fetcher{
			FetchFn: func(_ context.Context, _ string) (string, error) {
				fetched++
				cancel()
				return "<html></html>", nil
			},
		}

		err := (&main.SaveCmd{URLs: []string{shareURL1, shareURL2}}).Run(deps)

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, fetched)
		assert.Contains(t, stderr.String(), "Interrupted.")
		assert.Contains(t, stdout.String(), "Completed: 1/2")
	})

	t.Run("writes to explicit output path with markdown extension", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := testDeps(t)
		var gotPath string
		deps.Writer = &mock.DocumentWriter{
			WriteDocumentFn: func(_ context.Context, doc *poesaver.Document) (string, error) {
				gotPath = doc.Path
				return doc.Path, nil
			},
		}

		err := (&main.SaveCmd{URLs: []string{shareURL1}, Output: "notes/chat"}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "notes/chat.md", gotPath)
		assert.Contains(t, stdout.String(), "Saved: notes/chat.md")
	})

	t.Run("rejects output path with several URLs", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := testDeps(t)

		err := (&main.SaveCmd{URLs: []string{shareURL1, shareURL2}, Output: "chat.md"}).Run(deps)

		assert.Equal(t, poesaver.EINVALID, poesaver.ErrorCode(err))
	})

	t.Run("returns error when no valid URLs remain", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := testDeps(t)

		err := (&main.SaveCmd{URLs: []string{"https://example.com"}}).Run(deps)

		assert.Equal(t, poesaver.EINVALID, poesaver.ErrorCode(err))
		assert.Contains(t, stderr.String(), "no valid Poe share URLs found")
	})

	t.Run("returns error without input", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := testDeps(t)

		err := (&main.SaveCmd{}).Run(deps)

		assert.Equal(t, poesaver.EINVALID, poesaver.ErrorCode(err))
	})

	t.Run("reads URLs from a batch file", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := testDeps(t)
		batch := filepath.Join(t.TempDir(), "urls.txt")
		require.NoError(t, os.WriteFile(batch, []byte("# saved chats\n"+shareURL1+"\n\n"+shareURL2+"\n"), 0644))

		err := (&main.SaveCmd{Batch: batch}).Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "Completed: 2/2")
	})

	t.Run("reports missing batch file", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := testDeps(t)

		err := (&main.SaveCmd{Batch: filepath.Join(t.TempDir(), "missing.txt")}).Run(deps)

		assert.Equal(t, poesaver.ENOTFOUND, poesaver.ErrorCode(err))
	})

	t.Run("parses a local HTML file", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := testDeps(t)
		path := filepath.Join(t.TempDir(), "page.html")
		require.NoError(t, os.WriteFile(path, []byte("<html>local</html>"), 0644))

		var gotHTML, gotSource, gotID string
		deps.Parser = &mock.Parser{
			ParseFn: func(html, source, id string) (*poesaver.Conversation, error) {
				gotHTML, gotSource, gotID = html, source, id
				return testConversation(id), nil
			},
		}
		deps.Fetcher = &mock.Fetcher{
			FetchFn: func(_ context.Context, _ string) (string, error) {
				t.Fatal("local file mode must not fetch")
				return "", nil
			},
		}

		err := (&main.SaveCmd{LocalFile: path}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "<html>local</html>", gotHTML)
		assert.Equal(t, "file://"+path, gotSource)
		assert.Equal(t, "page", gotID)
		assert.Contains(t, stdout.String(), "Completed: 1/1")
	})

	t.Run("reports missing local file", func(t *testing.T) {
		t.Parallel()

		deps, stdout, stderr := testDeps(t)

		err := (&main.SaveCmd{LocalFile: filepath.Join(t.TempDir(), "missing.html")}).Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "local file not found")
		assert.Contains(t, stdout.String(), "Completed: 0/1")
	})

	t.Run("rejects local file combined with URLs", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := testDeps(t)

		err := (&main.SaveCmd{LocalFile: "page.html", URLs: []string{shareURL1}}).Run(deps)

		assert.Equal(t, poesaver.EINVALID, poesaver.ErrorCode(err))
	})

	t.Run("previews instead of writing", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := testDeps(t)
		deps.Writer = &mock.DocumentWriter{
			WriteDocumentFn: func(_ context.Context, _ *poesaver.Document) (string, error) {
				t.Fatal("preview mode must not write files")
				return "", nil
			},
		}
		deps.Previewer = &mock.Previewer{
			PreviewFn: func(md string) (string, error) {
				return "STYLED " + md, nil
			},
		}

		err := (&main.SaveCmd{URLs: []string{shareURL1}}).Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "STYLED # Chat abc123")
	})

	t.Run("exports a PDF next to the markdown file", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := testDeps(t)
		var pdfPath, pdfContent string
		deps.Exporter = &mock.Exporter{
			ExportFn: func(md, path string) error {
				pdfContent, pdfPath = md, path
				return nil
			},
		}

		err := (&main.SaveCmd{URLs: []string{shareURL1}}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, filepath.Join("out", "Chat abc123.pdf"), pdfPath)
		assert.Equal(t, "# Chat abc123\n", pdfContent)
		assert.Contains(t, stdout.String(), "Saved: "+pdfPath)
	})

	t.Run("reports token count", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := testDeps(t)
		deps.Tokens = &mock.TokenCounter{
			CountTokensFn: func(_ context.Context, _ string) (int, error) {
				return 42, nil
			},
		}

		err := (&main.SaveCmd{URLs: []string{shareURL1}}).Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), ", ~42 tokens")
	})

	t.Run("archives conversations and tolerates unchanged ones", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := testDeps(t)
		deps.Conversations = &mock.ConversationService{
			CreateConversationFn: func(_ context.Context, conv *poesaver.Conversation) (*poesaver.ConversationArchive, error) {
				if conv.ConversationID == "def456" {
					return nil, poesaver.Errorf(poesaver.ECONFLICT, "conversation unchanged")
				}
				return &poesaver.ConversationArchive{ID: "arch-1", Conversation: conv}, nil
			},
		}

		err := (&main.SaveCmd{URLs: []string{shareURL1, shareURL2}}).Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "Archive: arch-1")
		assert.Contains(t, stdout.String(), "Archive: unchanged since last save")
		assert.Contains(t, stdout.String(), "Completed: 2/2")
	})
	t.Run("shows the reason of plain errors", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := testDeps(t)
		deps.Fetcher = &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				return "", fmt.Errorf("HTTP 404 for %s", url)
			},
		}

		err := (&main.SaveCmd{URLs: []string{shareURL1}}).Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "error: "+shareURL1+": HTTP 404 for "+shareURL1)
		assert.NotContains(t, stderr.String(), "Internal error.")
	})

	t.Run("does not archive when the write fails", func(t *testing.T) {
		t.Parallel()

		deps, stdout, stderr := testDeps(t)
		archived := 0
		deps.Conversations = &mock.ConversationService{
			CreateConversationFn: func(_ context.Context, conv *poesaver.Conversation) (*poesaver.ConversationArchive, error) {
				archived++
				return &poesaver.ConversationArchive{ID: "arch-1", Conversation: conv}, nil
			},
		}
		deps.Writer = &mock.DocumentWriter{
			WriteDocumentFn: func(_ context.Context, _ *poesaver.Document) (string, error) {
				return "", errors.New("disk full")
			},
		}

		err := (&main.SaveCmd{URLs: []string{shareURL1}}).Run(deps)

		require.Error(t, err)
		assert.Equal(t, 0, archived)
		assert.NotContains(t, stdout.String(), "Archive:")
		assert.Contains(t, stderr.String(), "disk full")
		assert.Contains(t, stdout.String(), "Completed: 0/1")
	})

	t.Run("removes the markdown file when the PDF export fails", func(t *testing.T) {
		t.Parallel()

		deps, stdout, stderr := testDeps(t)
		mdPath := filepath.Join(t.TempDir(), "chat.md")
		deps.Writer = &mock.DocumentWriter{
			WriteDocumentFn: func(_ context.Context, doc *poesaver.Document) (string, error) {
				return mdPath, os.WriteFile(mdPath, []byte(doc.Content), 0644)
			},
		}
		deps.Exporter = &mock.Exporter{
			ExportFn: func(_, _ string) error {
				return errors.New("font missing")
			},
		}
		archived := 0
		deps.Conversations = &mock.ConversationService{
			CreateConversationFn: func(_ context.Context, conv *poesaver.Conversation) (*poesaver.ConversationArchive, error) {
				archived++
				return &poesaver.ConversationArchive{ID: "arch-1", Conversation: conv}, nil
			},
		}

		err := (&main.SaveCmd{URLs: []string{shareURL1}}).Run(deps)

		require.Error(t, err)
		assert.NoFileExists(t, mdPath)
		assert.Equal(t, 0, archived)
		assert.NotContains(t, stdout.String(), "Saved:")
		assert.Contains(t, stderr.String(), "export pdf: font missing")
		assert.Contains(t, stdout.String(), "Completed: 0/1")
	})

	t.Run("removes written files when archiving fails", func(t *testing.T) {
		t.Parallel()

		deps, stdout, stderr := testDeps(t)
		mdPath := filepath.Join(t.TempDir(), "chat.md")
		deps.Writer = &mock.DocumentWriter{
			WriteDocumentFn: func(_ context.Context, doc *poesaver.Document) (string, error) {
				return mdPath, os.WriteFile(mdPath, []byte(doc.Content), 0644)
			},
		}
		deps.Conversations = &mock.ConversationService{
			CreateConversationFn: func(_ context.Context, _ *poesaver.Conversation) (*poesaver.ConversationArchive, error) {
				return nil, errors.New("database locked")
			},
		}

		err := (&main.SaveCmd{URLs: []string{shareURL1}}).Run(deps)

		require.Error(t, err)
		assert.NoFileExists(t, mdPath)
		assert.NotContains(t, stdout.String(), "Saved:")
		assert.Contains(t, stderr.String(), "database locked")
	})

	t.Run("archives after a successful write", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := testDeps(t)
		var order []string
		deps.Writer = &mock.DocumentWriter{
			WriteDocumentFn: func(_ context.Context, doc *poesaver.Document) (string, error) {
				order = append(order, "write")
				return "out/" + doc.Title + ".md", nil
			},
		}
		deps.Conversations = &mock.ConversationService{
			CreateConversationFn: func(_ context.Context, conv *poesaver.Conversation) (*poesaver.ConversationArchive, error) {
				order = append(order, "archive")
				return &poesaver.ConversationArchive{ID: "arch-1", Conversation: conv}, nil
			},
		}

		err := (&main.SaveCmd{URLs: []string{shareURL1}}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, []string{"write", "archive"}, order)
	})
	t.Run("does not archive when the preview fails", func(t *testing.T) {
		t.Parallel()

		deps, stdout, stderr := testDeps(t)
		deps.Previewer = &mock.Previewer{
			PreviewFn: func(_ string) (string, error) {
				return "", errors.New("bad style")
			},
		}
		archived := 0
		deps.Conversations = &mock.ConversationService{
			CreateConversationFn: func(_ context.Context, conv *poesaver.Conversation) (*poesaver.ConversationArchive, error) {
				archived++
				return &poesaver.ConversationArchive{ID: "arch-1", Conversation: conv}, nil
			},
		}

		err := (&main.SaveCmd{URLs: []string{shareURL1}}).Run(deps)

		require.Error(t, err)
		assert.Equal(t, 0, archived)
		assert.NotContains(t, stdout.String(), "Archive:")
		assert.Contains(t, stderr.String(), "bad style")
	})
}
