package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/poesaver"
	"github.com/fwojciec/poesaver/crawl"
	"github.com/fwojciec/poesaver/fs"
	"github.com/fwojciec/poesaver/gemini"
	"github.com/fwojciec/poesaver/glamour"
	"github.com/fwojciec/poesaver/gofpdf"
	"github.com/fwojciec/poesaver/goquery"
	poehttp "github.com/fwojciec/poesaver/http"
	"github.com/fwojciec/poesaver/markdown"
	poeslog "github.com/fwojciec/poesaver/slog"
	"github.com/fwojciec/poesaver/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Default database path, overridden by --db or POESAVER_DB.
	DBPath string

	// SQLite database, opened only by commands that use the archive.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("poesaver"),
		kong.Description("Save Poe shared conversations as markdown files."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Configuration(YAMLLoader, ConfigPaths()...),
		kong.Vars{"default_db": m.DBPath},
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no input specified. Run 'poesaver --help' to see usage")
	}

	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Logger = newLogger(stderr, cli.Verbose)

	command := ""
	if node := kongCtx.Selected(); node != nil {
		command = node.Name
	}

	if command == "history" || (command == "save" && cli.Save.Archive) {
		if err := m.openDB(cli.DB, stderr); err != nil {
			return err
		}
		defer m.Close()
		deps.Conversations = poeslog.NewLoggingConversationService(
			sqlite.NewConversationService(m.DB), deps.Logger)
	}

	if command == "save" {
		closeFn, err := wireSave(deps, &cli.Save)
		if err != nil {
			return err
		}
		defer closeFn()
	}

	return kongCtx.Run(deps)
}

func (m *Main) openDB(path string, stderr io.Writer) error {
	if path == "" {
		path = m.DBPath
	}
	if dir := filepath.Dir(path); dir != "." {
		_ = os.MkdirAll(dir, 0755)
	}
	m.DB = sqlite.NewDB(path)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set POESAVER_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", path, err)
	}
	return nil
}

// wireSave builds the extraction pipeline for the save command from its
// flags. The returned func releases the fetcher.
func wireSave(deps *Dependencies, c *SaveCmd) (func(), error) {
	timeout := time.Duration(c.Timeout) * time.Second
	if timeout <= 0 {
		timeout = poehttp.DefaultFetchTimeout
	}
	delay := time.Duration(c.Delay * float64(time.Second))

	fetcher := poeslog.NewLoggingFetcher(poehttp.NewFetcher(poehttp.WithTimeout(timeout)), deps.Logger)
	deps.Fetcher = fetcher
	deps.RetryDelays = crawl.LinearRetryDelays(c.Retries, delay)
	deps.Limiter = crawl.NewDelayLimiter(delay)
	deps.Queue = crawl.NewFrontier(queueCapacity, queueFalsePositiveRate)

	deps.Parser = poeslog.NewLoggingParser(goquery.NewParser(goquery.WithLogger(deps.Logger)), deps.Logger)
	deps.Renderer = poeslog.NewLoggingRenderer(markdown.NewRenderer(poesaver.RenderOptions{
		IncludeMetadata: !c.NoMetadata,
		IncludeFooter:   !c.NoFooter,
	}), deps.Logger)
	deps.Writer = fs.NewWriter(c.Directory)

	if c.Preview {
		deps.Previewer = glamour.NewPreviewer(glamour.WithTerminal(int(os.Stdout.Fd())))
	}
	if c.PDF {
		deps.Exporter = gofpdf.NewExporter()
	}
	if c.Tokens {
		counter, err := gemini.NewTokenCounter(gemini.DefaultModel)
		if err != nil {
			_ = fetcher.Close()
			return nil, fmt.Errorf("failed to create token counter: %w", err)
		}
		deps.Tokens = counter
	}

	return func() { _ = fetcher.Close() }, nil
}

const (
	queueCapacity          = 10000
	queueFalsePositiveRate = 0.001
)

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "poesaver.db"
	}
	return filepath.Join(home, ".poesaver", "poesaver.db")
}

// outputPath returns the explicit output path with the markdown extension
// added when missing.
func outputPath(path string) string {
	if path == "" || strings.HasSuffix(path, fs.Extension) {
		return path
	}
	return path + fs.Extension
}
