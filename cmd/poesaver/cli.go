package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/poesaver"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Fetcher     poesaver.Fetcher
	RetryDelays []time.Duration
	Limiter     poesaver.DomainLimiter
	Queue       poesaver.URLQueue

	Parser   poesaver.Parser
	Renderer poesaver.Renderer
	Writer   poesaver.DocumentWriter

	Conversations poesaver.ConversationService
	Tokens        poesaver.TokenCounter
	Previewer     poesaver.Previewer
	Exporter      poesaver.Exporter
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool            `short:"v" help:"Enable debug logging"`
	Config  kong.ConfigFlag `help:"Load flag defaults from a YAML file"`
	DB      string          `name:"db" env:"POESAVER_DB" default:"${default_db}" help:"Archive database path"`

	Save     SaveCmd     `cmd:"" default:"withargs" help:"Save shared conversations as markdown (default)"`
	Validate ValidateCmd `cmd:"" help:"Check share URLs without downloading them"`
	History  HistoryCmd  `cmd:"" help:"List archived conversations"`
}

// SaveCmd is the "save" subcommand.
type SaveCmd struct {
	URLs       []string `arg:"" optional:"" name:"url" help:"Poe share URLs (https://poe.com/s/...)"`
	Output     string   `short:"o" help:"Output file path (single input only)"`
	Directory  string   `short:"d" default:"./conversations" help:"Output directory for saved conversations"`
	Batch      string   `short:"b" placeholder:"FILE" help:"Read URLs from a file, one per line"`
	LocalFile  string   `name:"local-file" short:"l" placeholder:"FILE" help:"Parse a saved HTML file instead of downloading"`
	NoMetadata bool     `name:"no-metadata" help:"Exclude metadata from output"`
	NoFooter   bool     `name:"no-footer" help:"Exclude footer from output"`
	Timeout    int      `default:"30" help:"Request timeout in seconds"`
	Retries    int      `default:"3" help:"Maximum fetch attempts per URL"`
	Delay      float64  `default:"1.0" help:"Delay between requests in seconds"`
	Preview    bool     `short:"p" help:"Render to the terminal instead of writing files"`
	PDF        bool     `name:"pdf" help:"Also write a PDF next to each markdown file"`
	Tokens     bool     `help:"Report the token count of each document"`
	Archive    bool     `short:"a" help:"Store extracted conversations in the archive database"`
}

// ValidateCmd is the "validate" subcommand.
type ValidateCmd struct {
	URLs []string `arg:"" name:"url" help:"URLs to check"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	Limit int `short:"n" default:"20" help:"Maximum number of entries to show (0 for all)"`
}
