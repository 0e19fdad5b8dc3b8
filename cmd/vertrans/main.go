// Command vertrans runs the versioned translation service: the HTTP API,
// the update hook and the background translation workers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ZaguanLabs/vertrans"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = vertrans.Version
	commit    = vertrans.GitCommit
	buildDate = vertrans.BuildDate
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// envConfig is read from VERTRANS_* variables. Fields with an explicit
// envconfig tag also fall back to the unprefixed name.
type envConfig struct {
	LogLevel     string `split_words:"true" default:"info"`
	Addr         string `default:":8000"`
	DSN          string
	RedisURL     string `split_words:"true"`
	DeepLAPIKey  string `envconfig:"DEEPL_API_KEY"`
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	FrappeURL    string `split_words:"true"`
	FrappeKey    string `split_words:"true"`
	FrappeSecret string `split_words:"true"`
	SourceLang   string `split_words:"true"`
	TargetLangs  string `split_words:"true"`
}

// options collects the parsed command line.
type options struct {
	addr         string
	store        string
	db           string
	dsn          string
	redisURL     string
	redisTTL     int
	queue        string
	workers      int
	workerOnly   bool
	backend      string
	apiKey       string
	openAIKey    string
	openAIModel  string
	rpm          int
	cpm          int
	frappeURL    string
	frappeKey    string
	frappeSecret string
	source       string
	targets      string
	logLevel     string
}

func run(args []string, stdout, stderr io.Writer) error {
	var env envConfig
	if err := envconfig.Process("VERTRANS", &env); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}

	fs := flag.NewFlagSet("vertrans", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.addr, "addr", env.Addr, "HTTP listen address")
	fs.StringVar(&opts.store, "store", "memory", "Translation store: memory, redis or sql")
	fs.StringVar(&opts.db, "db", "sqlite", "SQL dialect for -dsn: sqlite or postgres")
	fs.StringVar(&opts.dsn, "dsn", env.DSN, "SQL connection string for the sql store and settings")
	fs.StringVar(&opts.redisURL, "redis-url", env.RedisURL, "Redis URL for the redis store and queue")
	fs.IntVar(&opts.redisTTL, "redis-ttl", 0, "Expire stored translations after this many seconds (0 = never)")
	fs.StringVar(&opts.queue, "queue", "inline", "Job queue: inline or redis")
	fs.IntVar(&opts.workers, "workers", 2, "Concurrent translation jobs per worker process")
	fs.BoolVar(&opts.workerOnly, "worker", false, "Only run the queue worker, without the HTTP API")
	fs.StringVar(&opts.backend, "provider", "deepl", "Translation provider: deepl or openai")
	fs.StringVar(&opts.apiKey, "api-key", env.DeepLAPIKey, "DeepL API key used to seed the settings")
	fs.StringVar(&opts.openAIKey, "openai-key", env.OpenAIAPIKey, "OpenAI API key")
	fs.StringVar(&opts.openAIModel, "openai-model", "gpt-4o-mini", "OpenAI model")
	fs.IntVar(&opts.rpm, "rpm", 60, "Provider requests per minute")
	fs.IntVar(&opts.cpm, "cpm", 0, "Provider characters per minute (0 = unlimited)")
	fs.StringVar(&opts.frappeURL, "frappe-url", env.FrappeURL, "Base URL of the document store")
	fs.StringVar(&opts.frappeKey, "frappe-key", env.FrappeKey, "Document store API key")
	fs.StringVar(&opts.frappeSecret, "frappe-secret", env.FrappeSecret, "Document store API secret")
	fs.StringVar(&opts.source, "source", env.SourceLang, "Default source language used to seed the settings")
	fs.StringVar(&opts.targets, "targets", env.TargetLangs, "Comma separated target languages used to seed the settings")
	fs.StringVar(&opts.logLevel, "log-level", env.LogLevel, "Log level: debug, info, warn or error")
	fingerprint := fs.Bool("fingerprint", false, "Print the version id of RECORD_TYPE RECORD_ID MODIFIED and exit")
	exportPath := fs.String("export", "", "Write all stored translations to this JSON file and exit")
	importPath := fs.String("import", "", "Load translations from this JSON file and exit")
	showVersion := fs.Bool("version", false, "Show version")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", vertrans.Name, version)
		if commit != "unknown" && commit != "" {
			fmt.Fprintf(stdout, "  commit:  %s\n", commit)
		}
		if buildDate != "unknown" && buildDate != "" {
			fmt.Fprintf(stdout, "  built:   %s\n", buildDate)
		}
		return nil
	}

	if *fingerprint {
		return runFingerprint(fs.Args(), stdout)
	}

	logger, err := newLogger(opts.logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	switch {
	case *exportPath != "":
		return runExport(ctx, app, *exportPath, stdout)
	case *importPath != "":
		return runImport(ctx, app, *importPath, stdout)
	}

	return app.Serve(ctx)
}

func runFingerprint(args []string, stdout io.Writer) error {
	if len(args) != 3 {
		return errors.New("-fingerprint needs RECORD_TYPE RECORD_ID MODIFIED")
	}
	id, err := vertrans.VersionID(args[0], args[1], args[2])
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, id)
	return nil
}

func newLogger(level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
