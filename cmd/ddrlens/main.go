// Command ddrlens turns a FileMaker DDR XML schema export into sixteen
// normalized tables and reports what depends on an external file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/koustreak/ddrlens/internal/config"
	"github.com/koustreak/ddrlens/internal/errs"
	"github.com/koustreak/ddrlens/internal/logger"
)

var (
	version = "dev"
	commit  = "unknown"
)

// options are the command line flags; empty values leave the file and
// environment configuration untouched.
type options struct {
	configFile string
	source     string
	sourceKey  string
	format     string
	out        string
	dsn        string
	schema     string
	addr       string
	logLevel   string
	limit      int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args and executes one command, returning the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ddrlens", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	var showVersion bool
	fs.StringVar(&opts.configFile, "config", "", "Path to configuration file (YAML or JSON)")
	fs.StringVar(&opts.source, "source", "", "DDR XML export file (or object key with -source-key)")
	fs.StringVar(&opts.sourceKey, "source-key", "", "Object key of the export in the minio bucket")
	fs.StringVar(&opts.format, "format", "", "Export format: csv, postgres, mysql, sqlite")
	fs.StringVar(&opts.out, "out", "", "CSV output directory")
	fs.StringVar(&opts.dsn, "dsn", "", "Database DSN (or file for sqlite)")
	fs.StringVar(&opts.schema, "schema", "", "Postgres schema or table name prefix")
	fs.StringVar(&opts.addr, "addr", "", "HTTP listen address for serve")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.IntVar(&opts.limit, "limit", 20, "Rows printed by 'tables <name>' (0 for all)")
	fs.BoolVar(&showVersion, "version", false, "Show version information")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "ddrlens - FileMaker DDR schema catalog\n\n")
		fmt.Fprintf(stderr, "Usage: ddrlens [options] <command> [args]\n\n")
		fmt.Fprintf(stderr, "Commands:\n")
		fmt.Fprintf(stderr, "  describe            List the sixteen tables and what they hold\n")
		fmt.Fprintf(stderr, "  tables [name]       Row counts, or the rows of one table\n")
		fmt.Fprintf(stderr, "  report <file>       Impact report for an external file\n")
		fmt.Fprintf(stderr, "  export              Write every table (csv, postgres, mysql, sqlite)\n")
		fmt.Fprintf(stderr, "  serve               Serve the tables over HTTP\n")
		fmt.Fprintf(stderr, "  sources             List DDR exports in the minio bucket\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(stderr, "  DDRLENS_SOURCE_*     Source type, path, bucket, key\n")
		fmt.Fprintf(stderr, "  DDRLENS_MINIO_*      MinIO endpoint and credentials\n")
		fmt.Fprintf(stderr, "  DDRLENS_EXPORT_*     Export format, dir, dsn, schema\n")
		fmt.Fprintf(stderr, "  DDRLENS_LOG_LEVEL    Log level\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if showVersion {
		fmt.Fprintf(stdout, "ddrlens version %s (commit: %s)\n", version, commit)
		return 0
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "ddrlens: %v\n", err)
		return 1
	}

	logger.SetTimeFormat(cfg.Log.TimeFormat)
	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: stderr,
	})

	app := &app{cfg: cfg, log: log, stdout: stdout, limit: opts.limit}
	defer app.close()
	if err := app.dispatch(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		log.ErrorWith("command failed", err, map[string]interface{}{"command": fs.Arg(0)})
		fmt.Fprintf(stderr, "ddrlens: %v\n", err)
		return exitCode(err)
	}
	return 0
}

// loadConfig loads configuration from file, environment, and command line
// flags, in increasing priority.
func loadConfig(opts options) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if opts.configFile != "" {
		cfg, err = config.LoadFromFile(opts.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	if opts.source != "" {
		cfg.Source.Path = opts.source
	}
	if opts.sourceKey != "" {
		cfg.Source.Type = config.SourceMinIO
		cfg.Source.Key = opts.sourceKey
	}
	if opts.format != "" {
		cfg.Export.Format = config.ExportFormat(opts.format)
	}
	if opts.out != "" {
		cfg.Export.Dir = opts.out
	}
	if opts.dsn != "" {
		cfg.Export.DSN = opts.dsn
	}
	if opts.schema != "" {
		cfg.Export.Schema = opts.schema
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// exitCode maps a failed command to the process status: 2 for bad input
// (flags, config, arguments), 1 for everything else.
func exitCode(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrKindInvalidInput:
		return 2
	default:
		return 1
	}
}
