package app

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
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"horse.fit/smartlingzd/internal/cli"
	"horse.fit/smartlingzd/internal/config"
	"horse.fit/smartlingzd/internal/locale"
	"horse.fit/smartlingzd/internal/logging"
	"horse.fit/smartlingzd/internal/smartling"
	"horse.fit/smartlingzd/internal/transfer"
	"horse.fit/smartlingzd/internal/zendesk"
)

const defaultRunTimeout = 30 * time.Minute

type direction string

const (
	dirPush   direction = "translate"
	dirPull   direction = "retrievetranslations"
	dirStatus direction = "status"
	dirImport direction = "importtranslations"
)

type options struct {
	translate bool
	retrieve  bool
	status    bool
	importTr  bool

	locales       string
	articles      string
	categories    string
	sections      string
	retrievalType string
	logLevel      string

	configPath   string
	transferPath string
	timeout      time.Duration
	dryRun       bool
	verifyLang   bool

	envLoader *cli.EnvLoader
}

// Run executes the CLI and returns a process exit code.
func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, code, ok := parseFlags(args, stderr)
	if !ok {
		return code
	}

	dir, req, err := validate(opts)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n\n", err)
		printUsage(stderr)
		return 2
	}

	if _, err := opts.envLoader.Load(); err != nil {
		fmt.Fprintf(stderr, "Warning: %v\n", err)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	mapping, err := locale.NewMapping(cfg.Locales)
	if err != nil {
		fmt.Fprintf(stderr, "%v: %v\n", config.ErrConfig, err)
		return 1
	}
	if dir != dirPush {
		req.Locales, err = mapping.ParseList(opts.locales)
		if err != nil {
			fmt.Fprintf(stderr, "--locales: %v\n", err)
			return 2
		}
	}
	filter, err := config.LoadTransferFilter(opts.transferPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	logFile, err := logging.OpenFile(cfg.General.LogFile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer logFile.Close()

	logger, err := logging.New(logFile, cfg.General.Environment, opts.logLevel)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	logger = logger.With().Str("run_id", uuid.NewString()).Logger()
	logger.Info().
		Str("direction", string(dir)).
		Str("articles", req.Articles.String()).
		Str("sections", req.Sections.String()).
		Str("categories", req.Categories.String()).
		Strs("locales", req.Locales).
		Bool("dry_run", opts.dryRun).
		Msg("run started")
	if !filter.IsEmpty() {
		logger.Info().
			Ints64("include_articles", filter.IncludeIDs()).
			Ints64("exclude_articles", filter.ExcludeIDs()).
			Str("file", opts.transferPath).
			Msg("transfer filter loaded")
	}

	svc, err := newService(cfg, mapping, filter, opts, logger, stdout)
	if err != nil {
		logging.Critical(&logger).Err(err).Msg("setup failed")
		fmt.Fprintln(stderr, err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !opts.dryRun {
		var prepErr error
		switch dir {
		case dirPush:
			prepErr = svc.PrepareSourceDir()
		case dirPull:
			prepErr = svc.PrepareTranslationDir()
		}
		if prepErr != nil {
			logging.Critical(&logger).Err(prepErr).Msg("prepare directory failed")
			fmt.Fprintln(stderr, prepErr)
			return 1
		}
	}

	var stats transfer.RunStats
	switch dir {
	case dirPush:
		stats, err = svc.Push(ctx, req)
	case dirPull:
		stats, err = svc.Pull(ctx, req)
	case dirStatus:
		var rows []transfer.StatusRow
		rows, stats, err = svc.Status(ctx, req)
		if tableErr := writeStatusTable(stdout, rows); tableErr != nil && err == nil {
			err = tableErr
		}
	case dirImport:
		stats, err = svc.Import(ctx, req)
	}

	return finish(stdout, stderr, &logger, dir, stats, err, opts.dryRun)
}

func finish(stdout, stderr io.Writer, logger *zerolog.Logger, dir direction, stats transfer.RunStats, err error, dryRun bool) int {
	fmt.Fprintf(
		stdout,
		"%s total=%d transferred=%d skipped=%d failed=%d dry_run=%t\n",
		dir,
		stats.Total,
		stats.Transferred,
		stats.Skipped,
		stats.Failed,
		dryRun,
	)

	if err != nil {
		logging.Critical(logger).Err(err).Msg("run aborted")
		if errors.Is(err, transfer.ErrUnauthorized) {
			fmt.Fprintf(stderr, "Authorization failed, check the configured credentials: %v\n", err)
		} else {
			fmt.Fprintf(stderr, "%s failed: %v\n", dir, err)
		}
		return 1
	}

	event := logger.Info()
	if stats.Failed > 0 {
		event = logger.Error()
	}
	event.
		Int("total", stats.Total).
		Int("transferred", stats.Transferred).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("run finished")
	if stats.Failed > 0 {
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, int, bool) {
	opts := options{}
	fs := flag.NewFlagSet("smartlingzd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr) }

	boolFlag := func(target *bool, short, long, usage string) {
		fs.BoolVar(target, short, false, usage)
		fs.BoolVar(target, long, false, usage)
	}
	stringFlag := func(target *string, short, long, value, usage string) {
		fs.StringVar(target, short, value, usage)
		fs.StringVar(target, long, value, usage)
	}

	boolFlag(&opts.translate, "t", "translate", "Transfer source items from Zendesk to Smartling")
	boolFlag(&opts.retrieve, "r", "retrievetranslations", "Transfer translations from Smartling to Zendesk")
	boolFlag(&opts.status, "u", "status", "Show translation progress in Smartling")
	boolFlag(&opts.importTr, "i", "importtranslations", "Import downloaded translation files into Smartling")
	stringFlag(&opts.locales, "l", "locales", "", "Comma-separated Zendesk locales, or \"all\"")
	stringFlag(&opts.articles, "a", "articles", "", "Comma-separated article IDs, or \"all\"")
	stringFlag(&opts.categories, "c", "categories", "", "Comma-separated category IDs, or \"all\"")
	stringFlag(&opts.sections, "s", "sections", "", "Comma-separated section IDs, or \"all\"")
	stringFlag(&opts.retrievalType, "y", "retrievaltype", smartling.RetrievalPublished, "Smartling retrieval type: "+strings.Join(smartling.RetrievalTypes, ", "))
	stringFlag(&opts.logLevel, "g", "loglevel", "info", "Log level: "+strings.Join(logging.Levels, ", "))

	fs.StringVar(&opts.configPath, "config", config.DefaultPath, "Path to the configuration file")
	fs.StringVar(&opts.transferPath, "transfer-config", config.DefaultTransferPath, "Path to the article include/exclude file")
	fs.DurationVar(&opts.timeout, "timeout", defaultRunTimeout, "Overall run timeout")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Report what would be transferred without writing anywhere")
	fs.BoolVar(&opts.verifyLang, "verify-language", false, "Skip translations that are not in the target language")
	opts.envLoader = cli.AddEnvFlag(fs, ".env", "Path to the .env file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, 0, false
		}
		return opts, 2, false
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %s\n\n", strings.Join(fs.Args(), " "))
		printUsage(stderr)
		return opts, 2, false
	}
	return opts, 0, true
}

// validate checks the flag combination before any configuration or network access.
func validate(opts options) (direction, transfer.Request, error) {
	req := transfer.Request{}

	var dirs []direction
	if opts.translate {
		dirs = append(dirs, dirPush)
	}
	if opts.retrieve {
		dirs = append(dirs, dirPull)
	}
	if opts.status {
		dirs = append(dirs, dirStatus)
	}
	if opts.importTr {
		dirs = append(dirs, dirImport)
	}
	if len(dirs) != 1 {
		return "", req, fmt.Errorf("exactly one of --translate, --retrievetranslations, --status or --importtranslations is required")
	}
	dir := dirs[0]

	hasLocales := strings.TrimSpace(opts.locales) != ""
	if dir == dirPush && hasLocales {
		return "", req, fmt.Errorf("--locales is only valid when retrieving, checking or importing translations")
	}
	if dir != dirPush && !hasLocales {
		return "", req, fmt.Errorf("--locales is required with --%s", dir)
	}

	retrievalType := strings.ToLower(strings.TrimSpace(opts.retrievalType))
	if !smartling.IsRetrievalType(retrievalType) {
		return "", req, fmt.Errorf("invalid retrieval type %q (valid: %s)", opts.retrievalType, strings.Join(smartling.RetrievalTypes, ", "))
	}
	req.RetrievalType = retrievalType

	if _, err := logging.ParseLevel(opts.logLevel); err != nil {
		return "", req, err
	}

	var err error
	if req.Articles, err = transfer.ParseSelection(opts.articles); err != nil {
		return "", req, fmt.Errorf("--articles: %v", err)
	}
	if req.Sections, err = transfer.ParseSelection(opts.sections); err != nil {
		return "", req, fmt.Errorf("--sections: %v", err)
	}
	if req.Categories, err = transfer.ParseSelection(opts.categories); err != nil {
		return "", req, fmt.Errorf("--categories: %v", err)
	}
	if req.Empty() {
		return "", req, fmt.Errorf("at least one of --articles, --sections or --categories is required")
	}
	if dir == dirStatus || dir == dirImport {
		for _, itemType := range zendesk.ItemTypes {
			if req.Selection(itemType).All {
				return "", req, fmt.Errorf("--%s all is not supported with --%s, list ids explicitly", itemType.Plural(), dir)
			}
		}
	}

	if opts.timeout <= 0 {
		return "", req, fmt.Errorf("--timeout must be > 0")
	}
	return dir, req, nil
}

func newService(cfg *config.Config, mapping *locale.Mapping, filter config.TransferFilter, opts options, logger zerolog.Logger, stdout io.Writer) (*transfer.Service, error) {
	baseURL := cfg.Smartling.BaseURL
	if baseURL == "" && cfg.Smartling.Sandbox {
		baseURL = smartling.SandboxBaseURL
	}

	slTransport, err := smartling.NewTransport(smartling.TransportOptions{
		BaseURL:   baseURL,
		APIKey:    cfg.Smartling.APIKey,
		ProjectID: cfg.Smartling.ProjectID,
		ProxyURL:  cfg.Proxy.URL(),
		Timeout:   cfg.General.HTTPTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("smartling client: %w", err)
	}

	zd, err := zendesk.NewClient(zendesk.Options{
		URL:       cfg.Zendesk.URL,
		User:      cfg.Zendesk.User,
		AuthToken: cfg.Zendesk.AuthToken,
		ProxyURL:  cfg.Proxy.URL(),
		Timeout:   cfg.General.HTTPTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("zendesk client: %w", err)
	}

	return transfer.NewService(zd, smartling.NewClient(slTransport), transfer.Options{
		Locales:        mapping,
		Filter:         filter,
		SourceDir:      cfg.General.SourceDir,
		TranslationDir: cfg.General.TranslationDir,
		Approve:        cfg.Smartling.ApproveForTranslation,
		DryRun:         opts.dryRun,
		VerifyLanguage: opts.verifyLang,
		Logger:         logger,
		Out:            stdout,
	})
}
