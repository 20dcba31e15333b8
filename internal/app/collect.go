package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"dano.kr/youthscope/internal/cli"
	"dano.kr/youthscope/internal/config"
	"dano.kr/youthscope/internal/db"
	"dano.kr/youthscope/internal/ingest"
	"dano.kr/youthscope/internal/logging"
	"dano.kr/youthscope/internal/source"
)

func runCollect(args []string) int {
	fs := flag.NewFlagSet("collect", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Minute, "Command timeout")
	sourceName := fs.String("source", "all", "Feed to crawl: youthcenter, lh or all")
	maxItems := fs.Int("max-items", 0, "Cap on fetched records per source, 0 for no cap")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *maxItems < 0 {
		fmt.Fprintln(os.Stderr, "--max-items must be >= 0")
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	sources, err := resolveSources(cfg, *sourceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("collect command failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	svc := ingest.NewService(pool, logger)
	failed := false
	for _, src := range sources {
		result, err := svc.CollectSource(ctx, src, *maxItems)
		if err != nil {
			logger.Error().Err(err).Str("source", src.Name()).Msg("collect failed")
			fmt.Fprintf(os.Stderr, "Collect %s failed: %v\n", src.Name(), err)
			failed = true
			continue
		}

		fmt.Printf(
			"collect source=%s fetched=%d inserted=%d updated=%d duplicates=%d failed=%d\n",
			src.Name(),
			result.Fetched,
			result.Inserted,
			result.Updated,
			result.Duplicates,
			result.Failed,
		)
		for _, msg := range result.Errors {
			fmt.Fprintf(os.Stderr, "collect %s: %s\n", src.Name(), msg)
		}
	}

	if failed {
		return 1
	}
	return 0
}

// resolveSources maps the --source flag to constructed upstream clients.
func resolveSources(cfg *config.Config, name string) ([]source.Source, error) {
	youthcenter := func() (source.Source, error) {
		if strings.TrimSpace(cfg.YouthPolicyAPIKey) == "" {
			return nil, fmt.Errorf("YOUTH_POLICY_API_KEY is required for the youthcenter source")
		}
		return source.NewYouthcenter(cfg.YouthPolicyAPIKey), nil
	}
	lh := func() (source.Source, error) {
		if strings.TrimSpace(cfg.LHAPIKey) == "" {
			return nil, fmt.Errorf("LH_API_KEY is required for the lh source")
		}
		return source.NewLHNotices(cfg.LHAPIKey), nil
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case source.YouthcenterSourceName:
		src, err := youthcenter()
		if err != nil {
			return nil, err
		}
		return []source.Source{src}, nil
	case source.LHSourceName:
		src, err := lh()
		if err != nil {
			return nil, err
		}
		return []source.Source{src}, nil
	case "all", "":
		first, err := youthcenter()
		if err != nil {
			return nil, err
		}
		second, err := lh()
		if err != nil {
			return nil, err
		}
		return []source.Source{first, second}, nil
	default:
		return nil, fmt.Errorf("unknown source %q: expected youthcenter, lh or all", name)
	}
}
