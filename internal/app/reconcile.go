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

func runReconcile(args []string) int {
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Minute, "Command timeout")
	job := fs.String("job", "all", "Job to run: youth, lh-institutions or all")
	maxItems := fs.Int("max-items", ingest.DefaultReconcileBatchSize, "Cap on the upstream snapshot used for matching")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *maxItems <= 0 {
		fmt.Fprintln(os.Stderr, "--max-items must be > 0")
		return 2
	}

	jobName := strings.ToLower(strings.TrimSpace(*job))
	runYouth := jobName == "youth" || jobName == "all" || jobName == ""
	runInstitutions := jobName == "lh-institutions" || jobName == "all" || jobName == ""
	if !runYouth && !runInstitutions {
		fmt.Fprintf(os.Stderr, "unknown job %q: expected youth, lh-institutions or all\n", *job)
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
	if runYouth && strings.TrimSpace(cfg.YouthPolicyAPIKey) == "" {
		fmt.Fprintln(os.Stderr, "YOUTH_POLICY_API_KEY is required for the youth reconcile job")
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
		logger.Error().Err(err).Msg("reconcile command failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	svc := ingest.NewService(pool, logger)

	if runYouth {
		src := source.NewYouthcenter(cfg.YouthPolicyAPIKey)
		result, err := svc.ReconcileYouthPolicies(ctx, src, *maxItems)
		if err != nil {
			logger.Error().Err(err).Msg("youth reconcile failed")
			fmt.Fprintf(os.Stderr, "Reconcile youth failed: %v\n", err)
			return 1
		}

		fmt.Printf(
			"reconcile job=youth scanned=%d updated=%d skipped=%d\n",
			result.Scanned,
			result.Updated,
			result.Skipped,
		)
		for _, msg := range result.Errors {
			fmt.Fprintf(os.Stderr, "reconcile youth: %s\n", msg)
		}
	}

	if runInstitutions {
		result, err := svc.ReconcileLHInstitutions(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("lh institution reconcile failed")
			fmt.Fprintf(os.Stderr, "Reconcile lh-institutions failed: %v\n", err)
			return 1
		}

		fmt.Printf(
			"reconcile job=lh-institutions updated=%d skipped=%d\n",
			result.Updated,
			result.Skipped,
		)
	}

	return 0
}
