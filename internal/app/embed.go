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
	"dano.kr/youthscope/internal/embed"
	"dano.kr/youthscope/internal/logging"
)

func runEmbed(args []string) int {
	fs := flag.NewFlagSet("embed", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Minute, "Command timeout")
	targetName := fs.String("target", "all", "Table to embed: notices, policies or all")
	limit := fs.Int("limit", embed.DefaultBatchLimit, "Maximum pending rows per target")
	maxErrors := fs.Int("max-errors", embed.DefaultMaxErrors, "Abort the run once failures exceed this count")
	pauseEvery := fs.Int("pause-every", embed.DefaultPauseEvery, "Pause after this many successful embeddings")
	requestTimeout := fs.Duration("request-timeout", embed.DefaultRequestTimeout, "Per-request timeout for the embedding API")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *limit <= 0 {
		fmt.Fprintln(os.Stderr, "--limit must be > 0")
		return 2
	}
	if *maxErrors <= 0 {
		fmt.Fprintln(os.Stderr, "--max-errors must be > 0")
		return 2
	}
	if *pauseEvery <= 0 {
		fmt.Fprintln(os.Stderr, "--pause-every must be > 0")
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
	if strings.TrimSpace(cfg.EmbeddingAPIKey) == "" {
		fmt.Fprintln(os.Stderr, "EMBEDDING_API_KEY is required for the embed command")
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
		logger.Error().Err(err).Msg("embed command failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	targets, err := resolveTargets(pool, *targetName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	client := embed.NewClient(
		cfg.EmbeddingEndpoint,
		cfg.EmbeddingModel,
		cfg.EmbeddingAPIKey,
		cfg.EmbeddingDimensions,
		embed.WithRequestTimeout(*requestTimeout),
	)
	batcher := embed.NewBatcher(client, logger)

	opts := embed.Options{
		Limit:      *limit,
		MaxErrors:  *maxErrors,
		PauseEvery: *pauseEvery,
	}

	failed := false
	for _, target := range targets {
		result, err := batcher.Run(ctx, target, opts)
		if err != nil {
			logger.Error().Err(err).Str("target", target.Name()).Msg("embed failed")
			fmt.Fprintf(os.Stderr, "Embed %s failed: %v\n", target.Name(), err)
			failed = true
			continue
		}

		fmt.Printf(
			"embed target=%s attempted=%d embedded=%d skipped=%d failed=%d aborted=%t\n",
			target.Name(),
			result.Attempted,
			result.Embedded,
			result.Skipped,
			result.Failed,
			result.Aborted,
		)
		for _, msg := range result.Errors {
			fmt.Fprintf(os.Stderr, "embed %s: %s\n", target.Name(), msg)
		}
		if result.Aborted {
			failed = true
		}
	}

	if failed {
		return 1
	}
	return 0
}

func resolveTargets(pool *db.Pool, name string) ([]embed.Target, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "notices":
		return []embed.Target{embed.NoticeTarget{Pool: pool}}, nil
	case "policies":
		return []embed.Target{embed.PolicyTarget{Pool: pool}}, nil
	case "all", "":
		return []embed.Target{
			embed.NoticeTarget{Pool: pool},
			embed.PolicyTarget{Pool: pool},
		}, nil
	default:
		return nil, fmt.Errorf("unknown target %q: expected notices, policies or all", name)
	}
}
