package embed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dano.kr/youthscope/internal/db"
)

const (
	// DefaultBatchLimit bounds how many pending rows one run picks up.
	DefaultBatchLimit = 200
	// DefaultMaxErrors aborts the run once more failures than this accumulate.
	DefaultMaxErrors = 10
	// DefaultPauseEvery inserts a pause after this many successful embeddings.
	DefaultPauseEvery = 10
	// DefaultPauseInterval is the length of the quota pause.
	DefaultPauseInterval = time.Second

	maxResultErrors = 5
)

// Embedder is the provider surface the batcher drives. *Client implements it.
type Embedder interface {
	Embed(ctx context.Context, input string) ([]float64, error)
}

// Target is one embeddable table. Implementations select rows still missing a
// vector and persist computed vectors one row at a time.
type Target interface {
	Name() string
	SelectPending(ctx context.Context, limit int) ([]db.EmbeddingSeed, error)
	SaveVector(ctx context.Context, id int64, vectorLiteral string) error
}

// NoticeTarget embeds rows of the notices table.
type NoticeTarget struct {
	Pool *db.Pool
}

func (t NoticeTarget) Name() string { return "notices" }

func (t NoticeTarget) SelectPending(ctx context.Context, limit int) ([]db.EmbeddingSeed, error) {
	return t.Pool.SelectNoticesMissingVector(ctx, limit)
}

func (t NoticeTarget) SaveVector(ctx context.Context, id int64, vectorLiteral string) error {
	return t.Pool.SaveNoticeVector(ctx, id, vectorLiteral)
}

// PolicyTarget embeds rows of the policies table.
type PolicyTarget struct {
	Pool *db.Pool
}

func (t PolicyTarget) Name() string { return "policies" }

func (t PolicyTarget) SelectPending(ctx context.Context, limit int) ([]db.EmbeddingSeed, error) {
	return t.Pool.SelectPoliciesMissingVector(ctx, limit)
}

func (t PolicyTarget) SaveVector(ctx context.Context, id int64, vectorLiteral string) error {
	return t.Pool.SavePolicyVector(ctx, id, vectorLiteral)
}

// Options tunes one batch run. Zero values fall back to the defaults above.
type Options struct {
	Limit         int
	MaxErrors     int
	PauseEvery    int
	PauseInterval time.Duration
}

func normalizeOptions(opts Options) Options {
	normalized := opts
	if normalized.Limit <= 0 {
		normalized.Limit = DefaultBatchLimit
	}
	if normalized.MaxErrors <= 0 {
		normalized.MaxErrors = DefaultMaxErrors
	}
	if normalized.PauseEvery <= 0 {
		normalized.PauseEvery = DefaultPauseEvery
	}
	if normalized.PauseInterval <= 0 {
		normalized.PauseInterval = DefaultPauseInterval
	}
	return normalized
}

// Result reports one batch run over a single target.
type Result struct {
	Attempted int
	Embedded  int
	Skipped   int
	Failed    int
	Aborted   bool
	Errors    []string
}

// Batcher walks a target's pending rows, embeds each and persists the vector
// immediately so a crash loses at most one row's work.
type Batcher struct {
	embedder Embedder
	logger   zerolog.Logger
}

func NewBatcher(embedder Embedder, logger zerolog.Logger) *Batcher {
	return &Batcher{
		embedder: embedder,
		logger:   logger,
	}
}

// Run embeds the target's pending rows. Rows whose fields are all empty are
// skipped without a provider call. The run aborts once failures exceed
// MaxErrors, and pauses after every PauseEvery successes to stay inside
// provider quota.
func (b *Batcher) Run(ctx context.Context, target Target, opts Options) (Result, error) {
	opts = normalizeOptions(opts)

	var result Result

	seeds, err := target.SelectPending(ctx, opts.Limit)
	if err != nil {
		return result, fmt.Errorf("select pending %s: %w", target.Name(), err)
	}

	successesSincePause := 0
	for _, seed := range seeds {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if result.Failed > opts.MaxErrors {
			result.Aborted = true
			b.logger.Warn().
				Str("target", target.Name()).
				Int("failed", result.Failed).
				Msg("aborting embedding run, too many failures")
			break
		}

		input := buildInput(seed.Fields)
		if input == "" {
			result.Skipped++
			continue
		}
		result.Attempted++

		values, err := b.embedder.Embed(ctx, input)
		if err != nil {
			result.Failed++
			result.Errors = appendBounded(result.Errors, fmt.Sprintf("embed %s id=%d: %v", target.Name(), seed.ID, err))
			continue
		}

		vectorLiteral, err := db.ToVectorLiteral(values)
		if err != nil {
			result.Failed++
			result.Errors = appendBounded(result.Errors, fmt.Sprintf("vector %s id=%d: %v", target.Name(), seed.ID, err))
			continue
		}

		if err := target.SaveVector(ctx, seed.ID, vectorLiteral); err != nil {
			result.Failed++
			result.Errors = appendBounded(result.Errors, fmt.Sprintf("save %s id=%d: %v", target.Name(), seed.ID, err))
			continue
		}
		result.Embedded++

		successesSincePause++
		if successesSincePause >= opts.PauseEvery {
			successesSincePause = 0
			if err := sleepContext(ctx, opts.PauseInterval); err != nil {
				return result, err
			}
		}
	}

	b.logger.Info().
		Str("target", target.Name()).
		Int("attempted", result.Attempted).
		Int("embedded", result.Embedded).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Bool("aborted", result.Aborted).
		Msg("embedding run finished")

	return result, nil
}

// buildInput renders the labeled fields into the provider input, dropping
// fields without a value. An empty return means the row has nothing to embed.
func buildInput(fields []db.EmbeddingField) string {
	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}
		lines = append(lines, field.Label+": "+value)
	}
	return strings.Join(lines, "\n")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func appendBounded(errs []string, msg string) []string {
	if len(errs) >= maxResultErrors {
		return errs
	}
	return append(errs, msg)
}
