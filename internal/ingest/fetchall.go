package ingest

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"dano.kr/youthscope/internal/db"
	"dano.kr/youthscope/internal/source"
)

// FetchAll walks an upstream feed page by page until it is exhausted.
// Pacing between pages follows the source's declared interval. A failure on
// the first page fails the whole crawl; a failure on a later page keeps the
// pages collected so far. maxItems <= 0 means no cap.
func FetchAll(ctx context.Context, src source.Source, logger zerolog.Logger, maxItems int) ([]db.NoticeRecord, error) {
	limiter := rate.NewLimiter(rate.Every(src.PageInterval()), 1)

	var collected []db.NoticeRecord
	totalCount := 0

	for page := 1; ; page++ {
		if err := limiter.Wait(ctx); err != nil {
			return collected, err
		}

		records, total, err := src.FetchPage(ctx, page)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			logger.Warn().
				Err(err).
				Str("source", src.Name()).
				Int("page", page).
				Int("collected", len(collected)).
				Msg("page fetch failed, keeping partial crawl")
			return collected, nil
		}

		if page == 1 {
			totalCount = total
		}
		if len(records) == 0 {
			break
		}

		if maxItems > 0 && len(collected)+len(records) > maxItems {
			records = records[:maxItems-len(collected)]
		}
		collected = append(collected, records...)

		logger.Debug().
			Str("source", src.Name()).
			Int("page", page).
			Int("page_records", len(records)).
			Int("collected", len(collected)).
			Int("total_count", totalCount).
			Msg("page collected")

		if maxItems > 0 && len(collected) >= maxItems {
			break
		}
		if totalCount > 0 && len(collected) >= totalCount {
			break
		}
		if len(records) < src.PageSize() {
			break
		}
	}

	return collected, nil
}
