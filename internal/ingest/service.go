package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"dano.kr/youthscope/internal/db"
	"dano.kr/youthscope/internal/source"
)

// maxResultErrors caps the error list carried in a run result so a bad crawl
// cannot balloon the summary.
const maxResultErrors = 20

// NoticeStore is the slice of the database layer the ingestion service
// needs. *db.Pool implements it.
type NoticeStore interface {
	GetNoticeByNaturalKey(ctx context.Context, policyNumber, originalURL *string) (*db.ExistingNotice, error)
	InsertNotice(ctx context.Context, rec db.NoticeRecord) (int64, error)
	UpdateNoticeColumns(ctx context.Context, id int64, patch map[string]string) error
	ListBackfillCandidates(ctx context.Context) ([]db.ExistingNotice, error)
	FillInstitutionsBySource(ctx context.Context, source, institution string) (updated, skipped int64, err error)
}

type Service struct {
	store  NoticeStore
	logger zerolog.Logger
}

func NewService(store NoticeStore, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// CollectResult reports the per-record outcomes of one collection run.
type CollectResult struct {
	Fetched    int
	Inserted   int
	Updated    int
	Duplicates int
	Failed     int
	Errors     []string
}

// CollectSource crawls one upstream feed and upserts every record. Inserts
// happen for unseen natural keys; known keys receive a null-only backfill or
// count as duplicates when there is nothing to fill. Write failures are
// recorded per record and do not stop the run.
func (s *Service) CollectSource(ctx context.Context, src source.Source, maxItems int) (CollectResult, error) {
	var result CollectResult

	records, err := FetchAll(ctx, src, s.logger, maxItems)
	if err != nil {
		return result, fmt.Errorf("fetch %s: %w", src.Name(), err)
	}
	result.Fetched = len(records)

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if strings.TrimSpace(rec.Title) == "" {
			result.Failed++
			result.Errors = appendBounded(result.Errors, fmt.Sprintf("%s: record without title skipped", src.Name()))
			continue
		}

		policyNumber, originalURL := rec.NaturalKey()
		if policyNumber == nil && originalURL == nil {
			result.Failed++
			result.Errors = appendBounded(result.Errors, fmt.Sprintf("%s: %q has no natural key", src.Name(), rec.Title))
			continue
		}

		existing, err := s.store.GetNoticeByNaturalKey(ctx, policyNumber, originalURL)
		switch {
		case err == nil:
			patch := backfillPatch(existing, rec)
			if len(patch) == 0 {
				result.Duplicates++
				continue
			}
			if err := s.store.UpdateNoticeColumns(ctx, existing.ID, patch); err != nil {
				result.Failed++
				result.Errors = appendBounded(result.Errors, fmt.Sprintf("update %q: %v", rec.Title, err))
				continue
			}
			result.Updated++
		case db.IsNoRows(err):
			if _, err := s.store.InsertNotice(ctx, rec); err != nil {
				result.Failed++
				result.Errors = appendBounded(result.Errors, fmt.Sprintf("insert %q: %v", rec.Title, err))
				continue
			}
			result.Inserted++
		default:
			result.Failed++
			result.Errors = appendBounded(result.Errors, fmt.Sprintf("lookup %q: %v", rec.Title, err))
		}
	}

	s.logger.Info().
		Str("source", src.Name()).
		Int("fetched", result.Fetched).
		Int("inserted", result.Inserted).
		Int("updated", result.Updated).
		Int("duplicates", result.Duplicates).
		Int("failed", result.Failed).
		Msg("collection run finished")

	return result, nil
}

// backfillPatch computes the columns an incoming record may fill on an
// existing row. Only missing values are filled; stored data is never
// overwritten.
func backfillPatch(existing *db.ExistingNotice, rec db.NoticeRecord) map[string]string {
	patch := map[string]string{}

	fill := func(column string, stored, candidate *string) {
		if !isBlank(stored) || isBlank(candidate) {
			return
		}
		patch[column] = strings.TrimSpace(*candidate)
	}

	fill("start_date", existing.StartDate, rec.StartDate)
	fill("end_date", existing.EndDate, rec.EndDate)
	fill("original_url", existing.OriginalURL, rec.OriginalURL)
	fill("content_summary", existing.ContentSummary, rec.ContentSummary)
	fill("description", existing.Description, rec.Description)
	fill("support_content", existing.SupportContent, rec.SupportContent)
	fill("additional_info", existing.AdditionalInfo, rec.AdditionalInfo)
	fill("supervising_institution", existing.SupervisingInstitution, rec.SupervisingInstitution)
	fill("registering_institution", existing.RegisteringInstitution, rec.RegisteringInstitution)
	fill("operating_institution", existing.OperatingInstitution, rec.OperatingInstitution)
	fill("regional_institution", existing.RegionalInstitution, rec.RegionalInstitution)
	fill("application_method", existing.ApplicationMethod, rec.ApplicationMethod)
	fill("screening_method", existing.ScreeningMethod, rec.ScreeningMethod)
	fill("required_documents", existing.RequiredDocuments, rec.RequiredDocuments)
	fill("reference_url", existing.ReferenceURL, rec.ReferenceURL)

	return patch
}

func isBlank(p *string) bool {
	return p == nil || strings.TrimSpace(*p) == ""
}

func appendBounded(errs []string, msg string) []string {
	if len(errs) >= maxResultErrors {
		return errs
	}
	return append(errs, msg)
}
