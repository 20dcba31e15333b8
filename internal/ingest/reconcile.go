package ingest

import (
	"context"
	"fmt"
	"strings"

	"dano.kr/youthscope/internal/db"
	"dano.kr/youthscope/internal/source"
)

// DefaultReconcileBatchSize bounds the upstream snapshot one reconcile run
// fetches for matching.
const DefaultReconcileBatchSize = 2000

// ReconcileResult reports one backfill reconciliation run.
type ReconcileResult struct {
	Scanned int
	Updated int
	Skipped int
	Errors  []string
}

// ReconcileYouthPolicies repairs notices that carry a policy number but
// never received application dates. It fetches one bounded snapshot of the
// upstream feed, matches candidates by policy number in memory and applies a
// backfill patch. Candidates absent from the snapshot are skipped.
func (s *Service) ReconcileYouthPolicies(ctx context.Context, src source.Source, maxItems int) (ReconcileResult, error) {
	var result ReconcileResult

	if maxItems <= 0 {
		maxItems = DefaultReconcileBatchSize
	}

	candidates, err := s.store.ListBackfillCandidates(ctx)
	if err != nil {
		return result, fmt.Errorf("list backfill candidates: %w", err)
	}
	result.Scanned = len(candidates)
	if len(candidates) == 0 {
		return result, nil
	}

	snapshot, err := FetchAll(ctx, src, s.logger, maxItems)
	if err != nil {
		return result, fmt.Errorf("fetch %s snapshot: %w", src.Name(), err)
	}

	byPolicyNumber := make(map[string]db.NoticeRecord, len(snapshot))
	for _, rec := range snapshot {
		if rec.PolicyNumber != nil && *rec.PolicyNumber != "" {
			byPolicyNumber[*rec.PolicyNumber] = rec
		}
	}

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if candidate.PolicyNumber == nil {
			result.Skipped++
			continue
		}

		rec, ok := byPolicyNumber[*candidate.PolicyNumber]
		if !ok {
			result.Skipped++
			continue
		}

		patch := reconcilePatch(&candidate, rec)
		if len(patch) == 0 {
			result.Skipped++
			continue
		}

		if err := s.store.UpdateNoticeColumns(ctx, candidate.ID, patch); err != nil {
			result.Errors = appendBounded(result.Errors, fmt.Sprintf("update id=%d: %v", candidate.ID, err))
			continue
		}
		result.Updated++
	}

	s.logger.Info().
		Str("source", src.Name()).
		Int("scanned", result.Scanned).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Msg("reconcile run finished")

	return result, nil
}

// reconcilePatch is the repair variant of backfillPatch. Dates and the
// original URL take the fresh upstream value outright; an application method
// not yet mentioned is appended to the summary; everything else is null-only.
func reconcilePatch(existing *db.ExistingNotice, rec db.NoticeRecord) map[string]string {
	patch := map[string]string{}

	if rec.StartDate != nil {
		patch["start_date"] = *rec.StartDate
	}
	if rec.EndDate != nil {
		patch["end_date"] = *rec.EndDate
	}
	if !isBlank(rec.OriginalURL) {
		patch["original_url"] = strings.TrimSpace(*rec.OriginalURL)
	}

	if !isBlank(rec.ApplicationMethod) {
		method := strings.TrimSpace(*rec.ApplicationMethod)
		current := ""
		if existing.ContentSummary != nil {
			current = *existing.ContentSummary
		}
		if !strings.Contains(current, method) {
			if current == "" {
				patch["content_summary"] = method
			} else {
				patch["content_summary"] = current + " | " + method
			}
		}
	}

	fillMissing := func(column string, stored, candidate *string) {
		if !isBlank(stored) || isBlank(candidate) {
			return
		}
		patch[column] = strings.TrimSpace(*candidate)
	}

	fillMissing("description", existing.Description, rec.Description)
	fillMissing("support_content", existing.SupportContent, rec.SupportContent)
	fillMissing("additional_info", existing.AdditionalInfo, rec.AdditionalInfo)
	fillMissing("operating_institution", existing.OperatingInstitution, rec.OperatingInstitution)
	fillMissing("application_method", existing.ApplicationMethod, rec.ApplicationMethod)
	fillMissing("screening_method", existing.ScreeningMethod, rec.ScreeningMethod)
	fillMissing("required_documents", existing.RequiredDocuments, rec.RequiredDocuments)
	fillMissing("reference_url", existing.ReferenceURL, rec.ReferenceURL)

	return patch
}

// InstitutionResult reports one institution-stamping run.
type InstitutionResult struct {
	Updated int64
	Skipped int64
}

// ReconcileLHInstitutions stamps the LH corporation name onto its notices'
// institution fields where they are missing or inconsistent.
func (s *Service) ReconcileLHInstitutions(ctx context.Context) (InstitutionResult, error) {
	updated, skipped, err := s.store.FillInstitutionsBySource(ctx, source.LHInstitutionName, source.LHInstitutionName)
	if err != nil {
		return InstitutionResult{}, fmt.Errorf("fill LH institutions: %w", err)
	}

	s.logger.Info().
		Int64("updated", updated).
		Int64("skipped", skipped).
		Msg("institution reconcile finished")

	return InstitutionResult{Updated: updated, Skipped: skipped}, nil
}
