package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type NoticeListFilter struct {
	Category string
	Query    string
	Limit    int
	Offset   int
}

type NoticeListItem struct {
	ID                     int64
	Title                  string
	Category               *string
	Description            *string
	OriginalURL            *string
	StartDate              *string
	EndDate                *string
	SupervisingInstitution *string
	RegionalInstitution    *string
	Similarity             *float64
}

type NoticeDetail struct {
	ID                     int64
	Title                  string
	Category               *string
	Description            *string
	OriginalURL            *string
	StartDate              *string
	EndDate                *string
	ContentSummary         *string
	SupportContent         *string
	AdditionalInfo         *string
	SupervisingInstitution *string
	RegisteringInstitution *string
	OperatingInstitution   *string
	RegionalInstitution    *string
	ApplicationMethod      *string
	ScreeningMethod        *string
	RequiredDocuments      *string
	ReferenceURL           *string
	CreatedAt              time.Time
}

const existingNoticeColumns = `
	n.id,
	n.policy_number,
	n.original_url,
	to_char(n.start_date, 'YYYY-MM-DD'),
	to_char(n.end_date, 'YYYY-MM-DD'),
	n.content_summary,
	n.description,
	n.support_content,
	n.additional_info,
	n.supervising_institution,
	n.registering_institution,
	n.operating_institution,
	n.regional_institution,
	n.application_method,
	n.screening_method,
	n.required_documents,
	n.reference_url`

func scanExistingNotice(row interface{ Scan(dest ...any) error }) (*ExistingNotice, error) {
	var n ExistingNotice
	if err := row.Scan(
		&n.ID,
		&n.PolicyNumber,
		&n.OriginalURL,
		&n.StartDate,
		&n.EndDate,
		&n.ContentSummary,
		&n.Description,
		&n.SupportContent,
		&n.AdditionalInfo,
		&n.SupervisingInstitution,
		&n.RegisteringInstitution,
		&n.OperatingInstitution,
		&n.RegionalInstitution,
		&n.ApplicationMethod,
		&n.ScreeningMethod,
		&n.RequiredDocuments,
		&n.ReferenceURL,
	); err != nil {
		return nil, err
	}
	return &n, nil
}

// GetNoticeByNaturalKey looks a notice up by policy number first, falling back
// to the original URL. Returns ErrNoRows when neither matches.
func (p *Pool) GetNoticeByNaturalKey(ctx context.Context, policyNumber, originalURL *string) (*ExistingNotice, error) {
	q := `
SELECT` + existingNoticeColumns + `
FROM notices n
WHERE ($1::text IS NOT NULL AND n.policy_number = $1)
   OR ($1::text IS NULL AND $2::text IS NOT NULL AND n.original_url = $2)
ORDER BY n.id
LIMIT 1
`
	if policyNumber == nil && originalURL == nil {
		return nil, ErrNoRows
	}

	notice, err := scanExistingNotice(p.QueryRow(ctx, q, policyNumber, originalURL))
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query notice by natural key: %w", err)
	}
	return notice, nil
}

func (p *Pool) InsertNotice(ctx context.Context, rec NoticeRecord) (int64, error) {
	const q = `
INSERT INTO notices (
	policy_number,
	title,
	category,
	source,
	original_url,
	start_date,
	end_date,
	content_summary,
	description,
	support_content,
	additional_info,
	supervising_institution,
	registering_institution,
	operating_institution,
	regional_institution,
	application_method,
	screening_method,
	required_documents,
	reference_url
)
VALUES (
	$1, $2, $3, $4, $5,
	$6::date, $7::date,
	$8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
)
RETURNING id
`

	var id int64
	err := p.QueryRow(ctx, q,
		rec.PolicyNumber,
		rec.Title,
		nullableString(rec.Category),
		nullableString(rec.Source),
		rec.OriginalURL,
		rec.StartDate,
		rec.EndDate,
		rec.ContentSummary,
		rec.Description,
		rec.SupportContent,
		rec.AdditionalInfo,
		rec.SupervisingInstitution,
		rec.RegisteringInstitution,
		rec.OperatingInstitution,
		rec.RegionalInstitution,
		rec.ApplicationMethod,
		rec.ScreeningMethod,
		rec.RequiredDocuments,
		rec.ReferenceURL,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert notice %q: %w", rec.Title, err)
	}
	return id, nil
}

// noticePatchColumns is the fixed order in which patch columns are rendered
// into the UPDATE statement, and the whitelist of what a patch may touch.
var noticePatchColumns = []string{
	"start_date",
	"end_date",
	"original_url",
	"content_summary",
	"description",
	"support_content",
	"additional_info",
	"supervising_institution",
	"registering_institution",
	"operating_institution",
	"regional_institution",
	"application_method",
	"screening_method",
	"required_documents",
	"reference_url",
}

// UpdateNoticeColumns applies a backfill patch. Only whitelisted columns are
// accepted; an unknown key is a programming error.
func (p *Pool) UpdateNoticeColumns(ctx context.Context, id int64, patch map[string]string) error {
	if len(patch) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(noticePatchColumns))
	for _, column := range noticePatchColumns {
		allowed[column] = struct{}{}
	}
	for key := range patch {
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("patch column %q is not allowed", key)
		}
	}

	setClauses := make([]string, 0, len(patch)+1)
	args := make([]any, 0, len(patch)+1)
	args = append(args, id)
	for _, column := range noticePatchColumns {
		value, ok := patch[column]
		if !ok {
			continue
		}
		placeholder := fmt.Sprintf("$%d", len(args)+1)
		if column == "start_date" || column == "end_date" {
			placeholder += "::date"
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", column, placeholder))
		args = append(args, value)
	}
	setClauses = append(setClauses, "updated_at = now()")

	q := fmt.Sprintf("UPDATE notices SET %s WHERE id = $1", strings.Join(setClauses, ", "))
	tag, err := p.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update notice id=%d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update notice id=%d: %w", id, ErrNoRows)
	}
	return nil
}

func (p *Pool) CountNotices(ctx context.Context, filter NoticeListFilter) (int64, error) {
	const q = `
SELECT COUNT(*)
FROM notices n
WHERE ($1 = '' OR n.category = $1)
  AND ($2 = '' OR n.title ILIKE $2 OR COALESCE(n.content_summary, '') ILIKE $2)
`

	var total int64
	if err := p.QueryRow(ctx, q, filter.Category, likePattern(filter.Query)).Scan(&total); err != nil {
		return 0, fmt.Errorf("count notices: %w", err)
	}
	return total, nil
}

func (p *Pool) ListNotices(ctx context.Context, filter NoticeListFilter) ([]NoticeListItem, error) {
	const q = `
SELECT
	n.id,
	n.title,
	n.category,
	n.description,
	n.original_url,
	to_char(n.start_date, 'YYYY-MM-DD'),
	to_char(n.end_date, 'YYYY-MM-DD'),
	n.supervising_institution,
	n.regional_institution
FROM notices n
WHERE ($1 = '' OR n.category = $1)
  AND ($2 = '' OR n.title ILIKE $2 OR COALESCE(n.content_summary, '') ILIKE $2)
ORDER BY n.created_at DESC, n.id DESC
LIMIT $3
OFFSET $4
`

	rows, err := p.Query(ctx, q, filter.Category, likePattern(filter.Query), filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("query notices: %w", err)
	}
	defer rows.Close()

	items := make([]NoticeListItem, 0, filter.Limit)
	for rows.Next() {
		var item NoticeListItem
		if err := rows.Scan(
			&item.ID,
			&item.Title,
			&item.Category,
			&item.Description,
			&item.OriginalURL,
			&item.StartDate,
			&item.EndDate,
			&item.SupervisingInstitution,
			&item.RegionalInstitution,
		); err != nil {
			return nil, fmt.Errorf("scan notice row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notice rows: %w", err)
	}
	return items, nil
}

func (p *Pool) GetNoticeDetail(ctx context.Context, id int64) (*NoticeDetail, error) {
	const q = `
SELECT
	n.id,
	n.title,
	n.category,
	n.description,
	n.original_url,
	to_char(n.start_date, 'YYYY-MM-DD'),
	to_char(n.end_date, 'YYYY-MM-DD'),
	n.content_summary,
	n.support_content,
	n.additional_info,
	n.supervising_institution,
	n.registering_institution,
	n.operating_institution,
	n.regional_institution,
	n.application_method,
	n.screening_method,
	n.required_documents,
	n.reference_url,
	n.created_at
FROM notices n
WHERE n.id = $1
`

	var detail NoticeDetail
	if err := p.QueryRow(ctx, q, id).Scan(
		&detail.ID,
		&detail.Title,
		&detail.Category,
		&detail.Description,
		&detail.OriginalURL,
		&detail.StartDate,
		&detail.EndDate,
		&detail.ContentSummary,
		&detail.SupportContent,
		&detail.AdditionalInfo,
		&detail.SupervisingInstitution,
		&detail.RegisteringInstitution,
		&detail.OperatingInstitution,
		&detail.RegionalInstitution,
		&detail.ApplicationMethod,
		&detail.ScreeningMethod,
		&detail.RequiredDocuments,
		&detail.ReferenceURL,
		&detail.CreatedAt,
	); err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query notice detail id=%d: %w", id, err)
	}
	return &detail, nil
}

func (p *Pool) CountSimilarNotices(ctx context.Context, vectorLiteral string, threshold float64) (int64, error) {
	const q = `
SELECT COUNT(*)
FROM notices n
WHERE n.vector IS NOT NULL
  AND 1 - (n.vector <=> $1::vector) >= $2
`

	var total int64
	if err := p.QueryRow(ctx, q, vectorLiteral, threshold).Scan(&total); err != nil {
		return 0, fmt.Errorf("count similar notices: %w", err)
	}
	return total, nil
}

func (p *Pool) SearchSimilarNotices(ctx context.Context, vectorLiteral string, threshold float64, limit, offset int) ([]NoticeListItem, error) {
	const q = `
SELECT
	n.id,
	n.title,
	n.category,
	n.description,
	n.original_url,
	to_char(n.start_date, 'YYYY-MM-DD'),
	to_char(n.end_date, 'YYYY-MM-DD'),
	n.supervising_institution,
	n.regional_institution,
	1 - (n.vector <=> $1::vector) AS similarity
FROM notices n
WHERE n.vector IS NOT NULL
  AND 1 - (n.vector <=> $1::vector) >= $2
ORDER BY n.vector <=> $1::vector, n.id
LIMIT $3
OFFSET $4
`

	rows, err := p.Query(ctx, q, vectorLiteral, threshold, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query similar notices: %w", err)
	}
	defer rows.Close()

	items := make([]NoticeListItem, 0, limit)
	for rows.Next() {
		var item NoticeListItem
		if err := rows.Scan(
			&item.ID,
			&item.Title,
			&item.Category,
			&item.Description,
			&item.OriginalURL,
			&item.StartDate,
			&item.EndDate,
			&item.SupervisingInstitution,
			&item.RegionalInstitution,
			&item.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan similar notice row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similar notice rows: %w", err)
	}
	return items, nil
}

// ListBackfillCandidates returns notices that carry a policy number but never
// received application dates, the rows the reconciler tries to repair.
func (p *Pool) ListBackfillCandidates(ctx context.Context) ([]ExistingNotice, error) {
	q := `
SELECT` + existingNoticeColumns + `
FROM notices n
WHERE n.policy_number IS NOT NULL
  AND n.start_date IS NULL
ORDER BY n.id
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query backfill candidates: %w", err)
	}
	defer rows.Close()

	var items []ExistingNotice
	for rows.Next() {
		notice, err := scanExistingNotice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backfill candidate: %w", err)
		}
		items = append(items, *notice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backfill candidates: %w", err)
	}
	return items, nil
}

// FillInstitutionsBySource stamps the institution name onto every notice from
// the given source whose institution fields are missing or stale. Returns the
// number of rows updated and the number already correct.
func (p *Pool) FillInstitutionsBySource(ctx context.Context, source, institution string) (updated, skipped int64, err error) {
	const countQuery = `SELECT COUNT(*) FROM notices WHERE source = $1`
	var total int64
	if err := p.QueryRow(ctx, countQuery, source).Scan(&total); err != nil {
		return 0, 0, fmt.Errorf("count notices by source: %w", err)
	}

	const updateQuery = `
UPDATE notices
SET supervising_institution = $2,
    registering_institution = $2,
    operating_institution = $2,
    updated_at = now()
WHERE source = $1
  AND (
	supervising_institution IS DISTINCT FROM $2
	OR registering_institution IS DISTINCT FROM $2
	OR operating_institution IS DISTINCT FROM $2
  )
`

	tag, err := p.Exec(ctx, updateQuery, source, institution)
	if err != nil {
		return 0, 0, fmt.Errorf("fill institutions for source %q: %w", source, err)
	}
	updated = tag.RowsAffected()
	return updated, total - updated, nil
}

func likePattern(query string) string {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return ""
	}
	return "%" + trimmed + "%"
}

func nullableString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
