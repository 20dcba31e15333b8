package db

import (
	"context"
	"fmt"
)

// EmbeddingSeed is one record still missing its vector, reduced to the
// labeled fields that form the embedding input text.
type EmbeddingSeed struct {
	ID     int64
	Fields []EmbeddingField
}

type EmbeddingField struct {
	Label string
	Value string
}

func (p *Pool) SelectNoticesMissingVector(ctx context.Context, limit int) ([]EmbeddingSeed, error) {
	const q = `
SELECT
	n.id,
	n.title,
	COALESCE(n.category, ''),
	COALESCE(n.source, ''),
	COALESCE(n.content_summary, ''),
	COALESCE(n.policy_number, ''),
	COALESCE(to_char(n.start_date, 'YYYY-MM-DD'), ''),
	COALESCE(to_char(n.end_date, 'YYYY-MM-DD'), '')
FROM notices n
WHERE n.vector IS NULL
ORDER BY n.id
LIMIT $1
`

	rows, err := p.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("select notices missing vector: %w", err)
	}
	defer rows.Close()

	seeds := make([]EmbeddingSeed, 0, limit)
	for rows.Next() {
		var (
			id                 int64
			title              string
			category           string
			source             string
			summary            string
			policyNumber       string
			startDate, endDate string
		)
		if err := rows.Scan(&id, &title, &category, &source, &summary, &policyNumber, &startDate, &endDate); err != nil {
			return nil, fmt.Errorf("scan pending notice: %w", err)
		}

		period := ""
		if startDate != "" || endDate != "" {
			period = startDate + " ~ " + endDate
		}
		seeds = append(seeds, EmbeddingSeed{
			ID: id,
			Fields: []EmbeddingField{
				{Label: "제목", Value: title},
				{Label: "카테고리", Value: category},
				{Label: "출처", Value: source},
				{Label: "내용 요약", Value: summary},
				{Label: "정책 번호", Value: policyNumber},
				{Label: "신청 기간", Value: period},
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending notices: %w", err)
	}
	return seeds, nil
}

func (p *Pool) SaveNoticeVector(ctx context.Context, id int64, vectorLiteral string) error {
	const q = `UPDATE notices SET vector = $2::vector, updated_at = now() WHERE id = $1`

	tag, err := p.Exec(ctx, q, id, vectorLiteral)
	if err != nil {
		return fmt.Errorf("save notice vector id=%d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save notice vector id=%d: %w", id, ErrNoRows)
	}
	return nil
}

func (p *Pool) SelectPoliciesMissingVector(ctx context.Context, limit int) ([]EmbeddingSeed, error) {
	const q = `
SELECT
	p.id,
	p.title,
	COALESCE(p.category, ''),
	COALESCE(p.sub_category, ''),
	COALESCE(p.source, ''),
	COALESCE(p.target_group, ''),
	COALESCE(p.description, ''),
	COALESCE(p.application_process, '')
FROM policies p
WHERE p.vector IS NULL
ORDER BY p.id
LIMIT $1
`

	rows, err := p.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("select policies missing vector: %w", err)
	}
	defer rows.Close()

	seeds := make([]EmbeddingSeed, 0, limit)
	for rows.Next() {
		var (
			id                 int64
			title              string
			category           string
			subCategory        string
			source             string
			targetGroup        string
			description        string
			applicationProcess string
		)
		if err := rows.Scan(&id, &title, &category, &subCategory, &source, &targetGroup, &description, &applicationProcess); err != nil {
			return nil, fmt.Errorf("scan pending policy: %w", err)
		}

		seeds = append(seeds, EmbeddingSeed{
			ID: id,
			Fields: []EmbeddingField{
				{Label: "제목", Value: title},
				{Label: "카테고리", Value: category},
				{Label: "세부 카테고리", Value: subCategory},
				{Label: "출처", Value: source},
				{Label: "대상", Value: targetGroup},
				{Label: "설명", Value: description},
				{Label: "신청 절차", Value: applicationProcess},
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending policies: %w", err)
	}
	return seeds, nil
}

func (p *Pool) SavePolicyVector(ctx context.Context, id int64, vectorLiteral string) error {
	const q = `UPDATE policies SET vector = $2::vector, updated_at = now() WHERE id = $1`

	tag, err := p.Exec(ctx, q, id, vectorLiteral)
	if err != nil {
		return fmt.Errorf("save policy vector id=%d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save policy vector id=%d: %w", id, ErrNoRows)
	}
	return nil
}
