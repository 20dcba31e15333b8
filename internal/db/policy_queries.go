package db

import (
	"context"
	"fmt"
)

type PolicyListItem struct {
	ID          int64
	Title       string
	Category    *string
	TargetGroup *string
	Description *string
}

// PolicyRef is the slice of a policy that similarity search needs: identity
// plus the stored vector rendered as a pgvector literal. VectorLiteral is nil
// when the policy has not been embedded yet.
type PolicyRef struct {
	ID            int64
	Title         string
	Category      *string
	VectorLiteral *string
}

func (p *Pool) ListPolicies(ctx context.Context) ([]PolicyListItem, error) {
	const q = `
SELECT
	p.id,
	p.title,
	p.category,
	p.target_group,
	p.description
FROM policies p
ORDER BY p.created_at DESC, p.id DESC
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query policies: %w", err)
	}
	defer rows.Close()

	items := make([]PolicyListItem, 0, 32)
	for rows.Next() {
		var item PolicyListItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Category, &item.TargetGroup, &item.Description); err != nil {
			return nil, fmt.Errorf("scan policy row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policy rows: %w", err)
	}
	return items, nil
}

func (p *Pool) GetPolicyRef(ctx context.Context, id int64) (*PolicyRef, error) {
	const q = `
SELECT
	p.id,
	p.title,
	p.category,
	p.vector::text
FROM policies p
WHERE p.id = $1
`

	var ref PolicyRef
	if err := p.QueryRow(ctx, q, id).Scan(&ref.ID, &ref.Title, &ref.Category, &ref.VectorLiteral); err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query policy id=%d: %w", id, err)
	}
	return &ref, nil
}
