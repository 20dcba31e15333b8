package httpapi

import (
	"github.com/labstack/echo/v4"
)

type policyListItem struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Category    *string `json:"category,omitempty"`
	TargetGroup *string `json:"targetGroup,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (s *Server) handlePolicies(c echo.Context) error {
	rows, err := s.store.ListPolicies(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query policies failed")
		return internalError(c, "Failed to load policies")
	}

	items := make([]policyListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, policyListItem{
			ID:          row.ID,
			Title:       row.Title,
			Category:    row.Category,
			TargetGroup: row.TargetGroup,
			Description: row.Description,
		})
	}

	return success(c, map[string]any{
		"items": items,
		"total": len(items),
	})
}
