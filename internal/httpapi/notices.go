package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"dano.kr/youthscope/internal/db"
)

type noticeListItem struct {
	ID                     int64    `json:"id"`
	Title                  string   `json:"title"`
	Category               *string  `json:"category,omitempty"`
	Description            *string  `json:"description,omitempty"`
	URL                    *string  `json:"url,omitempty"`
	StartDate              *string  `json:"startDate,omitempty"`
	EndDate                *string  `json:"endDate,omitempty"`
	SupervisingInstitution *string  `json:"supervisingInstitution,omitempty"`
	RegionalInstitution    *string  `json:"regionalInstitution,omitempty"`
	Similarity             *float64 `json:"similarity,omitempty"`
}

type noticePagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
}

type policyInfo struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Category   *string `json:"category,omitempty"`
	SearchType string  `json:"searchType"`
}

type noticeDetailResponse struct {
	ID                     int64     `json:"id"`
	Title                  string    `json:"title"`
	Category               *string   `json:"category,omitempty"`
	Description            *string   `json:"description,omitempty"`
	URL                    *string   `json:"url,omitempty"`
	StartDate              *string   `json:"startDate,omitempty"`
	EndDate                *string   `json:"endDate,omitempty"`
	ContentSummary         *string   `json:"contentSummary,omitempty"`
	SupportContent         *string   `json:"supportContent,omitempty"`
	AdditionalInfo         *string   `json:"additionalInfo,omitempty"`
	SupervisingInstitution *string   `json:"supervisingInstitution,omitempty"`
	RegisteringInstitution *string   `json:"registeringInstitution,omitempty"`
	OperatingInstitution   *string   `json:"operatingInstitution,omitempty"`
	RegionalInstitution    *string   `json:"regionalInstitution,omitempty"`
	ApplicationMethod      *string   `json:"applicationMethod,omitempty"`
	ScreeningMethod        *string   `json:"screeningMethod,omitempty"`
	RequiredDocuments      *string   `json:"requiredDocuments,omitempty"`
	ReferenceURL           *string   `json:"referenceUrl,omitempty"`
	CreatedAt              time.Time `json:"createdAt"`
}

// handleNotices lists notices. Without a policyId it is a plain filtered
// listing; with one it becomes a similarity search seeded by that policy's
// vector.
func (s *Server) handleNotices(c echo.Context) error {
	page, err := clampIntParam(c.QueryParam("page"), 1, 1, 1_000_000)
	if err != nil {
		return failValidation(c, map[string]string{"page": err.Error()})
	}

	limit, err := clampIntParam(c.QueryParam("limit"), defaultPageSize, 1, maxPageSize)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	offset := (page - 1) * limit

	if rawPolicyID := strings.TrimSpace(c.QueryParam("policyId")); rawPolicyID != "" {
		policyID, err := strconv.ParseInt(rawPolicyID, 10, 64)
		if err != nil || policyID <= 0 {
			return failValidation(c, map[string]string{"policyId": "must be a positive integer"})
		}
		return s.handleSimilarNotices(c, policyID, page, limit, offset)
	}

	filter := db.NoticeListFilter{
		Category: strings.TrimSpace(c.QueryParam("category")),
		Query:    strings.TrimSpace(c.QueryParam("q")),
		Limit:    limit,
		Offset:   offset,
	}

	ctx := c.Request().Context()
	total, err := s.store.CountNotices(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("count notices failed")
		return internalError(c, "Failed to load notices")
	}

	rows, err := s.store.ListNotices(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("query notices failed")
		return internalError(c, "Failed to load notices")
	}

	return success(c, map[string]any{
		"items":      toNoticeListItems(rows),
		"pagination": buildPagination(page, limit, total),
	})
}

func (s *Server) handleSimilarNotices(c echo.Context, policyID int64, page, limit, offset int) error {
	ctx := c.Request().Context()

	policy, err := s.store.GetPolicyRef(ctx, policyID)
	if err != nil {
		if db.IsNoRows(err) {
			return failNotFound(c, "Policy not found")
		}
		s.logger.Error().Err(err).Int64("policy_id", policyID).Msg("query policy failed")
		return internalError(c, "Failed to load policy")
	}
	if policy.VectorLiteral == nil {
		return fail(c, http.StatusBadRequest, "Policy has no embedding yet", map[string]any{
			"code": "vector_not_ready",
		})
	}

	threshold := s.opts.SimilarityThreshold
	total, err := s.store.CountSimilarNotices(ctx, *policy.VectorLiteral, threshold)
	if err != nil {
		s.logger.Error().Err(err).Int64("policy_id", policyID).Msg("count similar notices failed")
		return internalError(c, "Failed to search notices")
	}

	rows, err := s.store.SearchSimilarNotices(ctx, *policy.VectorLiteral, threshold, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Int64("policy_id", policyID).Msg("query similar notices failed")
		return internalError(c, "Failed to search notices")
	}

	return success(c, map[string]any{
		"items":      toNoticeListItems(rows),
		"pagination": buildPagination(page, limit, total),
		"policyInfo": policyInfo{
			ID:         policy.ID,
			Title:      policy.Title,
			Category:   policy.Category,
			SearchType: "vector_similarity",
		},
	})
}

func (s *Server) handleNoticeDetail(c echo.Context) error {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		return failValidation(c, map[string]string{"id": "must be a positive integer"})
	}

	detail, err := s.store.GetNoticeDetail(c.Request().Context(), id)
	if err != nil {
		if db.IsNoRows(err) {
			return failNotFound(c, "Notice not found")
		}
		s.logger.Error().Err(err).Int64("id", id).Msg("query notice detail failed")
		return internalError(c, "Failed to load notice")
	}

	return success(c, noticeDetailResponse{
		ID:                     detail.ID,
		Title:                  detail.Title,
		Category:               detail.Category,
		Description:            detail.Description,
		URL:                    detail.OriginalURL,
		StartDate:              detail.StartDate,
		EndDate:                detail.EndDate,
		ContentSummary:         detail.ContentSummary,
		SupportContent:         detail.SupportContent,
		AdditionalInfo:         detail.AdditionalInfo,
		SupervisingInstitution: detail.SupervisingInstitution,
		RegisteringInstitution: detail.RegisteringInstitution,
		OperatingInstitution:   detail.OperatingInstitution,
		RegionalInstitution:    detail.RegionalInstitution,
		ApplicationMethod:      detail.ApplicationMethod,
		ScreeningMethod:        detail.ScreeningMethod,
		RequiredDocuments:      detail.RequiredDocuments,
		ReferenceURL:           detail.ReferenceURL,
		CreatedAt:              detail.CreatedAt,
	})
}

func toNoticeListItems(rows []db.NoticeListItem) []noticeListItem {
	items := make([]noticeListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, noticeListItem{
			ID:                     row.ID,
			Title:                  row.Title,
			Category:               row.Category,
			Description:            row.Description,
			URL:                    row.OriginalURL,
			StartDate:              row.StartDate,
			EndDate:                row.EndDate,
			SupervisingInstitution: row.SupervisingInstitution,
			RegionalInstitution:    row.RegionalInstitution,
			Similarity:             row.Similarity,
		})
	}
	return items
}

func buildPagination(page, limit int, total int64) noticePagination {
	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return noticePagination{
		Page:       page,
		Limit:      limit,
		TotalCount: total,
		TotalPages: totalPages,
	}
}
