package source

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"dano.kr/youthscope/internal/db"
)

const (
	YouthcenterSourceName      = "youthcenter"
	DefaultYouthcenterBaseURL  = "https://www.youthcenter.go.kr/go/ythip/getPlcy"
	defaultYouthcenterFallback = "청년센터"

	youthcenterPageSize     = 100
	youthcenterPageInterval = 500 * time.Millisecond
)

// Youthcenter fetches policies from the national youth policy API.
type Youthcenter struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type YouthcenterOption func(*Youthcenter)

func WithYouthcenterBaseURL(baseURL string) YouthcenterOption {
	return func(s *Youthcenter) { s.baseURL = baseURL }
}

func WithYouthcenterHTTPClient(client *http.Client) YouthcenterOption {
	return func(s *Youthcenter) { s.httpClient = client }
}

func NewYouthcenter(apiKey string, opts ...YouthcenterOption) *Youthcenter {
	s := &Youthcenter{
		apiKey:     apiKey,
		baseURL:    DefaultYouthcenterBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Youthcenter) Name() string                { return YouthcenterSourceName }
func (s *Youthcenter) PageSize() int               { return youthcenterPageSize }
func (s *Youthcenter) PageInterval() time.Duration { return youthcenterPageInterval }

type youthPolicyItem struct {
	PolicyNo            string `json:"plcyNo"`
	PolicyName          string `json:"plcyNm"`
	MajorCategory       string `json:"lclsfNm"`
	MiddleCategory      string `json:"mclsfNm"`
	MinorCategory       string `json:"sclsfNm"`
	SupportContent      string `json:"plcySprtCn"`
	OrgName             string `json:"orgNm"`
	ApplyBeginDate      string `json:"aplyBgnYmd"`
	ApplyEndDate        string `json:"aplyEndYmd"`
	ApplyPeriod         string `json:"aplyYmd"`
	PolicyURL           string `json:"plcyUrl"`
	ApplyURL            string `json:"aplyUrlAddr"`
	SupportTarget       string `json:"plcySprttgCn"`
	ApplyMethodLegacy   string `json:"aplyMthCn"`
	ApplyMethod         string `json:"plcyAplyMthdCn"`
	Description         string `json:"plcyExplnCn"`
	AdditionalInfo      string `json:"etcMttrCn"`
	ScreeningMethod     string `json:"srngMthdCn"`
	RequiredDocuments   string `json:"sbmsnDcmntCn"`
	ReferenceURL        string `json:"refUrlAddr1"`
	SupervisingInst     string `json:"sprvsnInstCdNm"`
	OperatingInst       string `json:"operInstCdNm"`
	RegisteringInst     string `json:"rgtrInstCdNm"`
	RegionalInst        string `json:"rgtrHghrkInstCdNm"`
	OperatingInstLegacy string `json:"opshrInsdNm"`
}

type youthPolicyResponse struct {
	ResultCode    int    `json:"resultCode"`
	ResultMessage string `json:"resultMessage"`
	Result        struct {
		Pagging struct {
			TotalCount int `json:"totalCount"`
		} `json:"pagging"`
		YouthPolicyList []youthPolicyItem `json:"youthPolicyList"`
	} `json:"result"`
}

func (s *Youthcenter) FetchPage(ctx context.Context, page int) ([]db.NoticeRecord, int, error) {
	endpoint, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, 0, upstreamErrorf(s.Name(), page, "parse base URL: %w", err)
	}

	query := endpoint.Query()
	query.Set("apiKeyNm", s.apiKey)
	query.Set("pageNum", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(youthcenterPageSize))
	query.Set("rtnType", "json")
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, 0, upstreamErrorf(s.Name(), page, "build request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, upstreamErrorf(s.Name(), page, "request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, 0, upstreamErrorf(s.Name(), page, "status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, upstreamErrorf(s.Name(), page, "read response: %w", err)
	}

	var parsed youthPolicyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, 0, upstreamErrorf(s.Name(), page, "decode response: %w", err)
	}

	// The feed reports application errors with resultCode on HTTP 200.
	if parsed.ResultCode != 200 {
		return nil, 0, upstreamErrorf(s.Name(), page, "resultCode %d: %s", parsed.ResultCode, parsed.ResultMessage)
	}

	records := make([]db.NoticeRecord, 0, len(parsed.Result.YouthPolicyList))
	for _, item := range parsed.Result.YouthPolicyList {
		records = append(records, normalizeYouthPolicy(item))
	}
	return records, parsed.Result.Pagging.TotalCount, nil
}

func normalizeYouthPolicy(item youthPolicyItem) db.NoticeRecord {
	var startDate, endDate *string
	if item.ApplyPeriod != "" {
		startDate, endDate = ParseDateRange(item.ApplyPeriod)
	} else {
		startDate = FormatDate(item.ApplyBeginDate)
		endDate = FormatDate(item.ApplyEndDate)
	}

	// Newer API fields win over their legacy counterparts.
	applyMethod := firstNonEmpty(item.ApplyMethod, item.ApplyMethodLegacy)
	originalURL := firstNonEmpty(item.ApplyURL, item.PolicyURL)
	operatingInst := firstNonEmpty(item.OperatingInst, item.OperatingInstLegacy)

	summary := pipeJoin(item.SupportTarget, item.SupportContent, applyMethod)

	return db.NoticeRecord{
		PolicyNumber:           nullable(item.PolicyNo),
		Title:                  item.PolicyName,
		Category:               YouthPolicyCategory(item.MajorCategory, item.MiddleCategory, item.MinorCategory),
		Source:                 firstNonEmpty(item.OrgName, defaultYouthcenterFallback),
		OriginalURL:            nullable(originalURL),
		StartDate:              startDate,
		EndDate:                endDate,
		ContentSummary:         nullable(summary),
		Description:            nullable(item.Description),
		SupportContent:         nullable(item.SupportContent),
		AdditionalInfo:         nullable(item.AdditionalInfo),
		SupervisingInstitution: nullable(item.SupervisingInst),
		RegisteringInstitution: nullable(item.RegisteringInst),
		OperatingInstitution:   nullable(operatingInst),
		RegionalInstitution:    nullable(item.RegionalInst),
		ApplicationMethod:      nullable(applyMethod),
		ScreeningMethod:        nullable(item.ScreeningMethod),
		RequiredDocuments:      nullable(item.RequiredDocuments),
		ReferenceURL:           nullable(item.ReferenceURL),
	}
}
