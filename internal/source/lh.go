package source

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"dano.kr/youthscope/internal/db"
)

const (
	LHSourceName       = "lh"
	DefaultLHBaseURL   = "http://apis.data.go.kr/B552555/lhLeaseNoticeInfo1/lhLeaseNoticeInfo1"
	LHInstitutionName  = "한국토지주택공사"
	lhNoticePageSize   = 100
	lhNoticePageDelay  = time.Second
	lhNoticeMaxSnippet = 500
)

// LHNotices fetches lease notices from the LH open-data API.
type LHNotices struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type LHOption func(*LHNotices)

func WithLHBaseURL(baseURL string) LHOption {
	return func(s *LHNotices) { s.baseURL = baseURL }
}

func WithLHHTTPClient(client *http.Client) LHOption {
	return func(s *LHNotices) { s.httpClient = client }
}

func NewLHNotices(apiKey string, opts ...LHOption) *LHNotices {
	s := &LHNotices{
		apiKey:     apiKey,
		baseURL:    DefaultLHBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LHNotices) Name() string                { return LHSourceName }
func (s *LHNotices) PageSize() int               { return lhNoticePageSize }
func (s *LHNotices) PageInterval() time.Duration { return lhNoticePageDelay }

type lhNoticeItem struct {
	NoticeName    string      `json:"PAN_NM"`
	DetailURL     string      `json:"DTL_URL"`
	NoticeID      string      `json:"PAN_ID"`
	UpperTypeName string      `json:"UPP_AIS_TP_NM"`
	TypeName      string      `json:"AIS_TP_CD_NM"`
	RegionName    string      `json:"CNP_CD_NM"`
	NoticeStatus  string      `json:"PAN_SS"`
	PostStartDate string      `json:"PAN_NT_ST_DT"`
	ClosingDate   string      `json:"CLSG_DT"`
	AllCount      json.Number `json:"ALL_CNT"`
}

type lhPageBody struct {
	DsList    []lhNoticeItem `json:"dsList"`
	ResHeader []struct {
		SSCode string `json:"SS_CODE"`
	} `json:"resHeader"`
}

func (s *LHNotices) FetchPage(ctx context.Context, page int) ([]db.NoticeRecord, int, error) {
	endpoint, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, 0, upstreamErrorf(s.Name(), page, "parse base URL: %w", err)
	}

	// Keys arrive URL-encoded from the portal; the API wants them raw.
	serviceKey := s.apiKey
	if decoded, decodeErr := url.QueryUnescape(serviceKey); decodeErr == nil {
		serviceKey = decoded
	}

	query := endpoint.Query()
	query.Set("serviceKey", serviceKey)
	query.Set("PG_SZ", strconv.Itoa(lhNoticePageSize))
	query.Set("PAGE", strconv.Itoa(page))
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

	// Quota and key errors come back as XML with HTTP 200.
	text := string(body)
	if strings.Contains(text, "<?xml") || strings.Contains(text, "<OpenAPI_ServiceResponse>") {
		return nil, 0, upstreamErrorf(s.Name(), page, "unexpected XML response: %s", truncate(text, lhNoticeMaxSnippet))
	}

	// The body is a two-element array; the second element carries the data.
	var envelope []json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, 0, upstreamErrorf(s.Name(), page, "decode response: %w", err)
	}
	if len(envelope) < 2 {
		return nil, 0, upstreamErrorf(s.Name(), page, "unexpected response shape: %d elements", len(envelope))
	}

	var parsed lhPageBody
	if err := json.Unmarshal(envelope[1], &parsed); err != nil {
		return nil, 0, upstreamErrorf(s.Name(), page, "decode page body: %w", err)
	}

	if len(parsed.ResHeader) == 0 || parsed.ResHeader[0].SSCode != "Y" {
		code := ""
		if len(parsed.ResHeader) > 0 {
			code = parsed.ResHeader[0].SSCode
		}
		return nil, 0, upstreamErrorf(s.Name(), page, "SS_CODE %q", code)
	}

	totalCount := 0
	if len(parsed.DsList) > 0 {
		if count, countErr := parsed.DsList[0].AllCount.Int64(); countErr == nil {
			totalCount = int(count)
		}
	}

	records := make([]db.NoticeRecord, 0, len(parsed.DsList))
	for _, item := range parsed.DsList {
		records = append(records, normalizeLHNotice(item))
	}
	return records, totalCount, nil
}

func normalizeLHNotice(item lhNoticeItem) db.NoticeRecord {
	institution := LHInstitutionName
	return db.NoticeRecord{
		Title:                  item.NoticeName,
		Category:               LHNoticeCategory(item.UpperTypeName, item.TypeName),
		Source:                 LHInstitutionName,
		OriginalURL:            nullable(item.DetailURL),
		StartDate:              FormatDottedDate(item.PostStartDate),
		EndDate:                FormatDottedDate(item.ClosingDate),
		ContentSummary:         nullable(pipeJoin(item.TypeName, item.RegionName, item.NoticeStatus)),
		SupervisingInstitution: &institution,
		RegisteringInstitution: &institution,
		OperatingInstitution:   &institution,
	}
}

// truncate shortens error snippets on a rune boundary so multibyte text is
// never cut mid-character.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
