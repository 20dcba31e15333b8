package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestYouthcenterFetchPageNormalizesRecords(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("pageNum"); got != "1" {
			t.Errorf("unexpected pageNum: %q", got)
		}
		if got := r.URL.Query().Get("rtnType"); got != "json" {
			t.Errorf("unexpected rtnType: %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"resultCode": 200,
			"result": {
				"pagging": {"totalCount": 2},
				"youthPolicyList": [
					{
						"plcyNo": "R2024-001",
						"plcyNm": "청년 월세 지원",
						"lclsfNm": "주거분야",
						"mclsfNm": "주거비지원",
						"plcySprtCn": "월 20만원 지원",
						"orgNm": "국토교통부",
						"aplyYmd": "20250310 ~ 20250326",
						"plcyUrl": "https://example.com/policy",
						"aplyUrlAddr": "https://example.com/apply",
						"plcySprttgCn": "만 19-34세",
						"aplyMthCn": "방문 신청",
						"plcyAplyMthdCn": "온라인 신청"
					},
					{
						"plcyNo": "R2024-002",
						"plcyNm": "창업 지원금",
						"lclsfNm": "일자리분야",
						"mclsfNm": "창업지원",
						"aplyBgnYmd": "20250401",
						"aplyEndYmd": "20250430"
					}
				]
			}
		}`))
	}))
	defer server.Close()

	src := NewYouthcenter("test-key", WithYouthcenterBaseURL(server.URL), WithYouthcenterHTTPClient(server.Client()))

	records, total, err := src.FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Fatalf("unexpected total count: %d", total)
	}
	if len(records) != 2 {
		t.Fatalf("unexpected record count: %d", len(records))
	}

	first := records[0]
	if first.PolicyNumber == nil || *first.PolicyNumber != "R2024-001" {
		t.Fatalf("unexpected policy number: %v", first.PolicyNumber)
	}
	if first.Category != "주거" {
		t.Fatalf("unexpected category: %q", first.Category)
	}
	if first.StartDate == nil || *first.StartDate != "2025-03-10" {
		t.Fatalf("unexpected start date: %v", first.StartDate)
	}
	if first.EndDate == nil || *first.EndDate != "2025-03-26" {
		t.Fatalf("unexpected end date: %v", first.EndDate)
	}
	if first.OriginalURL == nil || *first.OriginalURL != "https://example.com/apply" {
		t.Fatalf("expected apply URL to win, got %v", first.OriginalURL)
	}
	if first.ApplicationMethod == nil || *first.ApplicationMethod != "온라인 신청" {
		t.Fatalf("expected modern apply method to win, got %v", first.ApplicationMethod)
	}
	if first.ContentSummary == nil || *first.ContentSummary != "만 19-34세 | 월 20만원 지원 | 온라인 신청" {
		t.Fatalf("unexpected content summary: %v", first.ContentSummary)
	}

	second := records[1]
	if second.StartDate == nil || *second.StartDate != "2025-04-01" {
		t.Fatalf("unexpected fallback start date: %v", second.StartDate)
	}
	if second.Category != "창업" {
		t.Fatalf("unexpected second category: %q", second.Category)
	}
}

func TestYouthcenterFetchPageErrorResultCode(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resultCode": 401, "resultMessage": "invalid api key"}`))
	}))
	defer server.Close()

	src := NewYouthcenter("bad-key", WithYouthcenterBaseURL(server.URL), WithYouthcenterHTTPClient(server.Client()))

	_, _, err := src.FetchPage(context.Background(), 1)
	if err == nil {
		t.Fatalf("expected error for non-200 resultCode")
	}

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %T: %v", err, err)
	}
	if upstream.Page != 1 {
		t.Fatalf("unexpected page in error: %d", upstream.Page)
	}
}

func TestYouthcenterFetchPageHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	src := NewYouthcenter("key", WithYouthcenterBaseURL(server.URL), WithYouthcenterHTTPClient(server.Client()))

	_, _, err := src.FetchPage(context.Background(), 3)
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
}
