package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"dano.kr/youthscope/internal/db"
)

type stubStore struct {
	noticeTotal  int64
	notices      []db.NoticeListItem
	noticeDetail *db.NoticeDetail
	policyRef    *db.PolicyRef
	similarTotal int64
	similar      []db.NoticeListItem
	policies     []db.PolicyListItem

	lastFilter db.NoticeListFilter
	lastLimit  int
	lastOffset int
}

func (s *stubStore) CountNotices(_ context.Context, filter db.NoticeListFilter) (int64, error) {
	s.lastFilter = filter
	return s.noticeTotal, nil
}

func (s *stubStore) ListNotices(_ context.Context, filter db.NoticeListFilter) ([]db.NoticeListItem, error) {
	s.lastFilter = filter
	return s.notices, nil
}

func (s *stubStore) GetNoticeDetail(_ context.Context, id int64) (*db.NoticeDetail, error) {
	if s.noticeDetail == nil || s.noticeDetail.ID != id {
		return nil, db.ErrNoRows
	}
	return s.noticeDetail, nil
}

func (s *stubStore) GetPolicyRef(_ context.Context, id int64) (*db.PolicyRef, error) {
	if s.policyRef == nil || s.policyRef.ID != id {
		return nil, db.ErrNoRows
	}
	return s.policyRef, nil
}

func (s *stubStore) CountSimilarNotices(_ context.Context, _ string, _ float64) (int64, error) {
	return s.similarTotal, nil
}

func (s *stubStore) SearchSimilarNotices(_ context.Context, _ string, _ float64, limit, offset int) ([]db.NoticeListItem, error) {
	s.lastLimit = limit
	s.lastOffset = offset
	return s.similar, nil
}

func (s *stubStore) ListPolicies(context.Context) ([]db.PolicyListItem, error) {
	return s.policies, nil
}

func newTestServer(store Store) *Server {
	return NewServer(store, zerolog.Nop(), Options{SimilarityThreshold: 0.83})
}

func doRequest(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.buildEcho().ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return rec, body
}

func TestHandleNoticesPagination(t *testing.T) {
	t.Parallel()

	store := &stubStore{
		noticeTotal: 95,
		notices: []db.NoticeListItem{
			{ID: 1, Title: "청년 월세 지원"},
		},
	}
	s := newTestServer(store)

	rec, body := doRequest(t, s, "/api/v1/notices?page=2&limit=20")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	data := body["data"].(map[string]any)
	pagination := data["pagination"].(map[string]any)
	if pagination["page"].(float64) != 2 {
		t.Fatalf("unexpected page: %v", pagination["page"])
	}
	if pagination["totalCount"].(float64) != 95 {
		t.Fatalf("unexpected totalCount: %v", pagination["totalCount"])
	}
	if pagination["totalPages"].(float64) != 5 {
		t.Fatalf("unexpected totalPages: %v", pagination["totalPages"])
	}
	if store.lastFilter.Offset != 20 {
		t.Fatalf("unexpected offset: %d", store.lastFilter.Offset)
	}
}

func TestHandleNoticesClampsPagination(t *testing.T) {
	t.Parallel()

	store := &stubStore{noticeTotal: 300}
	s := newTestServer(store)

	rec, body := doRequest(t, s, "/api/v1/notices?limit=500")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	data := body["data"].(map[string]any)
	pagination := data["pagination"].(map[string]any)
	if pagination["limit"].(float64) != 100 {
		t.Fatalf("expected limit clamped to 100, got %v", pagination["limit"])
	}
	if store.lastFilter.Limit != 100 {
		t.Fatalf("unexpected filter limit: %d", store.lastFilter.Limit)
	}

	rec, body = doRequest(t, s, "/api/v1/notices?page=0&limit=-3")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	data = body["data"].(map[string]any)
	pagination = data["pagination"].(map[string]any)
	if pagination["page"].(float64) != 1 {
		t.Fatalf("expected page floored to 1, got %v", pagination["page"])
	}
	if pagination["limit"].(float64) != 1 {
		t.Fatalf("expected limit floored to 1, got %v", pagination["limit"])
	}
	if store.lastFilter.Offset != 0 {
		t.Fatalf("unexpected offset: %d", store.lastFilter.Offset)
	}
}

func TestHandleNoticesRejectsNonNumericLimit(t *testing.T) {
	t.Parallel()

	s := newTestServer(&stubStore{})

	rec, body := doRequest(t, s, "/api/v1/notices?limit=abc")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if body["status"] != "fail" {
		t.Fatalf("unexpected status field: %v", body["status"])
	}
}

func TestHandleNoticesPagePastEnd(t *testing.T) {
	t.Parallel()

	store := &stubStore{noticeTotal: 95}
	s := newTestServer(store)

	rec, body := doRequest(t, s, "/api/v1/notices?page=6&limit=20")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	data := body["data"].(map[string]any)
	items := data["items"].([]any)
	if len(items) != 0 {
		t.Fatalf("expected empty item list, got %d", len(items))
	}
	pagination := data["pagination"].(map[string]any)
	if pagination["page"].(float64) != 6 {
		t.Fatalf("unexpected page: %v", pagination["page"])
	}
	if pagination["totalPages"].(float64) != 5 {
		t.Fatalf("unexpected totalPages: %v", pagination["totalPages"])
	}
	if store.lastFilter.Offset != 100 {
		t.Fatalf("unexpected offset: %d", store.lastFilter.Offset)
	}
}

func TestHandleNoticesSimilaritySearch(t *testing.T) {
	t.Parallel()

	vector := "[0.1,0.2]"
	similarity := 0.91
	store := &stubStore{
		policyRef: &db.PolicyRef{
			ID:            7,
			Title:         "청년 주거 정책",
			VectorLiteral: &vector,
		},
		similarTotal: 1,
		similar: []db.NoticeListItem{
			{ID: 3, Title: "행복주택 모집", Similarity: &similarity},
		},
	}
	s := newTestServer(store)

	rec, body := doRequest(t, s, "/api/v1/notices?policyId=7")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	data := body["data"].(map[string]any)
	info := data["policyInfo"].(map[string]any)
	if info["searchType"] != "vector_similarity" {
		t.Fatalf("unexpected searchType: %v", info["searchType"])
	}
	items := data["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("unexpected item count: %d", len(items))
	}
	item := items[0].(map[string]any)
	if item["similarity"].(float64) != 0.91 {
		t.Fatalf("unexpected similarity: %v", item["similarity"])
	}
}

func TestHandleNoticesUnknownPolicy(t *testing.T) {
	t.Parallel()

	s := newTestServer(&stubStore{})

	rec, _ := doRequest(t, s, "/api/v1/notices?policyId=404")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestHandleNoticesPolicyWithoutVector(t *testing.T) {
	t.Parallel()

	store := &stubStore{
		policyRef: &db.PolicyRef{ID: 7, Title: "청년 주거 정책"},
	}
	s := newTestServer(store)

	rec, body := doRequest(t, s, "/api/v1/notices?policyId=7")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	data := body["data"].(map[string]any)
	if data["code"] != "vector_not_ready" {
		t.Fatalf("unexpected code: %v", data["code"])
	}
}

func TestHandleNoticeDetail(t *testing.T) {
	t.Parallel()

	category := "주거"
	store := &stubStore{
		noticeDetail: &db.NoticeDetail{ID: 11, Title: "청년 월세 지원", Category: &category},
	}
	s := newTestServer(store)

	rec, body := doRequest(t, s, "/api/v1/notices/11")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	data := body["data"].(map[string]any)
	if data["title"] != "청년 월세 지원" {
		t.Fatalf("unexpected title: %v", data["title"])
	}
	if data["category"] != "주거" {
		t.Fatalf("unexpected category: %v", data["category"])
	}
}

func TestHandleNoticeDetailErrors(t *testing.T) {
	t.Parallel()

	s := newTestServer(&stubStore{})

	if rec, _ := doRequest(t, s, "/api/v1/notices/abc"); rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status for bad id: %d", rec.Code)
	}
	if rec, _ := doRequest(t, s, "/api/v1/notices/9999"); rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status for missing notice: %d", rec.Code)
	}
}

func TestHandlePolicies(t *testing.T) {
	t.Parallel()

	target := "만 19~34세"
	store := &stubStore{
		policies: []db.PolicyListItem{
			{ID: 1, Title: "청년 주거 정책", TargetGroup: &target},
			{ID: 2, Title: "청년 창업 지원"},
		},
	}
	s := newTestServer(store)

	rec, body := doRequest(t, s, "/api/v1/policies")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	data := body["data"].(map[string]any)
	if data["total"].(float64) != 2 {
		t.Fatalf("unexpected total: %v", data["total"])
	}
	items := data["items"].([]any)
	if items[0].(map[string]any)["targetGroup"] != "만 19~34세" {
		t.Fatalf("unexpected targetGroup: %v", items[0])
	}
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(&stubStore{})

	rec, body := doRequest(t, s, "/api/v1/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	data := body["data"].(map[string]any)
	if data["service"] != "youthscope" {
		t.Fatalf("unexpected service: %v", data["service"])
	}
}
