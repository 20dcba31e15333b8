package ingest

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"dano.kr/youthscope/internal/db"
)

type memoryStore struct {
	nextID  int64
	notices map[int64]*db.ExistingNotice
	patches map[int64][]map[string]string

	inserted []db.NoticeRecord
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		nextID:  1,
		notices: map[int64]*db.ExistingNotice{},
		patches: map[int64][]map[string]string{},
	}
}

func (m *memoryStore) GetNoticeByNaturalKey(_ context.Context, policyNumber, originalURL *string) (*db.ExistingNotice, error) {
	for _, notice := range m.notices {
		if policyNumber != nil {
			if notice.PolicyNumber != nil && *notice.PolicyNumber == *policyNumber {
				return notice, nil
			}
			continue
		}
		if originalURL != nil && notice.PolicyNumber == nil &&
			notice.OriginalURL != nil && *notice.OriginalURL == *originalURL {
			return notice, nil
		}
	}
	return nil, db.ErrNoRows
}

func (m *memoryStore) InsertNotice(_ context.Context, rec db.NoticeRecord) (int64, error) {
	id := m.nextID
	m.nextID++
	m.notices[id] = &db.ExistingNotice{
		ID:                     id,
		PolicyNumber:           rec.PolicyNumber,
		Title:                  rec.Title,
		OriginalURL:            rec.OriginalURL,
		StartDate:              rec.StartDate,
		EndDate:                rec.EndDate,
		ContentSummary:         rec.ContentSummary,
		Description:            rec.Description,
		SupportContent:         rec.SupportContent,
		AdditionalInfo:         rec.AdditionalInfo,
		SupervisingInstitution: rec.SupervisingInstitution,
		RegisteringInstitution: rec.RegisteringInstitution,
		OperatingInstitution:   rec.OperatingInstitution,
		RegionalInstitution:    rec.RegionalInstitution,
		ApplicationMethod:      rec.ApplicationMethod,
		ScreeningMethod:        rec.ScreeningMethod,
		RequiredDocuments:      rec.RequiredDocuments,
		ReferenceURL:           rec.ReferenceURL,
	}
	m.inserted = append(m.inserted, rec)
	return id, nil
}

func (m *memoryStore) UpdateNoticeColumns(_ context.Context, id int64, patch map[string]string) error {
	notice, ok := m.notices[id]
	if !ok {
		return db.ErrNoRows
	}
	m.patches[id] = append(m.patches[id], patch)
	for column, value := range patch {
		v := value
		switch column {
		case "start_date":
			notice.StartDate = &v
		case "end_date":
			notice.EndDate = &v
		case "original_url":
			notice.OriginalURL = &v
		case "content_summary":
			notice.ContentSummary = &v
		case "description":
			notice.Description = &v
		case "application_method":
			notice.ApplicationMethod = &v
		}
	}
	return nil
}

func (m *memoryStore) ListBackfillCandidates(context.Context) ([]db.ExistingNotice, error) {
	var candidates []db.ExistingNotice
	for _, notice := range m.notices {
		if notice.PolicyNumber != nil && notice.StartDate == nil {
			candidates = append(candidates, *notice)
		}
	}
	return candidates, nil
}

func (m *memoryStore) FillInstitutionsBySource(context.Context, string, string) (int64, int64, error) {
	return 0, 0, nil
}

func strPtr(v string) *string { return &v }

func TestCollectSourceInsertsNewRecords(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	svc := NewService(store, zerolog.Nop())

	src := &fakeSource{
		pages: [][]db.NoticeRecord{{
			{PolicyNumber: strPtr("R2024-001"), Title: "청년 월세 지원", Category: "주거"},
			{OriginalURL: strPtr("https://apply.lh.or.kr/1"), Title: "행복주택 모집", Category: "주거"},
		}},
		total:    2,
		pageSize: 100,
	}

	result, err := svc.CollectSource(context.Background(), src, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Inserted != 2 || result.Duplicates != 0 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(store.notices) != 2 {
		t.Fatalf("expected 2 stored notices, got %d", len(store.notices))
	}
}

func TestCollectSourceSecondRunIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	svc := NewService(store, zerolog.Nop())

	src := &fakeSource{
		pages: [][]db.NoticeRecord{{
			{
				PolicyNumber:   strPtr("R2024-001"),
				Title:          "청년 월세 지원",
				Category:       "주거",
				StartDate:      strPtr("2025-01-01"),
				EndDate:        strPtr("2025-02-01"),
				ContentSummary: strPtr("월 20만원 지원"),
			},
		}},
		total:    1,
		pageSize: 100,
	}

	if _, err := svc.CollectSource(context.Background(), src, 0); err != nil {
		t.Fatalf("first run: %v", err)
	}

	result, err := svc.CollectSource(context.Background(), src, 0)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.Inserted != 0 || result.Updated != 0 {
		t.Fatalf("second run must not write, got %+v", result)
	}
	if result.Duplicates != 1 {
		t.Fatalf("expected 1 duplicate, got %+v", result)
	}
	if len(store.notices) != 1 {
		t.Fatalf("expected a single stored notice, got %d", len(store.notices))
	}
}

func TestCollectSourceBackfillsOnlyMissingColumns(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	id, _ := store.InsertNotice(context.Background(), db.NoticeRecord{
		PolicyNumber: strPtr("R2024-001"),
		Title:        "청년 월세 지원",
		Description:  strPtr("기존 설명"),
	})

	svc := NewService(store, zerolog.Nop())
	src := &fakeSource{
		pages: [][]db.NoticeRecord{{
			{
				PolicyNumber: strPtr("R2024-001"),
				Title:        "청년 월세 지원",
				StartDate:    strPtr("2025-01-01"),
				Description:  strPtr("새 설명"),
			},
		}},
		total:    1,
		pageSize: 100,
	}

	result, err := svc.CollectSource(context.Background(), src, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("expected one backfill update, got %+v", result)
	}

	notice := store.notices[id]
	if notice.StartDate == nil || *notice.StartDate != "2025-01-01" {
		t.Fatalf("start date should be filled, got %v", notice.StartDate)
	}
	if notice.Description == nil || *notice.Description != "기존 설명" {
		t.Fatalf("stored description must not be overwritten, got %v", notice.Description)
	}
}

func TestCollectSourceSkipsRecordsWithoutNaturalKey(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	svc := NewService(store, zerolog.Nop())

	src := &fakeSource{
		pages:    [][]db.NoticeRecord{{{Title: "키 없는 공고"}}},
		total:    1,
		pageSize: 100,
	}

	result, err := svc.CollectSource(context.Background(), src, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Failed != 1 || result.Inserted != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one recorded error, got %v", result.Errors)
	}
}

func TestReconcileYouthPoliciesRepairsDates(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	id, _ := store.InsertNotice(context.Background(), db.NoticeRecord{
		PolicyNumber:   strPtr("R2024-001"),
		Title:          "청년 월세 지원",
		ContentSummary: strPtr("월 20만원 지원"),
	})
	_, _ = store.InsertNotice(context.Background(), db.NoticeRecord{
		PolicyNumber: strPtr("R2024-999"),
		Title:        "스냅샷에 없는 공고",
	})

	svc := NewService(store, zerolog.Nop())
	src := &fakeSource{
		pages: [][]db.NoticeRecord{{
			{
				PolicyNumber:      strPtr("R2024-001"),
				Title:             "청년 월세 지원",
				StartDate:         strPtr("2025-01-01"),
				EndDate:           strPtr("2025-02-01"),
				OriginalURL:       strPtr("https://www.youthcenter.go.kr/1"),
				ApplicationMethod: strPtr("온라인 신청"),
			},
		}},
		total:    1,
		pageSize: 100,
	}

	result, err := svc.ReconcileYouthPolicies(context.Background(), src, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Scanned != 2 || result.Updated != 1 || result.Skipped != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	notice := store.notices[id]
	if notice.StartDate == nil || *notice.StartDate != "2025-01-01" {
		t.Fatalf("start date should be repaired, got %v", notice.StartDate)
	}
	if notice.ContentSummary == nil || *notice.ContentSummary != "월 20만원 지원 | 온라인 신청" {
		t.Fatalf("application method should be appended, got %v", notice.ContentSummary)
	}
}

func TestReconcilePatchDoesNotRepeatKnownMethod(t *testing.T) {
	t.Parallel()

	existing := &db.ExistingNotice{
		ID:             1,
		PolicyNumber:   strPtr("R2024-001"),
		ContentSummary: strPtr("지원 내용 | 온라인 신청"),
	}
	rec := db.NoticeRecord{
		PolicyNumber:      strPtr("R2024-001"),
		ApplicationMethod: strPtr("온라인 신청"),
	}

	patch := reconcilePatch(existing, rec)
	if _, ok := patch["content_summary"]; ok {
		t.Fatalf("summary already mentions the method, patch = %v", patch)
	}
}

func TestBackfillPatchIgnoresBlankCandidates(t *testing.T) {
	t.Parallel()

	existing := &db.ExistingNotice{ID: 1, Title: "공고"}
	rec := db.NoticeRecord{
		Title:       "공고",
		Description: strPtr("   "),
		StartDate:   strPtr("2025-01-01"),
	}

	patch := backfillPatch(existing, rec)
	if len(patch) != 1 {
		t.Fatalf("expected only the start date, got %v", patch)
	}
	if patch["start_date"] != "2025-01-01" {
		t.Fatalf("unexpected patch: %v", patch)
	}
}
