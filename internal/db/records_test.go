package db

import "testing"

func TestNaturalKeyPrefersPolicyNumber(t *testing.T) {
	t.Parallel()

	number := "R2024-001"
	url := "https://apply.lh.or.kr/notice/1001"
	rec := NoticeRecord{PolicyNumber: &number, OriginalURL: &url}

	policyNumber, originalURL := rec.NaturalKey()
	if policyNumber == nil || *policyNumber != number {
		t.Fatalf("expected policy number key, got %v", policyNumber)
	}
	if originalURL != nil {
		t.Fatalf("URL must not be part of the key when a policy number exists, got %v", originalURL)
	}
}

func TestNaturalKeyFallsBackToURL(t *testing.T) {
	t.Parallel()

	blank := "   "
	url := "https://apply.lh.or.kr/notice/1001"
	rec := NoticeRecord{PolicyNumber: &blank, OriginalURL: &url}

	policyNumber, originalURL := rec.NaturalKey()
	if policyNumber != nil {
		t.Fatalf("blank policy number must not form a key, got %v", policyNumber)
	}
	if originalURL == nil || *originalURL != url {
		t.Fatalf("expected URL key, got %v", originalURL)
	}
}

func TestNaturalKeyMissing(t *testing.T) {
	t.Parallel()

	rec := NoticeRecord{Title: "키 없는 공고"}

	policyNumber, originalURL := rec.NaturalKey()
	if policyNumber != nil || originalURL != nil {
		t.Fatalf("expected no key, got %v / %v", policyNumber, originalURL)
	}
}
