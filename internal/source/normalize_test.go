package source

import "testing"

func TestFormatDate(t *testing.T) {
	t.Parallel()

	if got := FormatDate("20250310"); got == nil || *got != "2025-03-10" {
		t.Fatalf("unexpected compact date result: %v", deref(got))
	}
	if got := FormatDate("2025-03-10"); got == nil || *got != "2025-03-10" {
		t.Fatalf("expected ISO passthrough, got %v", deref(got))
	}
	if got := FormatDate("abcdefgh"); got != nil {
		t.Fatalf("expected nil for non-numeric input, got %q", *got)
	}
	if got := FormatDate("202503"); got != nil {
		t.Fatalf("expected nil for short input, got %q", *got)
	}
	if got := FormatDate("  "); got != nil {
		t.Fatalf("expected nil for blank input, got %q", *got)
	}
}

func TestFormatDottedDate(t *testing.T) {
	t.Parallel()

	if got := FormatDottedDate("2025.07.25"); got == nil || *got != "2025-07-25" {
		t.Fatalf("unexpected dotted date result: %v", deref(got))
	}
	if got := FormatDottedDate("20250725"); got == nil || *got != "2025-07-25" {
		t.Fatalf("unexpected compact date result: %v", deref(got))
	}
	if got := FormatDottedDate("25.07.2025"); got != nil {
		t.Fatalf("expected nil for reversed dotted date, got %q", *got)
	}
}

func TestParseDateRange(t *testing.T) {
	t.Parallel()

	start, end := ParseDateRange("20250310 ~ 20250326")
	if start == nil || *start != "2025-03-10" {
		t.Fatalf("unexpected range start: %v", deref(start))
	}
	if end == nil || *end != "2025-03-26" {
		t.Fatalf("unexpected range end: %v", deref(end))
	}

	start, end = ParseDateRange("20250310~20250326")
	if start == nil || end == nil {
		t.Fatalf("expected compact separator to parse, got %v / %v", deref(start), deref(end))
	}

	start, end = ParseDateRange("20250310")
	if start == nil || end == nil || *start != *end {
		t.Fatalf("expected single date to fill both ends, got %v / %v", deref(start), deref(end))
	}

	start, end = ParseDateRange("abcdefgh")
	if start != nil || end != nil {
		t.Fatalf("expected nil/nil for malformed input, got %v / %v", deref(start), deref(end))
	}

	start, end = ParseDateRange("")
	if start != nil || end != nil {
		t.Fatalf("expected nil/nil for empty input, got %v / %v", deref(start), deref(end))
	}
}

func TestYouthPolicyCategory(t *testing.T) {
	t.Parallel()

	cases := []struct {
		major, middle, minor string
		want                 string
	}{
		{"주거분야", "", "", "주거"},
		{"복지문화", "월세지원", "", "주거"},
		{"일자리분야", "창업지원", "", "창업"},
		{"참여권리", "", "일자리 연계", "취업"},
		{"복지문화", "자금지원", "", "금융"},
		{"교육분야", "", "", "교육분야"},
		{"", "", "", "기타"},
	}

	for _, tc := range cases {
		if got := YouthPolicyCategory(tc.major, tc.middle, tc.minor); got != tc.want {
			t.Fatalf("YouthPolicyCategory(%q, %q, %q) = %q, want %q", tc.major, tc.middle, tc.minor, got, tc.want)
		}
	}
}

func TestLHNoticeCategory(t *testing.T) {
	t.Parallel()

	if got := LHNoticeCategory("임대주택", ""); got != "주거" {
		t.Fatalf("unexpected lease category: %q", got)
	}
	if got := LHNoticeCategory("토지", ""); got != "토지" {
		t.Fatalf("unexpected land category: %q", got)
	}
	if got := LHNoticeCategory("상가분양", ""); got != "창업" {
		t.Fatalf("unexpected retail category: %q", got)
	}
	if got := LHNoticeCategory("주거복지", ""); got != "주거" {
		t.Fatalf("unexpected welfare category: %q", got)
	}
	if got := LHNoticeCategory("기타", "기타"); got != "주거" {
		t.Fatalf("expected housing default, got %q", got)
	}
}

func TestPipeJoinSkipsEmptyParts(t *testing.T) {
	t.Parallel()

	if got := pipeJoin("임대주택", "", "서울"); got != "임대주택 | 서울" {
		t.Fatalf("unexpected joined summary: %q", got)
	}
	if got := pipeJoin("", " ", ""); got != "" {
		t.Fatalf("expected empty join, got %q", got)
	}
}

func deref(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}
