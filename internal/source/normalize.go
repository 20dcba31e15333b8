package source

import (
	"regexp"
	"strings"
)

var (
	compactDatePattern = regexp.MustCompile(`^\d{8}$`)
	isoDatePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dottedDatePattern  = regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}$`)
	dateRangePattern   = regexp.MustCompile(`^(\d{8})\s*~\s*(\d{8})$`)
)

// FormatDate normalizes a compact YYYYMMDD date to ISO YYYY-MM-DD. ISO input
// passes through; anything else is nil, never an error.
func FormatDate(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if compactDatePattern.MatchString(trimmed) {
		formatted := trimmed[0:4] + "-" + trimmed[4:6] + "-" + trimmed[6:8]
		return &formatted
	}
	if isoDatePattern.MatchString(trimmed) {
		return &trimmed
	}
	return nil
}

// FormatDottedDate additionally accepts the YYYY.MM.DD form some feeds use.
func FormatDottedDate(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if dottedDatePattern.MatchString(trimmed) {
		formatted := strings.ReplaceAll(trimmed, ".", "-")
		return &formatted
	}
	return FormatDate(trimmed)
}

// ParseDateRange parses an application period such as "20250310 ~ 20250326".
// A bare YYYYMMDD counts as a one-day period. Malformed input yields nil/nil.
func ParseDateRange(raw string) (startDate, endDate *string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	if m := dateRangePattern.FindStringSubmatch(trimmed); m != nil {
		return FormatDate(m[1]), FormatDate(m[2])
	}
	if compactDatePattern.MatchString(trimmed) {
		formatted := FormatDate(trimmed)
		return formatted, formatted
	}
	return nil, nil
}

func nullable(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func pipeJoin(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, strings.TrimSpace(part))
		}
	}
	return strings.Join(kept, " | ")
}
