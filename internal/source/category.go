package source

import "strings"

// Category labels shared by all sources.
const (
	CategoryHousing = "주거"
	CategoryStartup = "창업"
	CategoryJobs    = "취업"
	CategoryFinance = "금융"
	CategoryLand    = "토지"
	CategoryOther   = "기타"
)

// YouthPolicyCategory maps a policy's classification labels onto the fixed
// category set, scanning major, middle and minor labels together. Unmatched
// policies fall back to the major label.
func YouthPolicyCategory(major, middle, minor string) string {
	joined := firstNonEmpty(major) + " " + firstNonEmpty(middle) + " " + firstNonEmpty(minor)

	switch {
	case containsAny(joined, "주거", "임대", "월세"):
		return CategoryHousing
	case containsAny(joined, "창업", "사업", "기업"):
		return CategoryStartup
	case containsAny(joined, "취업", "일자리", "고용"):
		return CategoryJobs
	case containsAny(joined, "금융", "대출", "자금"):
		return CategoryFinance
	}

	if trimmed := strings.TrimSpace(major); trimmed != "" {
		return trimmed
	}
	return CategoryOther
}

// LHNoticeCategory maps an LH notice's business-type labels onto the fixed
// category set. Lease notices default to housing.
func LHNoticeCategory(upperType, businessType string) string {
	joined := upperType + " " + businessType

	switch {
	case containsAny(joined, "임대"):
		return CategoryHousing
	case containsAny(joined, "토지"):
		return CategoryLand
	case containsAny(joined, "상가"):
		return CategoryStartup
	case strings.Contains(upperType, "주거복지") || strings.Contains(businessType, "복지"):
		return CategoryHousing
	}
	return CategoryHousing
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
