package db

import "strings"

// NoticeRecord is the canonical, source-independent form of one upstream
// notice. Every upstream client maps its wire schema into this shape before
// the writer sees it. Dates are ISO YYYY-MM-DD strings or nil.
type NoticeRecord struct {
	PolicyNumber           *string
	Title                  string
	Category               string
	Source                 string
	OriginalURL            *string
	StartDate              *string
	EndDate                *string
	ContentSummary         *string
	Description            *string
	SupportContent         *string
	AdditionalInfo         *string
	SupervisingInstitution *string
	RegisteringInstitution *string
	OperatingInstitution   *string
	RegionalInstitution    *string
	ApplicationMethod      *string
	ScreeningMethod        *string
	RequiredDocuments      *string
	ReferenceURL           *string
}

// NaturalKey returns the identity used for deduplication: the upstream policy
// number when present, otherwise the original URL.
func (r NoticeRecord) NaturalKey() (policyNumber, originalURL *string) {
	if r.PolicyNumber != nil && strings.TrimSpace(*r.PolicyNumber) != "" {
		return r.PolicyNumber, nil
	}
	if r.OriginalURL != nil && strings.TrimSpace(*r.OriginalURL) != "" {
		return nil, r.OriginalURL
	}
	return nil, nil
}

// ExistingNotice is the stored nullable state of a notice row, as much of it
// as backfill decisions need.
type ExistingNotice struct {
	ID                     int64
	Title                  string
	PolicyNumber           *string
	OriginalURL            *string
	StartDate              *string
	EndDate                *string
	ContentSummary         *string
	Description            *string
	SupportContent         *string
	AdditionalInfo         *string
	SupervisingInstitution *string
	RegisteringInstitution *string
	OperatingInstitution   *string
	RegionalInstitution    *string
	ApplicationMethod      *string
	ScreeningMethod        *string
	RequiredDocuments      *string
	ReferenceURL           *string
}
