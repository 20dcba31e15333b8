package source

import (
	"context"
	"fmt"
	"time"

	"dano.kr/youthscope/internal/db"
)

// Source is one upstream notice feed. FetchPage returns the canonical
// records of one page together with the feed's reported total count, so the
// crawler can decide when to stop. Implementations do all wire-format
// mapping themselves; callers never see upstream field names.
type Source interface {
	Name() string
	PageSize() int
	PageInterval() time.Duration
	FetchPage(ctx context.Context, page int) (records []db.NoticeRecord, totalCount int, err error)
}

// UpstreamError reports a failed page fetch: transport failures, non-2xx
// statuses, and in-band error envelopes (an error resultCode on HTTP 200, an
// XML quota response where JSON was expected).
type UpstreamError struct {
	Source string
	Page   int
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s page %d: %v", e.Source, e.Page, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func upstreamErrorf(source string, page int, format string, args ...any) error {
	return &UpstreamError{Source: source, Page: page, Err: fmt.Errorf(format, args...)}
}
