package source

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrUnavailable marks transient transport or server-side failures.
	// Safe to retry on the next scheduled pass.
	ErrUnavailable = errors.New("source unavailable")

	// ErrRejected marks client errors (bad identifier, auth). Not retried
	// automatically; surfaces as a per-ticker skip.
	ErrRejected = errors.New("source rejected request")

	// ErrMalformedRecord marks a single listing entry that cannot be
	// normalized. Callers drop the record and keep the batch.
	ErrMalformedRecord = errors.New("malformed record")
)

// Adapter is the capability for one external filing source. Implementations
// own their request throttle; an empty result is not an error.
type Adapter interface {
	Name() string
	ListFilings(ctx context.Context, symbol, externalID string, limit int) ([]FilingRecord, error)
}

// FilingRecord is the normalized, not-yet-persisted output of an adapter
// fetch. Validation of mandatory fields happens at construction.
type FilingRecord struct {
	ExternalID string
	Symbol     string
	Type       string
	Title      string
	Date       time.Time
	URL        string
	Source     string
	Hash       string
}

// NewFilingRecord builds a record, substituting a title fallback derived from
// the filing type when the listing carries none. Missing mandatory fields
// return ErrMalformedRecord.
func NewFilingRecord(sourceName, symbol, externalID, filingType, title string, date time.Time, url, hash string) (FilingRecord, error) {
	externalID = strings.TrimSpace(externalID)
	filingType = strings.TrimSpace(filingType)
	if externalID == "" || filingType == "" || date.IsZero() {
		return FilingRecord{}, ErrMalformedRecord
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = filingType + " filing"
	}
	return FilingRecord{
		ExternalID: externalID,
		Symbol:     strings.ToUpper(strings.TrimSpace(symbol)),
		Type:       filingType,
		Title:      title,
		Date:       date.UTC().Truncate(24 * time.Hour),
		URL:        url,
		Source:     sourceName,
		Hash:       hash,
	}, nil
}
