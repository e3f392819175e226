package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Subject is a case-folded karma key. Build it with NormalizeSubject.
type Subject string

type KarmaRecord struct {
	Subject   Subject
	Score     int64
	UpdatedAt time.Time
}

type RankingOrder string

const (
	RankingTop    RankingOrder = "top"
	RankingBottom RankingOrder = "bottom"
)

func (o RankingOrder) Valid() bool {
	switch o {
	case RankingTop, RankingBottom:
		return true
	default:
		return false
	}
}

// NormalizeSubject trims surrounding whitespace and applies Unicode case
// folding, so "Widget", "WIDGET" and "widget" share one record.
func NormalizeSubject(raw string) (Subject, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidSubject
	}

	return Subject(cases.Fold().String(trimmed)), nil
}

// Apply returns a copy of the record with delta added to its score.
func (r KarmaRecord) Apply(delta int64, at time.Time) KarmaRecord {
	r.Score += delta
	r.UpdatedAt = at
	return r
}
