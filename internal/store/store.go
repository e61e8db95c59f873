// Package store persists deals, their assessment history and the monthly
// usage counter on top of the kv contract.
package store

import (
	"context"
	"errors"
	"time"

	"deal-qualifier/internal/assess"
)

var (
	ErrDealNotFound       = errors.New("deal not found")
	ErrAssessmentNotFound = errors.New("assessment not found")
)

// Deal is a tracked sales opportunity. Timestamps are Unix milliseconds.
// The Last* fields summarize the most recent assessment.
type Deal struct {
	UserID           string      `json:"userId"`
	DealID           string      `json:"dealId"`
	Account          string      `json:"account"`
	Title            string      `json:"title"`
	Value            float64     `json:"value"`
	Stage            string      `json:"stage,omitempty"`
	LastAssessmentID int64       `json:"lastAssessmentId,omitempty"`
	LastTier         assess.Tier `json:"lastTier,omitempty"`
	LastScore        int         `json:"lastScore,omitempty"`
	CreatedAt        int64       `json:"createdAt"`
	UpdatedAt        int64       `json:"updatedAt"`
}

// Assessed reports whether the deal has at least one assessment.
func (d Deal) Assessed() bool {
	return d.LastAssessmentID != 0
}

// Snapshot is the part of the deal copied into an assessment payload.
func (d Deal) Snapshot() assess.DealSnapshot {
	return assess.DealSnapshot{Account: d.Account, Title: d.Title, Value: d.Value, Stage: d.Stage}
}

// DealInput carries the user-editable fields of a new deal.
type DealInput struct {
	Account string
	Title   string
	Value   float64
	Stage   string
}

// AssessmentRecord is one immutable entry in a deal's history. ID equals CreatedAt.
type AssessmentRecord struct {
	ID        int64          `json:"id"`
	UserID    string         `json:"userId"`
	DealID    string         `json:"dealId"`
	Result    assess.Result  `json:"result"`
	Source    assess.Source  `json:"source"`
	Reason    string         `json:"reason,omitempty"`
	CreatedAt int64          `json:"createdAt"`
	Payload   assess.Payload `json:"payload"`
}

// Store defines the persistence contract used by the web handlers.
type Store interface {
	CreateDeal(ctx context.Context, userID string, in DealInput) (Deal, error)
	GetDeal(ctx context.Context, userID, dealID string) (Deal, error)
	// ListDeals returns every deal of the user, most recently updated first.
	ListDeals(ctx context.Context, userID string) ([]Deal, error)
	// RecordAssessment appends an assessment and updates the deal summary.
	// It returns the assessment id (its creation time in Unix milliseconds).
	RecordAssessment(ctx context.Context, userID, dealID string, outcome assess.Outcome, payload assess.Payload) (int64, error)
	GetAssessment(ctx context.Context, userID, dealID string, id int64) (AssessmentRecord, error)
	// ListAssessments returns the deal's history, newest first.
	ListAssessments(ctx context.Context, userID, dealID string) ([]AssessmentRecord, error)
	IncrementUsage(ctx context.Context, now time.Time) (int64, error)
	Usage(ctx context.Context, now time.Time) (int64, error)
}

// UsagePeriod is the monthly usage bucket for t.
func UsagePeriod(t time.Time) string {
	return t.UTC().Format("2006-01")
}
