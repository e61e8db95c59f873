package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"deal-qualifier/internal/assess"
	"deal-qualifier/internal/kv"
)

const (
	// Deal ids never contain the key separator.
	dealIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	dealIDLength   = 12

	DefaultPageSize = 100
)

// KVStore implements Store over three kv namespaces:
//
//	deals        userID:dealID        -> Deal
//	assessments  userID:dealID:ts     -> AssessmentRecord
//	usage        YYYY-MM              -> decimal counter
type KVStore struct {
	deals       kv.Store
	assessments kv.Store
	usage       kv.Store
	pageSize    int
	now         func() time.Time
}

func NewKVStore(stores kv.Stores, pageSize int) *KVStore {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &KVStore{
		deals:       stores.Deals,
		assessments: stores.Assessments,
		usage:       stores.Usage,
		pageSize:    pageSize,
		now:         time.Now,
	}
}

func dealKey(userID, dealID string) string {
	return userID + ":" + dealID
}

func assessmentKey(userID, dealID string, id int64) string {
	return dealKey(userID, dealID) + ":" + strconv.FormatInt(id, 10)
}

func (s *KVStore) CreateDeal(ctx context.Context, userID string, in DealInput) (Deal, error) {
	id, err := gonanoid.Generate(dealIDAlphabet, dealIDLength)
	if err != nil {
		return Deal{}, fmt.Errorf("generate deal id: %w", err)
	}
	now := s.now().UnixMilli()
	d := Deal{
		UserID:    userID,
		DealID:    id,
		Account:   strings.TrimSpace(in.Account),
		Title:     strings.TrimSpace(in.Title),
		Value:     in.Value,
		Stage:     strings.TrimSpace(in.Stage),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.putJSON(ctx, s.deals, dealKey(userID, id), d); err != nil {
		return Deal{}, fmt.Errorf("save deal: %w", err)
	}
	return d, nil
}

func (s *KVStore) GetDeal(ctx context.Context, userID, dealID string) (Deal, error) {
	var d Deal
	if err := s.getJSON(ctx, s.deals, dealKey(userID, dealID), &d); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return Deal{}, ErrDealNotFound
		}
		return Deal{}, fmt.Errorf("get deal: %w", err)
	}
	return d, nil
}

func (s *KVStore) ListDeals(ctx context.Context, userID string) ([]Deal, error) {
	keys, err := s.listAll(ctx, s.deals, userID+":")
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	deals := make([]Deal, 0, len(keys))
	for _, k := range keys {
		var d Deal
		if err := s.getJSON(ctx, s.deals, k, &d); err != nil {
			if errors.Is(err, kv.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load deal %s: %w", k, err)
		}
		deals = append(deals, d)
	}
	sort.SliceStable(deals, func(i, j int) bool {
		if deals[i].UpdatedAt != deals[j].UpdatedAt {
			return deals[i].UpdatedAt > deals[j].UpdatedAt
		}
		return deals[i].DealID < deals[j].DealID
	})
	return deals, nil
}

func (s *KVStore) RecordAssessment(ctx context.Context, userID, dealID string, outcome assess.Outcome, payload assess.Payload) (int64, error) {
	d, err := s.GetDeal(ctx, userID, dealID)
	if err != nil {
		return 0, err
	}

	ts := s.now().UnixMilli()
	rec := AssessmentRecord{
		ID:        ts,
		UserID:    userID,
		DealID:    dealID,
		Result:    outcome.Result,
		Source:    outcome.Source,
		Reason:    outcome.Reason,
		CreatedAt: ts,
		Payload:   payload,
	}
	if err := s.putJSON(ctx, s.assessments, assessmentKey(userID, dealID, ts), rec); err != nil {
		return 0, fmt.Errorf("save assessment: %w", err)
	}

	// Concurrent assessments of one deal race here; the last write wins.
	d.LastAssessmentID = ts
	d.LastTier = outcome.Result.Tier
	d.LastScore = outcome.Result.Score
	d.UpdatedAt = ts
	if err := s.putJSON(ctx, s.deals, dealKey(userID, dealID), d); err != nil {
		return 0, fmt.Errorf("update deal summary: %w", err)
	}
	return ts, nil
}

func (s *KVStore) GetAssessment(ctx context.Context, userID, dealID string, id int64) (AssessmentRecord, error) {
	var rec AssessmentRecord
	if err := s.getJSON(ctx, s.assessments, assessmentKey(userID, dealID, id), &rec); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return AssessmentRecord{}, ErrAssessmentNotFound
		}
		return AssessmentRecord{}, fmt.Errorf("get assessment: %w", err)
	}
	return rec, nil
}

func (s *KVStore) ListAssessments(ctx context.Context, userID, dealID string) ([]AssessmentRecord, error) {
	keys, err := s.listAll(ctx, s.assessments, dealKey(userID, dealID)+":")
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	recs := make([]AssessmentRecord, 0, len(keys))
	for _, k := range keys {
		var rec AssessmentRecord
		if err := s.getJSON(ctx, s.assessments, k, &rec); err != nil {
			if errors.Is(err, kv.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load assessment %s: %w", k, err)
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt > recs[j].CreatedAt })
	return recs, nil
}

// IncrementUsage bumps the counter for the month containing now. Backends
// implementing kv.Counter increment atomically; others fall back to
// read-increment-write, which can lose updates under concurrency.
func (s *KVStore) IncrementUsage(ctx context.Context, now time.Time) (int64, error) {
	key := UsagePeriod(now)
	if c, ok := s.usage.(kv.Counter); ok {
		n, err := c.Incr(ctx, key)
		if err != nil {
			return 0, fmt.Errorf("increment usage: %w", err)
		}
		return n, nil
	}

	n, err := s.Usage(ctx, now)
	if err != nil {
		return 0, err
	}
	n++
	if err := s.usage.Put(ctx, key, []byte(strconv.FormatInt(n, 10)), 0); err != nil {
		return 0, fmt.Errorf("increment usage: %w", err)
	}
	return n, nil
}

func (s *KVStore) Usage(ctx context.Context, now time.Time) (int64, error) {
	raw, err := s.usage.Get(ctx, UsagePeriod(now))
	if errors.Is(err, kv.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read usage: %w", err)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse usage counter %q: %w", raw, err)
	}
	return n, nil
}

// listAll drains a prefix listing. Backends may repeat keys across pages,
// so keys are de-duplicated; the result is in first-seen order.
func (s *KVStore) listAll(ctx context.Context, store kv.Store, prefix string) ([]string, error) {
	seen := make(map[string]struct{})
	var keys []string
	cursor := ""
	for {
		page, err := store.List(ctx, prefix, cursor, s.pageSize)
		if err != nil {
			return nil, err
		}
		for _, k := range page.Keys {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
		if page.Cursor == "" {
			return keys, nil
		}
		cursor = page.Cursor
	}
}

func (s *KVStore) getJSON(ctx context.Context, store kv.Store, key string, v any) error {
	raw, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func (s *KVStore) putJSON(ctx context.Context, store kv.Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return store.Put(ctx, key, raw, 0)
}
