package view

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deal-qualifier/internal/assess"
	"deal-qualifier/internal/store"
)

func TestRenderPages(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	deal := store.Deal{
		UserID: "u1", DealID: "abc123", Account: "Acme <script>", Title: "Renewal", Value: 1500,
		LastAssessmentID: 1700000000000, LastTier: assess.TierStrong, LastScore: 84, UpdatedAt: 1700000000000,
	}
	record := store.AssessmentRecord{
		ID: 1700000000000, DealID: "abc123", CreatedAt: 1700000000000,
		Result:  assess.Result{Tier: assess.TierStrong, Decision: assess.DecisionGo, Score: 84, Analysis: "Solid."},
		Source:  assess.SourceFallback,
		Reason:  "http_status",
		Payload: assess.Payload{Deal: deal.Snapshot(), Scores: assess.ScoreSet{assess.DimChampion: 5}, Notes: "CFO in."},
	}

	tests := []struct {
		page     string
		data     any
		contains []string
	}{
		{PageLogin, LoginPage{}, []string{`action="/dev-login"`}},
		{PageDeals, DealsPage{Email: "jane@example.com", Deals: []store.Deal{deal}, Usage: 7, Period: "2023-11"}, []string{
			"jane@example.com", `href="/deal/abc123"`, "Acme &lt;script&gt;", "1500.00", "tier-strong", "7 assessments",
		}},
		{PageDeals, DealsPage{Email: "jane@example.com"}, []string{"No deals yet."}},
		{PageDeal, DealPage{Email: "jane@example.com", Deal: deal, Assessments: []store.AssessmentRecord{record}, Dimensions: assess.Dimensions}, []string{
			`name="dealId" value="abc123"`, `name="economic_buyer"`, "Economic buyer", `href="/assessment/abc123/1700000000000"`, "2023-11-14 22:13 UTC",
		}},
		{PageAssessment, AssessmentPage{Email: "jane@example.com", Record: record}, []string{
			"84/100", "Solid.", "fallback (http_status)", "Champion", "CFO in.",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.page, func(t *testing.T) {
			rec := httptest.NewRecorder()
			require.NoError(t, r.Render(rec, http.StatusOK, tt.page, tt.data))
			assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
			for _, s := range tt.contains {
				assert.Contains(t, rec.Body.String(), s)
			}
		})
	}
}

func TestLoginPageHasNoSignOut(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	require.NoError(t, r.Render(rec, http.StatusOK, PageLogin, LoginPage{}))
	assert.NotContains(t, rec.Body.String(), `action="/logout"`)
}

func TestRenderUnknownPage(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	assert.Error(t, r.Render(httptest.NewRecorder(), http.StatusOK, "missing", nil))
}
