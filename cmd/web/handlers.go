package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"deal-qualifier/internal/app"
	"deal-qualifier/internal/assess"
	"deal-qualifier/internal/httputil"
	"deal-qualifier/internal/metrics"
	"deal-qualifier/internal/session"
	"deal-qualifier/internal/store"
	"deal-qualifier/internal/view"
)

type loginForm struct {
	Email string `form:"email" validate:"required,email,max=254"`
}

type dealForm struct {
	Account string  `form:"account" validate:"required,max=200"`
	Title   string  `form:"title" validate:"required,max=200"`
	Value   float64 `form:"value" validate:"gte=0,lte=1e15"`
	Stage   string  `form:"stage" validate:"max=100"`
}

// assessForm carries the eight MEDDPICC ratings; unrated dimensions stay nil.
type assessForm struct {
	DealID           string `form:"dealId" validate:"required,max=64"`
	Metrics          *int   `form:"metrics" validate:"omitempty,min=1,max=5"`
	EconomicBuyer    *int   `form:"economic_buyer" validate:"omitempty,min=1,max=5"`
	DecisionCriteria *int   `form:"decision_criteria" validate:"omitempty,min=1,max=5"`
	DecisionProcess  *int   `form:"decision_process" validate:"omitempty,min=1,max=5"`
	PaperProcess     *int   `form:"paper_process" validate:"omitempty,min=1,max=5"`
	IdentifyPain     *int   `form:"identify_pain" validate:"omitempty,min=1,max=5"`
	Champion         *int   `form:"champion" validate:"omitempty,min=1,max=5"`
	Competition      *int   `form:"competition" validate:"omitempty,min=1,max=5"`
	Notes            string `form:"notes" validate:"max=4000"`
}

func (f assessForm) scores() assess.ScoreSet {
	s := assess.ScoreSet{}
	for dim, v := range map[string]*int{
		assess.DimMetrics:          f.Metrics,
		assess.DimEconomicBuyer:    f.EconomicBuyer,
		assess.DimDecisionCriteria: f.DecisionCriteria,
		assess.DimDecisionProcess:  f.DecisionProcess,
		assess.DimPaperProcess:     f.PaperProcess,
		assess.DimIdentifyPain:     f.IdentifyPain,
		assess.DimChampion:         f.Champion,
		assess.DimCompetition:      f.Competition,
	} {
		if v != nil {
			s[dim] = *v
		}
	}
	return s
}

// current returns the session attached by RequireSession.
func current(r *http.Request) session.Session {
	s, _ := session.FromContext(r.Context())
	return s
}

func render(deps app.Deps, w http.ResponseWriter, page string, data any) {
	if err := deps.Views.Render(w, http.StatusOK, page, data); err != nil {
		httputil.Fail(deps.Log, w, "failed to render page", err, http.StatusInternalServerError)
	}
}

func loginPageHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.FromContext(r.Context()); ok {
			http.Redirect(w, r, "/deals", http.StatusSeeOther)
			return
		}
		render(deps, w, view.PageLogin, view.LoginPage{})
	}
}

func devLoginHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form loginForm
		if err := httputil.DecodeForm(r, &form); err != nil {
			httputil.Fail(deps.Log, w, "invalid form", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&form); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		s, err := deps.Sessions.Login(r.Context(), w, form.Email)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to sign in", err, http.StatusInternalServerError)
			return
		}
		deps.Log.Info("signed in", "subject_id", s.SubjectID)
		http.Redirect(w, r, "/deals", http.StatusSeeOther)
	}
}

func logoutHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Sessions.Logout(r.Context(), w, r); err != nil {
			deps.Log.Warn("failed to revoke session", "err", err)
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func listDealsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := current(r)
		deals, err := deps.Store.ListDeals(r.Context(), s.SubjectID)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to list deals", err, http.StatusInternalServerError)
			return
		}
		now := time.Now()
		usage, err := deps.Store.Usage(r.Context(), now)
		if err != nil {
			deps.Log.Warn("failed to read usage", "err", err)
		}
		render(deps, w, view.PageDeals, view.DealsPage{
			Email:  s.Email,
			Deals:  deals,
			Usage:  usage,
			Period: store.UsagePeriod(now),
		})
	}
}

func createDealHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form dealForm
		if err := httputil.DecodeForm(r, &form); err != nil {
			httputil.Fail(deps.Log, w, "invalid form", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&form); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		d, err := deps.Store.CreateDeal(r.Context(), current(r).SubjectID, store.DealInput{
			Account: form.Account,
			Title:   form.Title,
			Value:   form.Value,
			Stage:   form.Stage,
		})
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to create deal", err, http.StatusInternalServerError)
			return
		}
		metrics.DealsCreatedTotal.Inc()
		deps.Log.Info("deal created", "deal_id", d.DealID)
		http.Redirect(w, r, "/deal/"+d.DealID, http.StatusSeeOther)
	}
}

func showDealHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := current(r)
		dealID := chi.URLParam(r, "id")
		d, err := deps.Store.GetDeal(r.Context(), s.SubjectID, dealID)
		if errors.Is(err, store.ErrDealNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load deal", err, http.StatusInternalServerError)
			return
		}
		history, err := deps.Store.ListAssessments(r.Context(), s.SubjectID, dealID)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load assessments", err, http.StatusInternalServerError)
			return
		}
		render(deps, w, view.PageDeal, view.DealPage{
			Email:       s.Email,
			Deal:        d,
			Assessments: history,
			Dimensions:  assess.Dimensions,
		})
	}
}

func assessHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form assessForm
		if err := httputil.DecodeForm(r, &form); err != nil {
			httputil.Fail(deps.Log, w, "invalid form", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&form); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		ctx := r.Context()
		userID := current(r).SubjectID
		d, err := deps.Store.GetDeal(ctx, userID, form.DealID)
		if errors.Is(err, store.ErrDealNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load deal", err, http.StatusInternalServerError)
			return
		}

		payload := assess.Payload{Deal: d.Snapshot(), Scores: form.scores(), Notes: form.Notes}
		outcome := deps.Assessor.Assess(ctx, payload)

		ts, err := deps.Store.RecordAssessment(ctx, userID, d.DealID, outcome, payload)
		if errors.Is(err, store.ErrDealNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to record assessment", err, http.StatusInternalServerError)
			return
		}
		// The assessment is already stored; a lost usage tick is not worth failing the request.
		if _, err := deps.Store.IncrementUsage(ctx, time.Now()); err != nil {
			deps.Log.Warn("failed to increment usage", "err", err)
		}

		deps.Log.Info("deal assessed",
			"deal_id", d.DealID,
			"source", outcome.Source,
			"tier", outcome.Result.Tier,
			"score", outcome.Result.Score,
		)
		http.Redirect(w, r, "/assessment/"+d.DealID+"/"+strconv.FormatInt(ts, 10), http.StatusSeeOther)
	}
}

func showAssessmentHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := current(r)
		ts, err := strconv.ParseInt(chi.URLParam(r, "ts"), 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		rec, err := deps.Store.GetAssessment(r.Context(), s.SubjectID, chi.URLParam(r, "dealId"), ts)
		if errors.Is(err, store.ErrAssessmentNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load assessment", err, http.StatusInternalServerError)
			return
		}
		render(deps, w, view.PageAssessment, view.AssessmentPage{Email: s.Email, Record: rec})
	}
}
