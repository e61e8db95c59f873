package view

import "deal-qualifier/internal/store"

// Page names accepted by Renderer.Render.
const (
	PageLogin      = "login"
	PageDeals      = "deals"
	PageDeal       = "deal"
	PageAssessment = "assessment"
)

// Every page carries Email; the layout shows the sign-out form when it is set.

type LoginPage struct {
	Email string
}

type DealsPage struct {
	Email  string
	Deals  []store.Deal
	Usage  int64
	Period string
}

type DealPage struct {
	Email       string
	Deal        store.Deal
	Assessments []store.AssessmentRecord
	Dimensions  []string
}

type AssessmentPage struct {
	Email  string
	Record store.AssessmentRecord
}
