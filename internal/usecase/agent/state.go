// Package agent routes one user query through the analysis pipeline:
// classification, retrieval, extraction, synthesis and a final sufficiency
// check. The step sequence is a small state machine with a single branch
// point; transitions are deterministic and there is no backtracking.
package agent

import (
	"github.com/sightline-ai/sightline/internal/domain"
	"github.com/sightline-ai/sightline/internal/usecase/synthesis"
)

// Step identifies one pipeline stage.
type Step string

const (
	StepStart            Step = "start"
	StepValidateQuery    Step = "validate_query"
	StepRedirect         Step = "redirect"
	StepRetrieve         Step = "retrieve"
	StepExtract          Step = "extract"
	StepSynthesize       Step = "synthesize"
	StepValidateResponse Step = "validate_response"
	StepEnd              Step = "end"
)

// Transition is the pure step function. The analytical flag matters only at
// the branch after query validation; every other edge is fixed.
func Transition(s Step, analytical bool) Step {
	switch s {
	case StepStart:
		return StepValidateQuery
	case StepValidateQuery:
		if analytical {
			return StepRetrieve
		}
		return StepRedirect
	case StepRetrieve:
		return StepExtract
	case StepExtract:
		return StepSynthesize
	case StepSynthesize:
		return StepValidateResponse
	case StepRedirect, StepValidateResponse:
		return StepEnd
	default:
		return StepEnd
	}
}

// State accumulates the per-query pipeline outputs. One State value exists
// per request and is never shared across queries; each field starts at its
// zero value and is written by exactly one step.
type State struct {
	ConversationID string
	Query          string
	Step           Step

	Analytical bool
	Context    []domain.ContextItem
	Findings   synthesis.Findings
	Stats      domain.MetricStats
	HasStats   bool
	Synthesis  synthesis.Result
}

// Response is the terminal payload handed back to the transport.
// RequiresClarification is the uniform "no grounded answer" signal, whether
// the cause was empty context, low confidence or an upstream failure.
type Response struct {
	Text                  string
	Insights              []string
	SuggestedQuestions    []string
	RequiresClarification bool
	ContextSources        int
	ContextRefs           []string
	Confidence            float64
}
