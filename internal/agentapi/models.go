package agentapi

import "encoding/json"

// StepType tags one stage of the agent workflow. Values outside the known
// set are kept verbatim so the renderer can fall back to a default look.
type StepType string

const (
	StepCategorize       StepType = "categorize"
	StepAnalyzeSentiment StepType = "analyze_sentiment"
	StepRoute            StepType = "route"
	StepHandle           StepType = "handle"
)

// Known reports whether t is one of the step types the agent documents.
func (t StepType) Known() bool {
	switch t {
	case StepCategorize, StepAnalyzeSentiment, StepRoute, StepHandle:
		return true
	}
	return false
}

// SupportRequest is the body of POST /support.
type SupportRequest struct {
	Query string `json:"query" validate:"required,max=4000"`
}

// Payload is an opaque JSON document kept exactly as received, key order
// included. It is only ever pretty-printed.
type Payload = json.RawMessage

// WorkflowStep is one recorded stage of the agent's processing.
type WorkflowStep struct {
	StepName    string   `json:"step_name"`
	StepType    StepType `json:"step_type"`
	InputData   Payload  `json:"input_data"`
	OutputData  Payload  `json:"output_data"`
	Description string   `json:"description"`
}

// SupportResponse is returned by POST /support.
// When Success is false only Query and ErrorMessage are meaningful.
type SupportResponse struct {
	Query         string         `json:"query"`
	Category      string         `json:"category"`
	Sentiment     string         `json:"sentiment"`
	Response      string         `json:"response"`
	WorkflowSteps []WorkflowStep `json:"workflow_steps"`
	Success       bool           `json:"success"`
	ErrorMessage  string         `json:"error_message,omitempty"`
}

// Health status values reported by GET /health. Anything else is "other".
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status           string `json:"status"`
	OpenAIConfigured bool   `json:"openai_configured"`
}

// errorBody is the FastAPI error envelope: {"detail": ...}.
// detail is usually a string but validation failures send a list.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}
