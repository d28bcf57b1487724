package schema

import "fmt"

// PlanSpec is the JSON-serializable high-level workflow plan.
// Agents provide this via planloom.compose or planloom.preview.
type PlanSpec struct {
	Name           string         `json:"name"`
	Trigger        TriggerKind    `json:"trigger"`
	CronExpression string         `json:"cron_expression,omitempty"` // meaningful only when trigger=cron
	Steps          []StepSpec     `json:"steps"`
	Inputs         map[string]any `json:"inputs,omitempty"` // values available to ${{...}} parameter expressions
}

// StepSpec describes a single step in a plan. Each step renders into
// exactly one graph node.
type StepSpec struct {
	ID         string         `json:"id,omitempty"`
	Type       string         `json:"type"` // catalog display name or raw engine type
	Parameters map[string]any `json:"parameters,omitempty"`
	DependsOn  []string       `json:"depends_on,omitempty"` // step IDs (or "trigger") that feed this step
}

// TriggerKind enumerates how a rendered workflow starts.
type TriggerKind string

const (
	TriggerManual  TriggerKind = "manual"
	TriggerCron    TriggerKind = "cron"
	TriggerWebhook TriggerKind = "webhook"
)

// Key returns the name by which later steps may reference this step in
// depends_on. When no explicit ID was given, a deterministic fallback is
// synthesized from the step type and its 1-based position in the plan.
func (s StepSpec) Key(position int) string {
	if s.ID != "" {
		return s.ID
	}
	return fmt.Sprintf("%s_%d", s.Type, position)
}
