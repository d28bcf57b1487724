// Package lint inspects a plan for conditions the renderer silently
// degrades on. The renderer deliberately never rejects a plan (unknown node
// types synthesize, dangling dependencies fall back to the previous step),
// so these diagnostics are the advisory counterpart: agents can call
// planloom.lint before composing to catch mistakes the permissive rendering
// would otherwise mask.
package lint

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/planloom/planloom/internal/catalog"
	"github.com/planloom/planloom/pkg/schema"
)

// Issue codes reported by Check.
const (
	CodeMissingName        = "MISSING_NAME"
	CodeMissingStepType    = "MISSING_STEP_TYPE"
	CodeUnknownTrigger     = "UNKNOWN_TRIGGER"
	CodeMissingCron        = "MISSING_CRON_EXPRESSION"
	CodeInvalidCron        = "INVALID_CRON_EXPRESSION"
	CodeUnknownNodeType    = "UNKNOWN_NODE_TYPE"
	CodeDanglingDependency = "DANGLING_DEPENDENCY"
	CodeDuplicateStepKey   = "DUPLICATE_STEP_KEY"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Check runs all advisory rules against a plan. Findings that the renderer
// degrades gracefully on are warnings; findings that produce a graph the
// engine is certain to reject are errors. Check never blocks rendering.
func Check(plan schema.PlanSpec, c *catalog.Catalog) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	if plan.Name == "" {
		result.AddError("name", CodeMissingName, "plan name is required by the engine")
	}

	checkTrigger(plan, result)
	checkSteps(plan, c, result)

	return result
}

func checkTrigger(plan schema.PlanSpec, result *schema.ValidationResult) {
	switch plan.Trigger {
	case schema.TriggerManual, schema.TriggerWebhook:
	case schema.TriggerCron:
		if plan.CronExpression == "" {
			result.AddWarning("cron_expression", CodeMissingCron,
				"cron trigger without an expression renders with the catalog defaults")
			return
		}
		if _, err := cronParser.Parse(plan.CronExpression); err != nil {
			result.AddError("cron_expression", CodeInvalidCron,
				fmt.Sprintf("cron expression %q does not parse: %v", plan.CronExpression, err))
		}
	default:
		result.AddWarning("trigger", CodeUnknownTrigger,
			fmt.Sprintf("unknown trigger kind %q renders as a manual trigger", plan.Trigger))
	}
}

func checkSteps(plan schema.PlanSpec, c *catalog.Catalog, result *schema.ValidationResult) {
	keys := make(map[string]int, len(plan.Steps))
	for i, step := range plan.Steps {
		key := step.Key(i + 1)
		if prev, dup := keys[key]; dup {
			result.AddWarning(fmt.Sprintf("steps[%d].id", i), CodeDuplicateStepKey,
				fmt.Sprintf("step key %q already used by steps[%d]; later dependencies resolve to the last occurrence", key, prev))
		}
		keys[key] = i
	}

	for i, step := range plan.Steps {
		path := fmt.Sprintf("steps[%d]", i)

		if step.Type == "" {
			result.AddError(path+".type", CodeMissingStepType, "step type is empty")
			continue
		}
		if !c.Known(step.Type) {
			result.AddWarning(path+".type", CodeUnknownNodeType,
				fmt.Sprintf("type %q is not in the catalog; it renders verbatim as the engine type", step.Type))
		}

		for j, ref := range step.DependsOn {
			if ref == "trigger" {
				continue
			}
			if _, ok := keys[ref]; !ok {
				result.AddWarning(fmt.Sprintf("%s.depends_on[%d]", path, j), CodeDanglingDependency,
					fmt.Sprintf("reference %q matches no step key; the renderer falls back to the previous node", ref))
			}
		}
	}
}
