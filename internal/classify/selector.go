package classify

import (
	"fmt"

	"github.com/harrison/switchboard/internal/models"
)

// Selection is the workflow selector's output.
type Selection struct {
	Workflow  models.Workflow `json:"workflow"`
	Rationale string          `json:"rationale"`

	// CompoundOverride records that the compound-intent detector forced
	// the full workflow regardless of the decision table.
	CompoundOverride bool `json:"compound_override,omitempty"`
}

// SelectWorkflow maps (intent, entities, confidence) to a workflow via
// a fixed decision table, evaluated in precedence order:
//
//  1. Compound requests unconditionally take the full plan-then-execute
//     workflow; they are assumed to need both phases.
//  2. Confidence below the clarify threshold routes to clarification.
//  3. Quick-flagged intents route to the quick workflow, bypassing
//     complexity.
//  4. Otherwise dispatch on intent, branching on complexity tier.
//
// Pure function; the rationale string is part of the audit record.
func SelectWorkflow(normalized string, intent models.Intent, entities models.Entities, confidence int, clarifyThreshold int, quickIntents map[models.Intent]bool) Selection {
	if IsCompound(normalized) {
		return Selection{
			Workflow:         models.WorkflowPlanExecute,
			Rationale:        "compound request detected; forcing plan-then-execute so both planning and execution phases run",
			CompoundOverride: true,
		}
	}

	if confidence < clarifyThreshold {
		return Selection{
			Workflow:  models.WorkflowClarify,
			Rationale: fmt.Sprintf("confidence %d is below the clarification threshold %d; asking for clarification", confidence, clarifyThreshold),
		}
	}

	if quickIntents[intent] {
		return Selection{
			Workflow:  models.WorkflowQuick,
			Rationale: fmt.Sprintf("intent %s is a deterministic quick task; complexity bypassed", intent),
		}
	}

	complexity := entities.Complexity
	switch intent {
	case models.IntentCreateProject:
		if complexity == models.ComplexityHigh || complexity == models.ComplexityMedium {
			return Selection{
				Workflow:  models.WorkflowPlanExecute,
				Rationale: fmt.Sprintf("create_project with %s complexity needs a plan before execution", complexity),
			}
		}
		return Selection{
			Workflow:  models.WorkflowExecute,
			Rationale: "create_project with low complexity can execute directly",
		}

	case models.IntentDebugFix:
		if complexity == models.ComplexityHigh {
			return Selection{
				Workflow:  models.WorkflowPlanExecute,
				Rationale: "debug_fix with high complexity needs a plan before execution",
			}
		}
		return Selection{
			Workflow:  models.WorkflowExecute,
			Rationale: fmt.Sprintf("debug_fix with %s complexity can execute directly", complexity),
		}

	case models.IntentRefactor:
		if complexity == models.ComplexityHigh {
			return Selection{
				Workflow:  models.WorkflowPlanExecute,
				Rationale: "refactor with high complexity needs a plan before execution",
			}
		}
		return Selection{
			Workflow:  models.WorkflowExecute,
			Rationale: fmt.Sprintf("refactor with %s complexity can execute directly", complexity),
		}

	case models.IntentDiscussDecision:
		return Selection{
			Workflow:  models.WorkflowDiscuss,
			Rationale: "decision discussion routes to the discussion-only workflow; nothing executes",
		}

	case models.IntentResearch:
		return Selection{
			Workflow:  models.WorkflowResearch,
			Rationale: "research request routes to the research workflow; nothing executes",
		}

	default:
		return Selection{
			Workflow:  models.WorkflowClarify,
			Rationale: fmt.Sprintf("no workflow mapping for intent %s; asking for clarification", intent),
		}
	}
}
