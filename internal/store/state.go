package store

import (
	"time"

	"github.com/harrison/switchboard/internal/models"
)

// NewWeightStore creates the document store for the weight table.
func NewWeightStore(path string) *Document[models.WeightTable] {
	return NewDocument(path, func() models.WeightTable {
		return *models.NewWeightTable()
	})
}

// NewWorkflowStateStore creates the document store for the tracked
// workflow state. A fresh state starts idle with progress anchored now.
func NewWorkflowStateStore(path string) *Document[models.WorkflowState] {
	return NewDocument(path, func() models.WorkflowState {
		now := time.Now()
		return models.WorkflowState{
			Phase:          models.PhaseIdle,
			PreviousPhase:  models.PhaseIdle,
			LastTransition: now,
			LastProgress:   now,
			Context:        map[string]string{},
		}
	})
}

// ApprovalState persists the autonomous iteration counter across
// invocations.
type ApprovalState struct {
	Iterations int       `json:"iterations"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewApprovalStateStore creates the document store for the gate's
// iteration counter.
func NewApprovalStateStore(path string) *Document[ApprovalState] {
	return NewDocument(path, func() ApprovalState {
		return ApprovalState{}
	})
}
