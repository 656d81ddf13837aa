package services

import "patas-conectadas/backend/internal/models"

// lifecycleTransition is one edge of the task state machine:
//
//	pending --assign--> assigned --complete--> completed
//
// There is no edge out of completed and no edge back to an earlier status.
type lifecycleTransition struct {
	from      string
	to        string
	rejection string
}

var (
	assignTransition = lifecycleTransition{
		from:      models.TaskStatusPending,
		to:        models.TaskStatusAssigned,
		rejection: "only pending tasks can be assigned",
	}
	completeTransition = lifecycleTransition{
		from:      models.TaskStatusAssigned,
		to:        models.TaskStatusCompleted,
		rejection: "only assigned tasks can be completed",
	}
)

func (t lifecycleTransition) allowedFrom(current string) bool {
	return current == t.from
}
