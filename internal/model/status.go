package model

// AggregateStatus derives a lead's overall enrichment status from its tasks.
// It is invoked after every task completion, inside the same transaction
// that records the task outcome.
//
// A lead is completed only when every dispatched task succeeded. A lead with
// a failed task and no unresolved work stays in processing until an operator
// retries or accepts the partial result; there is no lead-level terminal
// failure state, so a lead can always be retried.
func AggregateStatus(tasks []EnrichmentTask) EnrichmentStatus {
	if len(tasks) == 0 {
		return StatusPending
	}

	allCompleted := true
	for _, t := range tasks {
		switch t.Status {
		case StatusPending, StatusProcessing:
			return StatusProcessing
		case StatusFailed:
			allCompleted = false
		}
	}

	if allCompleted {
		return StatusCompleted
	}
	return StatusProcessing
}
