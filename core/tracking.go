package core

import (
	"fmt"
	"time"

	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/schema"
)

// beginRun starts tracking an operation. Tracking failures never block the operation.
func beginRun(store contract.RunStore, op schema.Operation) int64 {
	if store == nil {
		return 0
	}
	runID, err := store.BeginRun(op, time.Now())
	if err != nil {
		contract.LogWarn(fmt.Sprintf("Run tracking initialization failed for %s", op), err)
		return 0
	}
	return runID
}

// endRun finalizes a tracked operation.
func endRun(store contract.RunStore, runID int64, outcome schema.Outcome, detail string) {
	if store == nil || runID <= 0 {
		return
	}
	if err := store.EndRun(runID, time.Now(), outcome, detail); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}

// finishRun ends a run as succeeded or failed depending on err.
func finishRun(store contract.RunStore, runID int64, err error, detail string) {
	if err != nil {
		endRun(store, runID, schema.FailedOutcome, err.Error())
		return
	}
	endRun(store, runID, schema.SucceededOutcome, detail)
}

// recordObservation stores a displayed snapshot against its run.
func recordObservation(store contract.RunStore, runID int64, source schema.SnapshotSource, snapshot schema.StatsSnapshot) {
	if store == nil || runID <= 0 {
		return
	}
	if err := store.RecordObservation(runID, source, snapshot); err != nil {
		contract.LogWarn(fmt.Sprintf("Run tracking failed for observation of %s", source), err)
	}
}
