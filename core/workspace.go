package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/internal/logging"
	"github.com/chemflow/equipctl/schema"
	"golang.org/x/sync/semaphore"
)

// ErrSuperseded is returned when a newer request took over the display
// before this one finished. The result was discarded.
var ErrSuperseded = errors.New("result superseded by a newer request")

// AppContext carries everything the pipeline needs. It replaces process-wide state:
// components get it injected and never reach for globals.
type AppContext struct {
	Config   *contract.Config
	Collab   contract.Collaborator
	Creds    contract.CredentialReader
	Runs     contract.RunStore
	Notifier contract.Notifier
	Renderer contract.ChartRenderer
}

// Workspace owns what is displayed. Display-changing operations take a
// generation ticket and only the latest ticket may commit. At most one upload
// and one export run at a time.
type Workspace struct {
	app *AppContext

	mu        sync.RWMutex
	displayed *schema.SnapshotView

	generation atomic.Uint64
	uploads    *semaphore.Weighted
	exports    *semaphore.Weighted
}

// NewWorkspace creates an empty workspace.
func NewWorkspace(app *AppContext) *Workspace {
	return &Workspace{
		app:     app,
		uploads: semaphore.NewWeighted(1),
		exports: semaphore.NewWeighted(1),
	}
}

// Displayed returns the current view, if any.
func (w *Workspace) Displayed() (schema.SnapshotView, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.displayed == nil {
		return schema.SnapshotView{}, false
	}
	return *w.displayed, true
}

// Upload validates, submits and displays one file.
// On any failure the previous view stays and one failure notice is shown.
func (w *Workspace) Upload(ctx context.Context, name, mediaType string, content io.Reader) (schema.SnapshotView, error) {
	if !w.uploads.TryAcquire(1) {
		err := contract.NewBusyError("upload")
		w.app.Notifier.Fail("upload", err)
		return schema.SnapshotView{}, err
	}
	defer w.uploads.Release(1)

	runID := beginRun(w.app.Runs, schema.UploadOp)

	file, err := ValidateFile(name, mediaType)
	if err != nil {
		w.app.Notifier.Warn(fmt.Sprintf("%s is not a CSV file. Please choose a .csv file.", name))
		endRun(w.app.Runs, runID, schema.FailedOutcome, err.Error())
		return schema.SnapshotView{}, err
	}
	// A rejected file leaves any pending history selection alone
	ticket := w.generation.Add(1)

	ctx, cancel := context.WithTimeout(ctx, w.app.Config.Timeout)
	defer cancel()
	snap, err := SubmitUpload(ctx, w.app.Collab, w.app.Creds, file, content)
	if err != nil {
		w.app.Notifier.Fail("upload", err)
		endRun(w.app.Runs, runID, schema.FailedOutcome, err.Error())
		return schema.SnapshotView{}, err
	}

	view := w.present(snap, string(schema.UploadSource), true)
	if !w.commit(ticket, view) {
		logging.Infow("stale upload discarded", "ticket", ticket, "created_at", snap.CreatedAt)
		endRun(w.app.Runs, runID, schema.DiscardedOutcome, ErrSuperseded.Error())
		return view, ErrSuperseded
	}
	recordObservation(w.app.Runs, runID, schema.UploadSource, snap)
	endRun(w.app.Runs, runID, schema.SucceededOutcome, file.Name)
	return view, nil
}

// History fetches the history list. Failures degrade to an empty list
// and a logged diagnostic; no notice is shown.
func (w *Workspace) History(ctx context.Context) []schema.SnapshotView {
	runID := beginRun(w.app.Runs, schema.HistoryOp)

	ctx, cancel := context.WithTimeout(ctx, w.app.Config.Timeout)
	defer cancel()
	entries, err := fetchHistory(ctx, w.app.Collab, w.app.Creds)
	if err != nil {
		logging.Errorw("history unavailable", "kind", contract.KindOf(err), "error", err)
		endRun(w.app.Runs, runID, schema.DegradedOutcome, err.Error())
		return []schema.SnapshotView{}
	}

	views := make([]schema.SnapshotView, len(entries))
	for i, entry := range entries {
		views[i] = w.present(entry.StatsSnapshot, schema.HistorySourceLabel(entry.Position), false)
	}
	endRun(w.app.Runs, runID, schema.SucceededOutcome, fmt.Sprintf("%d entries", len(entries)))
	return views
}

// ShowHistoryEntry fetches the history and displays the entry at position (1-based).
func (w *Workspace) ShowHistoryEntry(ctx context.Context, position int) (schema.SnapshotView, error) {
	ticket := w.generation.Add(1)
	views := w.History(ctx)
	if position < 1 || position > len(views) {
		err := contract.NewValidationError("history", contract.ReasonNoSnapshot)
		err.Err = fmt.Errorf("entry %d not found in %d history entries", position, len(views))
		return schema.SnapshotView{}, err
	}
	view := views[position-1]
	if !w.commit(ticket, view) {
		logging.Infow("stale history selection discarded", "ticket", ticket, "position", position)
		return view, ErrSuperseded
	}
	if sum, ok := CheckTotals(view.Snapshot); !ok {
		w.app.Notifier.Warn(mismatchNotice(sum, view.Snapshot.TotalCount))
	}
	runID := beginRun(w.app.Runs, schema.HistoryOp)
	recordObservation(w.app.Runs, runID, schema.HistorySource, view.Snapshot)
	endRun(w.app.Runs, runID, schema.SucceededOutcome, view.Source)
	return view, nil
}

// Export requests a report for the displayed snapshot and saves it into dir.
// A nil image means the displayed chart is rendered.
func (w *Workspace) Export(ctx context.Context, image []byte, dir string) (schema.ExportResult, error) {
	if !w.exports.TryAcquire(1) {
		err := contract.NewBusyError("export")
		w.app.Notifier.Fail("export", err)
		return schema.ExportResult{}, err
	}
	defer w.exports.Release(1)

	runID := beginRun(w.app.Runs, schema.ExportOp)
	result, err := w.export(ctx, image, dir)
	if err != nil {
		w.app.Notifier.Fail("export", err)
		endRun(w.app.Runs, runID, schema.FailedOutcome, err.Error())
		return schema.ExportResult{}, err
	}
	w.app.Notifier.Info(fmt.Sprintf("Report saved to %s", result.Path))
	endRun(w.app.Runs, runID, schema.SucceededOutcome, result.Path)
	return result, nil
}

func (w *Workspace) export(ctx context.Context, image []byte, dir string) (schema.ExportResult, error) {
	view, ok := w.Displayed()
	if !ok {
		return schema.ExportResult{}, contract.NewValidationError("export", contract.ReasonNoSnapshot)
	}
	if image == nil {
		if w.app.Renderer == nil {
			return schema.ExportResult{}, errors.New("no chart renderer configured")
		}
		png, err := w.app.Renderer.RenderPNG(view.Chart)
		if err != nil {
			return schema.ExportResult{}, fmt.Errorf("failed to render chart: %w", err)
		}
		image = png
	}

	ctx, cancel := context.WithTimeout(ctx, w.app.Config.Timeout)
	defer cancel()
	artifact, err := Export(ctx, w.app.Collab, w.app.Creds, image, &view.Snapshot)
	if err != nil {
		return schema.ExportResult{}, err
	}
	result, err := Deliver(artifact, dir)
	if err != nil {
		return schema.ExportResult{}, err
	}
	result.CreatedAt = view.Snapshot.CreatedAt
	return result, nil
}

// present turns a snapshot into a view and logs questionable totals.
// Only explicit actions pass notify; background loading stays quiet.
func (w *Workspace) present(snap schema.StatsSnapshot, source string, notify bool) schema.SnapshotView {
	if sum, ok := CheckTotals(snap); !ok {
		if notify {
			w.app.Notifier.Warn(mismatchNotice(sum, snap.TotalCount))
		}
		logging.Warnw("distribution total mismatch", "source", source, "sum", sum, "total_count", snap.TotalCount)
	}
	return schema.SnapshotView{
		Snapshot: snap,
		Chart:    ToChartDataset(snap),
		Source:   source,
		NoData:   snap.TotalCount < w.app.Config.MinRows,
	}
}

// commit displays view if ticket is still the latest one issued.
func (w *Workspace) commit(ticket uint64, view schema.SnapshotView) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ticket != w.generation.Load() {
		return false
	}
	w.displayed = &view
	return true
}

func mismatchNotice(sum, total int) string {
	return fmt.Sprintf("Distribution adds up to %d but total count is %d", sum, total)
}
