// Package core has the equipment data pipeline: intake, submission, snapshot
// building, chart projection, history and report export.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chemflow/equipctl/internal/apiclient"
	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/internal/outwriter"
	"github.com/chemflow/equipctl/schema"
)

// ExecutorFunc defines the function signature for executing a pipeline command.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// reportedError marks a failure the user has already been notified about.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// AlreadyReported reports whether err was already shown to the user as a notice.
func AlreadyReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

// NewAppContext wires the collaborator client, stores and console output for a CLI run.
func NewAppContext(cfg *contract.Config, mgr contract.StoreManager) *AppContext {
	var sessions contract.SessionStore
	var runs contract.RunStore
	if mgr != nil {
		sessions = mgr.GetSessionStore()
		runs = mgr.GetRunStore()
	}
	return &AppContext{
		Config:   cfg,
		Collab:   apiclient.NewClientFromConfig(cfg),
		Creds:    NewStoreCredentials(sessions, cfg.Token),
		Runs:     runs,
		Notifier: outwriter.NewConsoleNotifier(cfg.UseColors),
		Renderer: outwriter.NewChartRenderer(),
	}
}

// ExecuteUpload uploads one CSV file, prints the statistics and optionally exports a report.
func ExecuteUpload(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, path string) error {
	start := time.Now()
	ws := NewWorkspace(NewAppContext(cfg, mgr))

	mediaType := cfg.MediaType
	if mediaType == "" {
		mediaType = MediaTypeForName(path)
	}
	// Intake happens before the file is opened so a rejected file is never read
	name := filepath.Base(path)
	if _, err := ValidateFile(name, mediaType); err != nil {
		_, err = ws.Upload(ctx, name, mediaType, nil)
		return &reportedError{err}
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	view, err := ws.Upload(ctx, name, mediaType, f)
	if err != nil {
		return &reportedError{err}
	}
	if err := outwriter.PrintSnapshotView(view, cfg, time.Since(start)); err != nil {
		return err
	}
	if !cfg.ExportAfterUpload {
		return nil
	}
	return exportDisplayed(withSuppressHeader(ctx), ws, cfg)
}

// ExecuteHistory lists the recent snapshots. An unavailable history prints as empty.
func ExecuteHistory(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	ws := NewWorkspace(NewAppContext(cfg, mgr))
	views := ws.History(ctx)
	return outwriter.PrintHistory(views, cfg, time.Since(start))
}

// ExecuteExport displays history entry cfg.Entry and exports a report for it.
func ExecuteExport(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	app := NewAppContext(cfg, mgr)
	ws := NewWorkspace(app)
	if _, err := ws.ShowHistoryEntry(ctx, cfg.Entry); err != nil {
		app.Notifier.Fail("export", err)
		return &reportedError{err}
	}
	return exportDisplayed(ctx, ws, cfg)
}

// exportDisplayed exports the workspace's current view and prints where it went.
func exportDisplayed(ctx context.Context, ws *Workspace, cfg *contract.Config) error {
	view, _ := ws.Displayed()
	if !shouldSuppressHeader(ctx) {
		outwriter.LogExportHeader(view, cfg)
	}

	var image []byte
	if cfg.ImagePath != "" {
		data, err := os.ReadFile(cfg.ImagePath)
		if err != nil {
			return fmt.Errorf("failed to read image %s: %w", cfg.ImagePath, err)
		}
		image = data
	}
	result, err := ws.Export(ctx, image, cfg.OutputDir)
	if err != nil {
		return &reportedError{err}
	}
	return outwriter.PrintExportResult(result, cfg)
}

// ExecuteLogin signs in and stores the session.
func ExecuteLogin(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, username, password string) error {
	auth := NewAuthenticator(apiclient.NewClientFromConfig(cfg), mgr.GetSessionStore(), mgr.GetRunStore(), cfg.Timeout)
	session, err := auth.Login(ctx, username, password)
	if err != nil {
		return err
	}
	return outwriter.PrintSession(session, cfg)
}

// ExecuteSignup registers a new account.
func ExecuteSignup(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, req schema.SignupRequest) error {
	auth := NewAuthenticator(apiclient.NewClientFromConfig(cfg), mgr.GetSessionStore(), mgr.GetRunStore(), cfg.Timeout)
	if err := auth.Signup(ctx, req); err != nil {
		return err
	}
	outwriter.NewConsoleNotifier(cfg.UseColors).Info(fmt.Sprintf("Account %s created. Run 'equipctl login' to sign in.", req.Username))
	return nil
}

// ExecuteLogout invalidates the stored session.
func ExecuteLogout(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	auth := NewAuthenticator(apiclient.NewClientFromConfig(cfg), mgr.GetSessionStore(), mgr.GetRunStore(), cfg.Timeout)
	if err := auth.Logout(ctx); err != nil {
		return err
	}
	outwriter.NewConsoleNotifier(cfg.UseColors).Info("Signed out.")
	return nil
}

// ExecuteWhoami prints the signed-in profile.
func ExecuteWhoami(_ context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	auth := NewAuthenticator(nil, mgr.GetSessionStore(), nil, cfg.Timeout)
	session, ok, err := auth.Whoami()
	if err != nil {
		return err
	}
	if !ok {
		return contract.NewAuthError("whoami", 0, errNoCredential)
	}
	return outwriter.PrintSession(session, cfg)
}
