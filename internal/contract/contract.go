// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"io"
	"time"

	"github.com/chemflow/equipctl/schema"
)

// Collaborator defines the remote statistics service.
// This allows the pipeline to be tested without a live server.
type Collaborator interface {
	// Upload sends one CSV file and returns the raw statistics payload.
	Upload(ctx context.Context, token string, file schema.ValidFile, content io.Reader) ([]byte, error)

	// FetchRecords returns the raw history payload.
	FetchRecords(ctx context.Context, token string) ([]byte, error)

	// Download requests a report and returns its content stream and content type.
	Download(ctx context.Context, token string, req schema.ExportRequest) (io.ReadCloser, string, error)

	// Login exchanges credentials for a token and profile.
	Login(ctx context.Context, req schema.LoginRequest) (schema.LoginResponse, error)

	// Signup registers a new account.
	Signup(ctx context.Context, req schema.SignupRequest) error

	// Logout invalidates the token on the server.
	Logout(ctx context.Context, token string) error
}

// CredentialReader hands out the current credential.
// Callers read it at the start of every operation and never keep it.
type CredentialReader interface {
	CurrentSession() (schema.Session, bool)
}

// StoreManager defines the interface for managing the persistence stores.
// This allows the storage layer to be mocked for testing.
type StoreManager interface {
	GetSessionStore() SessionStore
	GetRunStore() RunStore
}

// SessionStore persists the signed-in session.
type SessionStore interface {
	Load() (schema.Session, bool, error)
	Save(session schema.Session) error
	Delete() error
	GetStatus() (schema.SessionStatus, error)
	Close() error
}

// RunStore defines the interface for tracking pipeline operations and the snapshots they displayed.
type RunStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(op schema.Operation, startTime time.Time) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, outcome schema.Outcome, detail string) error

	// RecordObservation stores a snapshot that was displayed by the run
	RecordObservation(runID int64, source schema.SnapshotSource, snapshot schema.StatsSnapshot) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns returns every tracked run in ID order
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllObservations returns every observation in run order
	GetAllObservations() ([]schema.ObservationRecord, error)

	// Close closes the underlying connection
	Close() error
}

// ChartRenderer turns a chart dataset into an image for export.
type ChartRenderer interface {
	RenderPNG(dataset schema.ChartDataset) ([]byte, error)
}

// Notifier shows user-facing notices.
type Notifier interface {
	// Warn shows a non-blocking notice.
	Warn(msg string)

	// Fail shows a blocking failure notice for an explicit user action.
	Fail(op string, err error)

	// Info shows an informational line.
	Info(msg string)
}
