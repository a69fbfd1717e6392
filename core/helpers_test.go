package core

import (
	"sync"
	"testing"
	"time"

	"github.com/chemflow/equipctl/internal/apiclient"
	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/internal/testutil/collabfake"
	"github.com/chemflow/equipctl/schema"
)

// recordingNotifier keeps every notice for assertions.
type recordingNotifier struct {
	mu    sync.Mutex
	warns []string
	fails []error
	infos []string
}

func (n *recordingNotifier) Warn(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warns = append(n.warns, msg)
}

func (n *recordingNotifier) Fail(_ string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fails = append(n.fails, err)
}

func (n *recordingNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, msg)
}

func (n *recordingNotifier) failCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.fails)
}

func (n *recordingNotifier) warnCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.warns)
}

// staticCreds always returns the same session.
type staticCreds struct {
	session schema.Session
}

func (c staticCreds) CurrentSession() (schema.Session, bool) {
	return c.session, c.session.Valid()
}

// memSessionStore is an in-memory contract.SessionStore.
type memSessionStore struct {
	mu      sync.Mutex
	session *schema.Session
}

func (m *memSessionStore) Load() (schema.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return schema.Session{}, false, nil
	}
	return *m.session, true, nil
}

func (m *memSessionStore) Save(s schema.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &s
	return nil
}

func (m *memSessionStore) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

func (m *memSessionStore) GetStatus() (schema.SessionStatus, error) {
	return schema.SessionStatus{Backend: string(schema.NoneBackend), Connected: true, HasSession: m.session != nil}, nil
}

func (m *memSessionStore) Close() error { return nil }

var _ contract.SessionStore = &memSessionStore{}

// stubRenderer returns a fixed image.
type stubRenderer struct{}

func (stubRenderer) RenderPNG(schema.ChartDataset) ([]byte, error) {
	return []byte("\x89PNG fake"), nil
}

func signedIn() staticCreds {
	return staticCreds{session: schema.Session{
		Token: collabfake.Token,
		User:  schema.UserProfile{Username: collabfake.Username, Email: "ada@example.com"},
	}}
}

func testConfig() *contract.Config {
	return &contract.Config{
		Timeout:   2 * time.Second,
		MinRows:   contract.DefaultMinRows,
		OutputDir: ".",
	}
}

// newTestWorkspace starts a fake collaborator and a workspace bound to it.
func newTestWorkspace(t *testing.T) (*Workspace, *collabfake.Server, *recordingNotifier) {
	t.Helper()
	fake := collabfake.New()
	t.Cleanup(fake.Close)
	notifier := &recordingNotifier{}
	app := &AppContext{
		Config:   testConfig(),
		Collab:   apiclient.NewClient(fake.URL, "Token", 0, 1),
		Creds:    signedIn(),
		Notifier: notifier,
		Renderer: stubRenderer{},
	}
	return NewWorkspace(app), fake, notifier
}
