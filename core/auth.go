package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/internal/logging"
	"github.com/chemflow/equipctl/schema"
)

// StoreCredentials reads the credential from the session store on every call.
// A non-empty override token, usually from EQUIPCTL_TOKEN, takes precedence.
type StoreCredentials struct {
	store    contract.SessionStore
	override string
}

var _ contract.CredentialReader = &StoreCredentials{}

// NewStoreCredentials creates a credential reader over store.
func NewStoreCredentials(store contract.SessionStore, override string) *StoreCredentials {
	return &StoreCredentials{store: store, override: override}
}

// CurrentSession implements contract.CredentialReader.
// An override replaces only the stored token; the stored profile is kept.
func (c *StoreCredentials) CurrentSession() (schema.Session, bool) {
	var session schema.Session
	var ok bool
	if c.store != nil {
		var err error
		session, ok, err = c.store.Load()
		if err != nil {
			logging.Warnw("session could not be read", "error", err)
			session, ok = schema.Session{}, false
		}
	}
	if c.override != "" {
		if !ok {
			session = schema.Session{}
		}
		session.Token = c.override
		return session, true
	}
	return session, ok && session.Valid()
}

// Authenticator signs users in and out. It is the only writer of the session store.
type Authenticator struct {
	collab  contract.Collaborator
	store   contract.SessionStore
	runs    contract.RunStore
	timeout time.Duration
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(collab contract.Collaborator, store contract.SessionStore, runs contract.RunStore, timeout time.Duration) *Authenticator {
	if timeout <= 0 {
		timeout = contract.DefaultTimeout
	}
	return &Authenticator{collab: collab, store: store, runs: runs, timeout: timeout}
}

// Login exchanges credentials for a token and saves the session.
func (a *Authenticator) Login(ctx context.Context, username, password string) (schema.Session, error) {
	runID := beginRun(a.runs, schema.LoginOp)
	session, err := a.login(ctx, username, password)
	finishRun(a.runs, runID, err, "")
	return session, err
}

func (a *Authenticator) login(ctx context.Context, username, password string) (schema.Session, error) {
	if err := requireFields("login", map[string]string{"username": username, "password": password}, "username", "password"); err != nil {
		return schema.Session{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.collab.Login(ctx, schema.LoginRequest{Username: username, Password: password})
	if err != nil {
		return schema.Session{}, err
	}
	session := schema.Session{Token: resp.Token, User: resp.User, IssuedAt: time.Now().UTC()}
	if session.User.Username == "" {
		session.User.Username = username
	}
	if err := a.store.Save(session); err != nil {
		return schema.Session{}, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// Signup registers an account. It does not sign in.
func (a *Authenticator) Signup(ctx context.Context, req schema.SignupRequest) error {
	runID := beginRun(a.runs, schema.SignupOp)
	err := a.signup(ctx, req)
	finishRun(a.runs, runID, err, "")
	return err
}

func (a *Authenticator) signup(ctx context.Context, req schema.SignupRequest) error {
	fields := map[string]string{
		"username":   req.Username,
		"password":   req.Password,
		"first-name": req.FirstName,
		"last-name":  req.LastName,
		"email":      req.Email,
		"role":       req.Role,
		"company":    req.Company,
	}
	if err := requireFields("signup", fields, "username", "password", "first-name", "last-name", "email", "role", "company"); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.collab.Signup(ctx, req)
}

// Logout invalidates the token remotely and then forgets the session.
// The session is kept when the collaborator does not confirm.
func (a *Authenticator) Logout(ctx context.Context) error {
	runID := beginRun(a.runs, schema.LogoutOp)
	err := a.logout(ctx)
	finishRun(a.runs, runID, err, "")
	return err
}

func (a *Authenticator) logout(ctx context.Context) error {
	session, ok, err := a.store.Load()
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	if !ok || !session.Valid() {
		return contract.NewAuthError("logout", 0, errNoCredential)
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	if err := a.collab.Logout(ctx, session.Token); err != nil {
		return err
	}
	return a.store.Delete()
}

// Whoami returns the signed-in profile.
func (a *Authenticator) Whoami() (schema.Session, bool, error) {
	session, ok, err := a.store.Load()
	if err != nil || !ok || !session.Valid() {
		return schema.Session{}, false, err
	}
	return session, true, nil
}

// requireFields checks that each named field is non-blank, in order.
func requireFields(op string, values map[string]string, order ...string) error {
	for _, name := range order {
		if strings.TrimSpace(values[name]) == "" {
			err := contract.NewValidationError(op, contract.ReasonMissingField)
			err.Err = fmt.Errorf("%s is required", name)
			return err
		}
	}
	return nil
}
