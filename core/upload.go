package core

import (
	"context"
	"errors"
	"io"

	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/schema"
)

var (
	errNoCredential = errors.New("not signed in")
	errNoIdentity   = errors.New("signed-in profile has no email or username; run 'equipctl login'")
)

// SubmitUpload sends a validated file to the collaborator and builds the
// resulting snapshot. It issues at most one request and never retries.
// Without a credential no request is made.
func SubmitUpload(ctx context.Context, collab contract.Collaborator, creds contract.CredentialReader, file schema.ValidFile, content io.Reader) (schema.StatsSnapshot, error) {
	session, ok := creds.CurrentSession()
	if !ok || !session.Valid() {
		return schema.StatsSnapshot{}, contract.NewAuthError("upload", 0, errNoCredential)
	}
	body, err := collab.Upload(ctx, session.Token, file, content)
	if err != nil {
		return schema.StatsSnapshot{}, err
	}
	return buildSnapshot("upload", body)
}
