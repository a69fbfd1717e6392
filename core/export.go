package core

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/schema"
)

// ExportFilename derives the document name from the snapshot timestamp.
func ExportFilename(createdAt string) string {
	name := strings.NewReplacer(":", "-", "/", "-", `\`, "-").Replace(createdAt)
	return name + ".pdf"
}

// Export asks the collaborator for a protected report of the snapshot.
// The returned artifact must be delivered or closed by the caller.
func Export(ctx context.Context, collab contract.Collaborator, creds contract.CredentialReader, image []byte, snapshot *schema.StatsSnapshot) (schema.ExportArtifact, error) {
	if snapshot == nil {
		return schema.ExportArtifact{}, contract.NewValidationError("export", contract.ReasonNoSnapshot)
	}
	session, ok := creds.CurrentSession()
	if !ok || !session.Valid() {
		return schema.ExportArtifact{}, contract.NewAuthError("export", 0, errNoCredential)
	}
	identity := session.User.Identity()
	if identity == "" {
		return schema.ExportArtifact{}, contract.NewAuthError("export", 0, errNoIdentity)
	}
	req := schema.ExportRequest{
		ChartImage: base64.StdEncoding.EncodeToString(image),
		Stats:      *snapshot,
		CreatedAt:  snapshot.CreatedAt,
		Identity:   identity,
	}
	content, contentType, err := collab.Download(ctx, session.Token, req)
	if err != nil {
		return schema.ExportArtifact{}, err
	}
	return schema.ExportArtifact{
		Filename:    ExportFilename(snapshot.CreatedAt),
		ContentType: contentType,
		Content:     content,
	}, nil
}

// Deliver copies the artifact into dir. The file appears under its final name
// only once the whole stream has been written. The artifact is always closed.
func Deliver(artifact schema.ExportArtifact, dir string) (schema.ExportResult, error) {
	defer artifact.Content.Close() //nolint:errcheck

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return schema.ExportResult{}, fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".equipctl-*.pdf.part")
	if err != nil {
		return schema.ExportResult{}, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	src := &trackingReader{r: artifact.Content}
	n, err := io.Copy(tmp, src)
	if err != nil {
		cleanup()
		if src.err != nil {
			return schema.ExportResult{}, classifyStreamError(src.err)
		}
		return schema.ExportResult{}, fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return schema.ExportResult{}, fmt.Errorf("failed to flush report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return schema.ExportResult{}, fmt.Errorf("failed to close report: %w", err)
	}

	final := filepath.Join(dir, artifact.Filename)
	if err := os.Rename(tmpName, final); err != nil {
		_ = os.Remove(tmpName)
		return schema.ExportResult{}, fmt.Errorf("failed to save report: %w", err)
	}
	return schema.ExportResult{Path: final, Bytes: n}, nil
}

// trackingReader remembers read errors so they can be told apart from write errors.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF {
		t.err = err
	}
	return n, err
}

func classifyStreamError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &contract.PipelineError{Op: "export", Kind: contract.TimeoutFailure, Err: err}
	}
	return &contract.PipelineError{Op: "export", Kind: contract.NetworkFailure, Err: err}
}
