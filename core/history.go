package core

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/internal/logging"
	"github.com/chemflow/equipctl/schema"
)

// historyPayload is the body of the history endpoint.
type historyPayload struct {
	ResultData *[]json.RawMessage `json:"resultData"`
}

// FetchHistory lists the user's recent snapshots in the order the collaborator
// returned them. It never fails: any error yields an empty list and a diagnostic
// in the log.
func FetchHistory(ctx context.Context, collab contract.Collaborator, creds contract.CredentialReader) []schema.HistoryEntry {
	entries, err := fetchHistory(ctx, collab, creds)
	if err != nil {
		logging.Errorw("history unavailable", "kind", contract.KindOf(err), "error", err)
		return []schema.HistoryEntry{}
	}
	return entries
}

// fetchHistory does the work of FetchHistory but reports the failure.
// Malformed entries are skipped and logged; the rest keep their order.
func fetchHistory(ctx context.Context, collab contract.Collaborator, creds contract.CredentialReader) ([]schema.HistoryEntry, error) {
	session, ok := creds.CurrentSession()
	if !ok || !session.Valid() {
		return nil, contract.NewAuthError("history", 0, errNoCredential)
	}
	body, err := collab.FetchRecords(ctx, session.Token)
	if err != nil {
		return nil, err
	}

	var payload historyPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, contract.NewShapeError("history", err)
	}
	if payload.ResultData == nil {
		return nil, contract.NewShapeError("history", errors.New("missing resultData"))
	}

	entries := make([]schema.HistoryEntry, 0, len(*payload.ResultData))
	for i, raw := range *payload.ResultData {
		snap, err := buildSnapshot("history", raw)
		if err != nil {
			logging.Warnw("history entry skipped", "index", i, "error", err)
			continue
		}
		entries = append(entries, schema.HistoryEntry{Position: len(entries) + 1, StatsSnapshot: snap})
	}
	return entries, nil
}
