// Package schema has the models shared by every part of equipctl.
package schema

import (
	"fmt"
	"io"
	"slices"
	"time"
)

// Distribution is the per-type equipment count sent by the collaborator.
// Labels and Values are parallel and always the same length.
type Distribution struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

// Len returns the number of categories.
func (d Distribution) Len() int {
	return len(d.Labels)
}

// Clone returns a copy that shares no memory with d.
func (d Distribution) Clone() Distribution {
	return Distribution{
		Labels: slices.Clone(d.Labels),
		Values: slices.Clone(d.Values),
	}
}

// StatsSnapshot is the validated summary of one analysed dataset.
// A snapshot is immutable once built; CreatedAt is the collaborator's timestamp.
type StatsSnapshot struct {
	TotalCount   int                `json:"total_count"`
	Averages     map[string]float64 `json:"averages"`
	Distribution Distribution       `json:"distribution"`
	CreatedAt    string             `json:"created_at"`
}

// Average returns the named average and whether it was present.
func (s StatsSnapshot) Average(key string) (float64, bool) {
	v, ok := s.Averages[key]
	return v, ok
}

// AverageKeys returns the averages keys with the required ones first
// and any extra keys in lexical order.
func (s StatsSnapshot) AverageKeys() []string {
	keys := make([]string, 0, len(s.Averages))
	for _, k := range RequiredAverageKeys {
		if _, ok := s.Averages[k]; ok {
			keys = append(keys, k)
		}
	}
	var extra []string
	for k := range s.Averages {
		if !slices.Contains(RequiredAverageKeys, k) {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	return append(keys, extra...)
}

// CreatedTime parses CreatedAt. The zero time is returned when it cannot be parsed.
func (s StatsSnapshot) CreatedTime() time.Time {
	t, err := ParseTimestamp(s.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// HistoryEntry is one record returned by the history endpoint.
// Position is the 1-based index in the returned order.
type HistoryEntry struct {
	Position int `json:"position"`
	StatsSnapshot
}

// ValidFile is a user-selected file that passed the intake check.
type ValidFile struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
}

// ExportRequest is the body sent to the download endpoint.
type ExportRequest struct {
	ChartImage string        `json:"chartImage"`
	Stats      StatsSnapshot `json:"stats"`
	CreatedAt  string        `json:"created_at"`
	Identity   string        `json:"identity,omitempty"`
}

// ExportArtifact is the opaque document returned by the collaborator.
// Content must be closed by whoever delivers it.
type ExportArtifact struct {
	Filename    string
	ContentType string
	Content     io.ReadCloser
}

// ExportResult describes a delivered artifact.
type ExportResult struct {
	Path      string `json:"path"`
	Bytes     int64  `json:"bytes"`
	CreatedAt string `json:"created_at"`
}

// timestampLayouts are the ISO-8601 variants the collaborator emits.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an ISO-8601 timestamp in any of the collaborator's layouts.
func ParseTimestamp(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// SnapshotView is what is on screen: a snapshot, its chart and where it came from.
// NoData is set when the snapshot has fewer rows than the configured minimum,
// in which case a placeholder replaces the chart.
type SnapshotView struct {
	Snapshot StatsSnapshot `json:"snapshot"`
	Chart    ChartDataset  `json:"chart"`
	Source   string        `json:"source"`
	NoData   bool          `json:"no_data"`
}

// HistorySourceLabel names the source of the history entry at position.
func HistorySourceLabel(position int) string {
	return fmt.Sprintf("%s#%d", HistorySource, position)
}
