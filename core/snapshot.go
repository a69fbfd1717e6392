package core

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/schema"
)

// rawSnapshot mirrors the collaborator payload with every field optional,
// so that absent fields can be told apart from zero values.
type rawSnapshot struct {
	TotalCount   *int               `json:"total_count"`
	Averages     map[string]float64 `json:"averages"`
	Distribution *struct {
		Labels []string `json:"labels"`
		Values []int    `json:"values"`
	} `json:"distribution"`
	CreatedAt *string `json:"created_at"`
}

// FromCollaboratorPayload validates a statistics payload and builds a snapshot.
// Unknown averages keys are kept. Any shape problem yields a ShapeError.
func FromCollaboratorPayload(data []byte) (schema.StatsSnapshot, error) {
	return buildSnapshot("snapshot", data)
}

func buildSnapshot(op string, data []byte) (schema.StatsSnapshot, error) {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return schema.StatsSnapshot{}, contract.NewShapeError(op, err)
	}
	snap, err := raw.validate()
	if err != nil {
		return schema.StatsSnapshot{}, contract.NewShapeError(op, err)
	}
	return snap, nil
}

func (r rawSnapshot) validate() (schema.StatsSnapshot, error) {
	if r.TotalCount == nil {
		return schema.StatsSnapshot{}, errors.New("missing total_count")
	}
	if *r.TotalCount < 0 {
		return schema.StatsSnapshot{}, fmt.Errorf("negative total_count %d", *r.TotalCount)
	}
	if r.Averages == nil {
		return schema.StatsSnapshot{}, errors.New("missing averages")
	}
	for _, key := range schema.RequiredAverageKeys {
		if _, ok := r.Averages[key]; !ok {
			return schema.StatsSnapshot{}, fmt.Errorf("missing averages.%s", key)
		}
	}
	if r.Distribution == nil {
		return schema.StatsSnapshot{}, errors.New("missing distribution")
	}
	labels, values := r.Distribution.Labels, r.Distribution.Values
	if len(labels) != len(values) {
		return schema.StatsSnapshot{}, fmt.Errorf("distribution has %d labels but %d values", len(labels), len(values))
	}
	seen := make(map[string]struct{}, len(labels))
	for i, label := range labels {
		if _, dup := seen[label]; dup {
			return schema.StatsSnapshot{}, fmt.Errorf("duplicate distribution label %q", label)
		}
		seen[label] = struct{}{}
		if values[i] < 0 {
			return schema.StatsSnapshot{}, fmt.Errorf("negative count %d for %q", values[i], label)
		}
	}
	if r.CreatedAt == nil || *r.CreatedAt == "" {
		return schema.StatsSnapshot{}, errors.New("missing created_at")
	}
	if _, err := schema.ParseTimestamp(*r.CreatedAt); err != nil {
		return schema.StatsSnapshot{}, fmt.Errorf("created_at %q is not ISO-8601", *r.CreatedAt)
	}

	averages := make(map[string]float64, len(r.Averages))
	for k, v := range r.Averages {
		averages[k] = v
	}
	return schema.StatsSnapshot{
		TotalCount: *r.TotalCount,
		Averages:   averages,
		Distribution: schema.Distribution{
			Labels: append([]string{}, labels...),
			Values: append([]int{}, values...),
		},
		CreatedAt: *r.CreatedAt,
	}, nil
}

// DistributionSum adds up the distribution counts.
func DistributionSum(d schema.Distribution) int {
	sum := 0
	for _, v := range d.Values {
		sum += v
	}
	return sum
}

// CheckTotals reports whether the distribution adds up to the total count.
func CheckTotals(s schema.StatsSnapshot) (sum int, ok bool) {
	sum = DistributionSum(s.Distribution)
	return sum, sum == s.TotalCount
}
