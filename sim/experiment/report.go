package experiment

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var reportJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Report is the serialized outcome of a full experiment. ID and CreatedAt
// identify the report artifact itself; everything below them is a pure
// function of the experiment definition.
type Report struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Seed      int64     `json:"seed"`
	Runs      int       `json:"runs"`

	Scenarios []*ScenarioResult `json:"scenarios"`

	// Comparisons relate every scenario after the first to the first,
	// which acts as the reference.
	Comparisons []Comparison `json:"comparisons,omitempty"`
}

// NewReport assembles a Report from reduced scenario results, comparing
// each scenario against the first one.
func NewReport(e *Experiment, scenarios []*ScenarioResult) *Report {
	r := &Report{
		ID:        uuid.NewString(),
		Name:      e.Name,
		CreatedAt: time.Now().UTC(),
		Seed:      e.Seed,
		Runs:      e.Runs,
		Scenarios: scenarios,
	}
	if len(scenarios) > 1 {
		ref := scenarios[0]
		for _, s := range scenarios[1:] {
			r.Comparisons = append(r.Comparisons, Compare(ref, s))
		}
	}
	return r
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := reportJSON.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
