package interaction

import (
	"fmt"
	"io"

	"github.com/lendnet/orchestrator/internal/faults"
	"github.com/olekukonko/tablewriter"
)

type (
	// Outcome is the result of one scenario step. A step that never ran is Skipped.
	Outcome struct {
		Step     Step
		Subject  string
		Expected string
		Actual   string
		Passed   bool
		Skipped  bool
		TxHash   string
		Err      string

		failure *faults.AssertionFailure
	}

	Report struct {
		Network  string
		Outcomes []Outcome
	}
)

// Passed reports whether every step ran and held.
func (r Report) Passed() bool {
	if len(r.Outcomes) != len(Steps()) {
		return false
	}
	for _, o := range r.Outcomes {
		if !o.Passed {
			return false
		}
	}
	return true
}

// Outcome returns the outcome recorded for step.
func (r Report) Outcome(step Step) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Step == step {
			return o, true
		}
	}
	return Outcome{}, false
}

func (o Outcome) status() string {
	switch {
	case o.Skipped:
		return "SKIPPED"
	case o.Err != "":
		return "ERROR"
	case o.Passed:
		return "PASS"
	default:
		return "FAIL"
	}
}

// Render writes the report as a table.
func (r Report) Render(w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.Header("Step", "Subject", "Expected", "Actual", "Status", "Tx")

	for _, o := range r.Outcomes {
		if err := table.Append(string(o.Step), o.Subject, o.Expected, o.Actual, o.status(), o.TxHash); err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	return nil
}
