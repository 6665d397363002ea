package models

import "time"

// RunReport is the single surface for every recoverable issue found during a
// run, plus the headline counts the dashboard shows next to the KPI tables.
type RunReport struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	CustomersIn int `json:"customers_in"`
	OrdersIn    int `json:"orders_in"`

	CustomersNormalized int `json:"customers_normalized"`
	OrdersNormalized    int `json:"orders_normalized"`
	OrdersResolved      int `json:"orders_resolved"`

	RejectedRows []RejectedRow    `json:"rejected_rows,omitempty"`
	Warnings     []QualityWarning `json:"warnings,omitempty"`

	// ParityChecked reports whether the relational backend ran alongside the
	// in-memory one; ParityDiffs lists any disagreements between the two.
	ParityChecked bool     `json:"parity_checked"`
	ParityDiffs   []string `json:"parity_diffs,omitempty"`
}

// RejectedCount returns the number of rows rejected at normalization.
func (r *RunReport) RejectedCount() int { return len(r.RejectedRows) }

// WarningCount returns the count of warnings carrying the given code.
func (r *RunReport) WarningCount(code IssueCode) int {
	n := 0
	for _, w := range r.Warnings {
		if w.Code == code {
			n++
		}
	}
	return n
}

// OrphanCount is the number of orders excluded because their customer could
// not be resolved.
func (r *RunReport) OrphanCount() int { return r.WarningCount(IssueOrphanedOrder) }

// DuplicateCount is the number of discarded duplicate order rows.
func (r *RunReport) DuplicateCount() int { return r.WarningCount(IssueDuplicateRow) }

// MismatchCount is the number of orders whose stated total disagreed with the
// item-derived sum beyond tolerance.
func (r *RunReport) MismatchCount() int { return r.WarningCount(IssueAmountMismatch) }
