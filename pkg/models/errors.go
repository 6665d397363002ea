package models

import "fmt"

// IssueCode classifies a problem found while processing a run.
type IssueCode string

// Row-level codes. A row carrying one of these is rejected and reported;
// the run continues.
const (
	IssueMissingField     IssueCode = "MissingField"
	IssueInvalidPhone     IssueCode = "InvalidPhone"
	IssueInvalidAmount    IssueCode = "InvalidAmount"
	IssueInvalidQuantity  IssueCode = "InvalidQuantity"
	IssueInvalidTimestamp IssueCode = "InvalidTimestamp"
	IssueUnknownZone      IssueCode = "UnknownZone"
)

// Data-quality warning codes. The affected order is reported but the run
// continues with the documented fallback behavior.
const (
	IssueOrphanedOrder  IssueCode = "OrphanedOrder"
	IssueAmountMismatch IssueCode = "AmountMismatch"
	IssueDuplicateRow   IssueCode = "DuplicateRow"
)

// Run-level codes. These abort the run and leave persisted storage untouched.
const (
	IssueBackendUnavailable    IssueCode = "BackendUnavailable"
	IssueLoadTransactionFailed IssueCode = "LoadTransactionFailed"
)

// RejectedRow records a source row that failed normalization.
type RejectedRow struct {
	Source   string    `json:"source"` // "customers" or "orders"
	RowIndex int       `json:"row_index"`
	Key      string    `json:"key,omitempty"` // business key when one was readable
	Field    string    `json:"field,omitempty"`
	Code     IssueCode `json:"code"`
	Reason   string    `json:"reason"`
}

func (r RejectedRow) String() string {
	if r.Field != "" {
		return fmt.Sprintf("%s row %d: %s on field %q: %s", r.Source, r.RowIndex, r.Code, r.Field, r.Reason)
	}
	return fmt.Sprintf("%s row %d: %s: %s", r.Source, r.RowIndex, r.Code, r.Reason)
}

// QualityWarning records a recoverable data-quality finding from reconciliation.
type QualityWarning struct {
	Code       IssueCode `json:"code"`
	OrderID    string    `json:"order_id,omitempty"`
	CustomerID string    `json:"customer_id,omitempty"`
	Detail     string    `json:"detail"`
}

func (w QualityWarning) String() string {
	return fmt.Sprintf("%s order=%s customer=%s: %s", w.Code, w.OrderID, w.CustomerID, w.Detail)
}

// RunError is a fatal, run-level failure. It aborts the run with no partial
// commit and surfaces to the scheduler as a non-zero outcome.
type RunError struct {
	Code  IssueCode
	Cause error
}

func (e *RunError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	}
	return string(e.Code)
}

func (e *RunError) Unwrap() error { return e.Cause }

// NewRunError wraps cause as a fatal run-level error.
func NewRunError(code IssueCode, cause error) *RunError {
	return &RunError{Code: code, Cause: cause}
}
