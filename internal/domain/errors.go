package domain

import "fmt"

// MalformedRecordError marks one input row that cannot become a
// ConflictRecord. It aborts processing of that row only; the caller logs it
// and skips the row.
type MalformedRecordError struct {
	RowID  string
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed record %q: field %q: %s", e.RowID, e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed record %q: %s", e.RowID, e.Reason)
}

// UnknownPolicyError means the caller requested a policy that does not
// exist. This is a caller or config mistake, not a data issue, and aborts
// the run.
type UnknownPolicyError struct {
	Name string
}

func (e *UnknownPolicyError) Error() string {
	return fmt.Sprintf("unknown policy %q", e.Name)
}
