package ums

import "fmt"

// Severity distinguishes the three error categories from spec §7. No stage
// recovers from a later stage's errors; composition is sequential and a
// Fatal issue short-circuits the rest of that stage.
type Severity string

const (
	// SeverityFatal aborts the current stage; no artifact is produced.
	SeverityFatal Severity = "fatal"
	// SeverityRecoverable lets the stage continue, attaching the issue to
	// the stage's warnings.
	SeverityRecoverable Severity = "recoverable"
	// SeverityExternalUnavailable marks an optional remote dependency
	// (the CQL translator) as down or timed out.
	SeverityExternalUnavailable Severity = "external_unavailable"
)

// Issue is a single validation or generation problem, tagged with its
// severity so callers can decide whether to keep going.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	NodeID   string   `json:"nodeId,omitempty"`
}

func (i Issue) Error() string {
	return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Code, i.Message)
}

// Fatal builds a Fatal Issue.
func Fatal(code, format string, args ...interface{}) Issue {
	return Issue{Severity: SeverityFatal, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Recoverable builds a Recoverable Issue.
func Recoverable(code, format string, args ...interface{}) Issue {
	return Issue{Severity: SeverityRecoverable, Code: code, Message: fmt.Sprintf(format, args...)}
}

// ExternalUnavailable builds an ExternalUnavailable Issue.
func ExternalUnavailable(code, format string, args ...interface{}) Issue {
	return Issue{Severity: SeverityExternalUnavailable, Code: code, Message: fmt.Sprintf(format, args...)}
}

// IssueList is a slice of Issue with helpers for splitting by severity.
type IssueList []Issue

// Fatals returns only the Fatal issues.
func (l IssueList) Fatals() IssueList {
	var out IssueList
	for _, i := range l {
		if i.Severity == SeverityFatal {
			out = append(out, i)
		}
	}
	return out
}

// HasFatal reports whether any issue in the list is Fatal.
func (l IssueList) HasFatal() bool {
	for _, i := range l {
		if i.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// Warnings returns non-Fatal issues, the ones carried into an artifact's
// warnings[] rather than aborting it.
func (l IssueList) Warnings() IssueList {
	var out IssueList
	for _, i := range l {
		if i.Severity != SeverityFatal {
			out = append(out, i)
		}
	}
	return out
}
