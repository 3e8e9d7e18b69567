package results

import (
	"strings"

	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/shared"
)

// IssueKind names a reason a result set cannot be published.
type IssueKind string

const (
	IssueOrphaned IssueKind = "orphaned"
	IssueNoEmail  IssueKind = "no_email"
	IssueBlocked  IssueKind = "blocked"
)

// Issue is one publication blocker.
type Issue struct {
	Kind IssueKind `json:"kind"`
	// Label is the short form shown in status listings.
	Label string `json:"label"`
	// Reason is the sentence written to batch reports.
	Reason string `json:"reason"`
}

// Err maps the issue to its error kind.
func (i Issue) Err() error {
	switch i.Kind {
	case IssueOrphaned:
		return shared.ErrOrphanedData
	case IssueNoEmail:
		return shared.ErrInvalidRecipient
	case IssueBlocked:
		return shared.ErrAccountRestricted
	default:
		return shared.ErrInternalProcessing
	}
}

var (
	orphanedIssue = Issue{Kind: IssueOrphaned, Label: "Orphaned Result (No Student)", Reason: "Orphaned Result (No Student)"}
	noEmailIssue  = Issue{Kind: IssueNoEmail, Label: "No Email", Reason: "Student has no email address on record."}
	blockedIssue  = Issue{Kind: IssueBlocked, Label: "Blocked", Reason: "Student account is RESTRICTED/BLOCKED."}
)

// Classification is the readiness verdict for one result set. Issues is non-empty
// exactly when Status is ERROR.
type Classification struct {
	Status models.ReadinessStatus `json:"status"`
	Issues []Issue                `json:"issues,omitempty"`
}

// Publishable reports whether the set may be rendered and dispatched.
func (c Classification) Publishable() bool {
	return c.Status != models.StatusError
}

// Orphaned reports whether the set has no matching student.
func (c Classification) Orphaned() bool {
	return len(c.Issues) == 1 && c.Issues[0].Kind == IssueOrphaned
}

// Labels joins the short issue labels, e.g. "No Email, Blocked".
func (c Classification) Labels() string {
	labels := make([]string, len(c.Issues))
	for i, is := range c.Issues {
		labels[i] = is.Label
	}
	return strings.Join(labels, ", ")
}

// Reasons joins the report sentences of every issue.
func (c Classification) Reasons() string {
	reasons := make([]string, len(c.Issues))
	for i, is := range c.Issues {
		reasons[i] = is.Reason
	}
	return strings.Join(reasons, " ")
}

// recipientRule inspects a resolved student and returns the issue it finds, if any.
type recipientRule func(*models.StudentSnapshot) (Issue, bool)

// recipientRules run in order; every match is collected.
var recipientRules = []recipientRule{
	func(s *models.StudentSnapshot) (Issue, bool) { return noEmailIssue, !s.HasEmail() },
	func(s *models.StudentSnapshot) (Issue, bool) { return blockedIssue, s.Blocked },
}

// Classify decides the readiness of a result set. A nil student means the set's
// student reference could not be resolved.
//
// Rules, first match wins:
//  1. no student: ERROR (orphaned), nothing else is checked
//  2. any recipient issue: ERROR, even when every entry is already published
//  3. every entry published: PUBLISHED
//  4. otherwise: DRAFT
func Classify(set models.ResultSet, student *models.StudentSnapshot) Classification {
	if student == nil {
		return Classification{Status: models.StatusError, Issues: []Issue{orphanedIssue}}
	}

	var issues []Issue
	for _, rule := range recipientRules {
		if is, ok := rule(student); ok {
			issues = append(issues, is)
		}
	}

	switch {
	case len(issues) > 0:
		return Classification{Status: models.StatusError, Issues: issues}
	case set.AllPublished():
		return Classification{Status: models.StatusPublished}
	default:
		return Classification{Status: models.StatusDraft}
	}
}
