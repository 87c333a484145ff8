// internal/models/submission.go
package models

import (
	"fmt"
	"strings"
	"time"
)

// Submission is the read-only, operator-facing rendering of a finished application.
type Submission struct {
	Reference   string              `json:"reference"`
	SubmittedAt time.Time           `json:"submittedAt"`
	Sections    []SubmissionSection `json:"sections"`
	Attachments []DocumentRef       `json:"attachments,omitempty"`
}

type SubmissionSection struct {
	Title  string            `json:"title"`
	Fields []SubmissionField `json:"fields"`
}

type SubmissionField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Values flattens the submission into key/value pairs, including the reference and timestamp.
func (s *Submission) Values() map[string]string {
	out := map[string]string{
		"reference":   s.Reference,
		"submittedAt": s.SubmittedAt.UTC().Format(time.RFC3339),
	}
	for _, sec := range s.Sections {
		for _, f := range sec.Fields {
			out[f.Key] = f.Value
		}
	}
	return out
}

// Value returns the rendered value of key, or "".
func (s *Submission) Value(key string) string {
	for _, sec := range s.Sections {
		for _, f := range sec.Fields {
			if f.Key == key {
				return f.Value
			}
		}
	}
	return ""
}

// Subject is the one-line summary used for email subjects and alerts.
func (s *Submission) Subject(prefix string) string {
	name := strings.TrimSpace(s.Value("firstName") + " " + s.Value("lastName"))
	if name == "" {
		return fmt.Sprintf("%s [%s]", prefix, s.Reference)
	}
	return fmt.Sprintf("%s: %s [%s]", prefix, name, s.Reference)
}

// Text renders the submission as a plain-text body for the operator's inbox.
func (s *Submission) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "NOMINEE DIRECTOR APPLICATION\n")
	fmt.Fprintf(&b, "Reference: %s\n", s.Reference)
	fmt.Fprintf(&b, "Submitted: %s\n", s.SubmittedAt.UTC().Format("2 January 2006 15:04 MST"))

	for _, sec := range s.Sections {
		fmt.Fprintf(&b, "\n%s\n%s\n", strings.ToUpper(sec.Title), strings.Repeat("-", len(sec.Title)))
		for _, f := range sec.Fields {
			fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Value)
		}
	}

	if len(s.Attachments) > 0 {
		fmt.Fprintf(&b, "\nATTACHMENTS\n-----------\n")
		for _, a := range s.Attachments {
			fmt.Fprintf(&b, "%s (%s, %d bytes)\n", a.FileName, a.ContentType, a.Size)
		}
	}
	return b.String()
}
