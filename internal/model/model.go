// Package model defines the core domain types for the community registration form.
package model

import (
	"fmt"
	"path"
	"strings"
)

// ShareQuota is the number of share-intent invocations required before a
// registration may be submitted.
const ShareQuota = 5

// SubmittedFlagKey is the name under which the terminal "submitted" flag is
// persisted for a client.
const SubmittedFlagKey = "techForGirlsSubmitted"

// SubmittedFlagValue is the only persisted value that marks a client as submitted.
const SubmittedFlagValue = "true"

// NoFileUploaded is sent to the gateway in place of a file name when the
// draft carries no attachment.
const NoFileUploaded = "No file uploaded"

// AcceptFilter is the advisory file-picker filter.
const AcceptFilter = "image/*,.pdf,.doc,.docx"

// Field names a single draft entry.
type Field string

const (
	FieldName    Field = "name"
	FieldPhone   Field = "phone"
	FieldEmail   Field = "email"
	FieldCollege Field = "college"
	FieldFile    Field = "file"
)

// TextFields lists the editable text fields in form order.
var TextFields = []Field{FieldName, FieldPhone, FieldEmail, FieldCollege}

// IsText reports whether f is one of the four text fields.
func (f Field) IsText() bool {
	for _, t := range TextFields {
		if f == t {
			return true
		}
	}
	return false
}

// Colleges is the list offered by the College/Department select.
// Any non-blank value is accepted; the list is presentational only.
var Colleges = []string{
	"Computer Science",
	"Information Technology",
	"Electronics",
	"Mechanical",
	"Civil",
	"Other",
}

// Attachment describes a user-selected file. Only metadata is held; the
// bytes never pass through this system.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// AcceptsFile reports whether a file matches the advisory AcceptFilter.
// It is never used to reject a selection.
func AcceptsFile(name, contentType string) bool {
	if strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return true
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf", ".doc", ".docx":
		return true
	}
	return false
}

// Draft is the in-progress registration entry. The empty string is the
// "unset" sentinel for text fields.
type Draft struct {
	Name    string      `json:"name"`
	Phone   string      `json:"phone"`
	Email   string      `json:"email"`
	College string      `json:"college"`
	File    *Attachment `json:"file,omitempty"`
}

// Value returns the current text of field f.
func (d Draft) Value(f Field) string {
	switch f {
	case FieldName:
		return d.Name
	case FieldPhone:
		return d.Phone
	case FieldEmail:
		return d.Email
	case FieldCollege:
		return d.College
	case FieldFile:
		if d.File != nil {
			return d.File.Name
		}
	}
	return ""
}

// Set overwrites text field f. It reports false for non-text fields.
func (d *Draft) Set(f Field, value string) bool {
	switch f {
	case FieldName:
		d.Name = value
	case FieldPhone:
		d.Phone = value
	case FieldEmail:
		d.Email = value
	case FieldCollege:
		d.College = value
	default:
		return false
	}
	return true
}

// FileName returns the attachment's display name, or NoFileUploaded.
func (d Draft) FileName() string {
	if d.File == nil || d.File.Name == "" {
		return NoFileUploaded
	}
	return d.File.Name
}

// Clone returns a deep copy of the draft.
func (d Draft) Clone() Draft {
	if d.File != nil {
		f := *d.File
		d.File = &f
	}
	return d
}

// ValidationErrors maps a field to a human-readable message.
type ValidationErrors map[Field]string

// Clone returns a copy that shares no storage with e.
func (e ValidationErrors) Clone() ValidationErrors {
	out := make(ValidationErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// SubmissionState is the lifecycle of a single registration attempt.
type SubmissionState int

const (
	StateIdle SubmissionState = iota
	StateInFlight
	StateSubmitted
)

func (s SubmissionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInFlight:
		return "in-flight"
	case StateSubmitted:
		return "submitted"
	}
	return "unknown"
}

// MarshalText encodes the state by name.
func (s SubmissionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name produced by MarshalText.
func (s *SubmissionState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = StateIdle
	case "in-flight":
		*s = StateInFlight
	case "submitted":
		*s = StateSubmitted
	default:
		return fmt.Errorf("unknown submission state %q", text)
	}
	return nil
}

// Snapshot is a read-only copy of a controller's state, used for rendering.
type Snapshot struct {
	Draft        Draft            `json:"draft"`
	Errors       ValidationErrors `json:"errors"`
	ShareCount   int              `json:"share_count"`
	ShareQuota   int              `json:"share_quota"`
	State        SubmissionState  `json:"state"`
	SubmitLabel  string           `json:"submit_label"`
	ShareLabel   string           `json:"share_label"`
	CanSubmit    bool             `json:"can_submit"`
	SharingDone  bool             `json:"sharing_done"`
	FileAccepted bool             `json:"file_accepted"`
}

// FormResponse is the JSON envelope returned by every registration endpoint.
type FormResponse struct {
	State   Snapshot `json:"state"`
	Notices []string `json:"notices"`
	Open    []string `json:"open"`
}

// FieldUpdateRequest is the payload for updating a single text field.
type FieldUpdateRequest struct {
	Value string `json:"value"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
