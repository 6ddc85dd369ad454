// Package gateway forwards a completed registration to the external
// spreadsheet-backed endpoint and classifies the outcome.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Shivanand-hulikatti/community-registration/internal/model"
)

// FallbackMessage is used when the endpoint reports failure without a
// usable error description.
const FallbackMessage = "Submission failed"

// SubmissionError is returned for every failed submission. Its Error text is
// the message shown to the registrant.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string { return e.Message }

func (e *SubmissionError) Unwrap() error { return e.Err }

// SheetGateway posts registrations to a single configured endpoint.
type SheetGateway struct {
	endpoint string
	client   *http.Client
}

// New constructs a SheetGateway. A nil client uses http.DefaultClient; no
// timeout is imposed beyond the client's own.
func New(endpoint string, client *http.Client) *SheetGateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &SheetGateway{endpoint: endpoint, client: client}
}

// Encode builds the form body for d. Text fields are sent verbatim and the
// attachment is represented by its display name only.
func Encode(d model.Draft) url.Values {
	v := url.Values{}
	v.Set("name", d.Name)
	v.Set("phone", d.Phone)
	v.Set("email", d.Email)
	v.Set("college", d.College)
	v.Set("file", d.FileName())
	return v
}

// Submit issues exactly one POST and waits for exactly one response.
// The HTTP status is not consulted; the JSON body alone decides the outcome.
func (g *SheetGateway) Submit(ctx context.Context, d model.Draft) error {
	body := Encode(d).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, strings.NewReader(body))
	if err != nil {
		return &SubmissionError{Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return &SubmissionError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &SubmissionError{Message: fmt.Sprintf("read response: %v", err), Err: err}
	}

	// Keys are matched exactly; struct decoding would fold case.
	var res map[string]json.RawMessage
	if err := json.Unmarshal(raw, &res); err != nil {
		return &SubmissionError{Message: fmt.Sprintf("invalid response from registration endpoint: %v", err), Err: err}
	}
	if !truthy(res["success"]) {
		return &SubmissionError{Message: errorText(res["error"])}
	}
	return nil
}

// truthy applies loose boolean semantics: true, non-zero numbers, non-empty
// strings, objects and arrays are true; false, 0, "", null and absent are not.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 'n', 'f':
		return false
	case 't', '{', '[':
		return true
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return false
		}
		return s != ""
	default:
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return false
		}
		return n != 0
	}
}

func errorText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return FallbackMessage
	}
	return s
}
