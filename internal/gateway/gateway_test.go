package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/community-registration/internal/model"
)

func validDraft() model.Draft {
	return model.Draft{
		Name:    "Asha Rao",
		Phone:   "(987) 654-3210",
		Email:   "asha@example.com",
		College: "Computer Science",
		File:    &model.Attachment{Name: "resume.pdf", ContentType: "application/pdf"},
	}
}

func TestSubmit_EncodesDraft(t *testing.T) {
	var (
		gotMethod, gotType string
		gotForm            url.Values
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotForm, _ = url.ParseQuery(string(body))
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	err := New(srv.URL, srv.Client()).Submit(context.Background(), validDraft())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/x-www-form-urlencoded", gotType)
	assert.Equal(t, "Asha Rao", gotForm.Get("name"))
	assert.Equal(t, "(987) 654-3210", gotForm.Get("phone"), "phone is sent verbatim, not normalised")
	assert.Equal(t, "asha@example.com", gotForm.Get("email"))
	assert.Equal(t, "Computer Science", gotForm.Get("college"))
	assert.Equal(t, "resume.pdf", gotForm.Get("file"))
}

func TestEncode_NoFile(t *testing.T) {
	d := validDraft()
	d.File = nil
	assert.Equal(t, model.NoFileUploaded, Encode(d).Get("file"))
}

func TestSubmit_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"success bool", http.StatusOK, `{"success":true}`, ""},
		{"success string", http.StatusOK, `{"success":"true"}`, ""},
		{"success number", http.StatusOK, `{"success":1}`, ""},
		{"success despite status", http.StatusInternalServerError, `{"success":true}`, ""},
		{"failure with message", http.StatusOK, `{"success":false,"error":"quota exceeded"}`, "quota exceeded"},
		{"failure without message", http.StatusOK, `{"success":false}`, FallbackMessage},
		{"failure non-string error", http.StatusOK, `{"success":0,"error":{"code":7}}`, FallbackMessage},
		{"missing success", http.StatusOK, `{}`, FallbackMessage},
		{"empty string success", http.StatusOK, `{"success":""}`, FallbackMessage},
		{"capitalised success key", http.StatusOK, `{"Success":true}`, FallbackMessage},
		{"upper case success key", http.StatusOK, `{"SUCCESS":1}`, FallbackMessage},
		{"exact key wins over folded key", http.StatusOK, `{"success":false,"Success":true}`, FallbackMessage},
		{"capitalised error key", http.StatusOK, `{"success":false,"Error":"quota exceeded"}`, FallbackMessage},
		{"not json", http.StatusBadGateway, `<html>oops</html>`, "invalid response from registration endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := New(srv.URL, srv.Client()).Submit(context.Background(), validDraft())
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			var subErr *SubmissionError
			require.True(t, errors.As(err, &subErr), "want *SubmissionError, got %T", err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSubmit_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	err := New(endpoint, nil).Submit(context.Background(), validDraft())

	var subErr *SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.NotEmpty(t, subErr.Message)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestSubmit_ExactlyOneRequest(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"success":false,"error":"busy"}`))
	}))
	defer srv.Close()

	_ = New(srv.URL, srv.Client()).Submit(context.Background(), validDraft())
	assert.Equal(t, 1, calls)
}
