package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/showcasehq/showcase/internal/config"
	"github.com/showcasehq/showcase/internal/model"
)

// ---------------------------------------------------------------------------
// queryString tests
// ---------------------------------------------------------------------------

func TestQueryString(t *testing.T) {
	tests := []struct {
		name string
		url  string
		key  string
		want string
	}{
		{"returns value", "/test?error=CredentialsSignin", "error", "CredentialsSignin"},
		{"returns empty for missing", "/test", "error", ""},
		{"decodes escapes", "/test?callbackUrl=%2Fadmin%2Fx", "callbackUrl", "/admin/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			if got := queryString(r, tt.key); got != tt.want {
				t.Errorf("queryString(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// localRedirect tests
// ---------------------------------------------------------------------------

func TestLocalRedirect(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		prefix   string
		fallback string
		want     string
	}{
		{"empty uses fallback", "", "/admin", "/admin", "/admin"},
		{"path under prefix", "/admin/projects", "/admin", "/admin", "/admin/projects"},
		{"prefix itself", "/admin", "/admin", "/", "/admin"},
		{"keeps query", "/admin/projects?page=2", "/admin", "/admin", "/admin/projects?page=2"},
		{"outside prefix", "/pricing", "/admin", "/admin", "/admin"},
		{"lookalike prefix", "/administrator", "/admin", "/admin", "/admin"},
		{"traversal out of prefix", "/admin/../pricing", "/admin", "/admin", "/admin"},
		{"absolute URL", "https://evil.example/admin", "/admin", "/admin", "/admin"},
		{"protocol relative", "//evil.example/admin", "/admin", "/admin", "/admin"},
		{"backslash trick", "/\\evil.example", "/", "/", "/"},
		{"relative path", "admin", "/admin", "/admin", "/admin"},
		{"root prefix allows any local path", "/pricing", "/", "/", "/pricing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := localRedirect(tt.target, tt.prefix, tt.fallback); got != tt.want {
				t.Errorf("localRedirect(%q, %q, %q) = %q, want %q", tt.target, tt.prefix, tt.fallback, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Request body tests
// ---------------------------------------------------------------------------

func TestIsFormPost(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/x-www-form-urlencoded", true},
		{"application/x-www-form-urlencoded; charset=utf-8", true},
		{"multipart/form-data; boundary=x", true},
		{"application/json", false},
		{"", false},
		{"not a media type;;", false},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", nil)
			r.Header.Set("Content-Type", tt.contentType)
			if got := isFormPost(r); got != tt.want {
				t.Errorf("isFormPost(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}

func TestReadForm(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader("email=a%40b.c&password=x&email=second"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	got, err := readForm(r)
	if err != nil {
		t.Fatalf("readForm: %v", err)
	}
	if got["email"] != "a@b.c" {
		t.Errorf("email = %q, want first value", got["email"])
	}
	if got["password"] != "x" {
		t.Errorf("password = %q", got["password"])
	}
}

func TestReadFormMultipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("email", "a@b.c")
	mw.WriteField("password", "secret")
	mw.Close()

	r := httptest.NewRequest("POST", "/", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	got, err := readForm(r)
	if err != nil {
		t.Fatalf("readForm: %v", err)
	}
	if got["email"] != "a@b.c" || got["password"] != "secret" {
		t.Errorf("got %v", got)
	}
}

func TestReadJSONRejectsOversizedBody(t *testing.T) {
	big := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	r := httptest.NewRequest("POST", "/", strings.NewReader(big))

	var v map[string]string
	if err := readJSON(r, &v); err == nil {
		t.Error("expected an error for a body over the limit")
	}
}

// ---------------------------------------------------------------------------
// Response helper tests
// ---------------------------------------------------------------------------

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, http.StatusBadRequest, "bad input", map[string]interface{}{"field": "email"})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var resp model.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != 400 || resp.Error.Message != "bad input" {
		t.Errorf("error = %+v", resp.Error)
	}
	if resp.Error.Context["field"] != "email" {
		t.Errorf("context = %v", resp.Error.Context)
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusCreated, map[string]string{"key": "value"})

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusCreated)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestWriteList(t *testing.T) {
	rr := httptest.NewRecorder()
	writeList[string](rr, nil)

	var resp struct {
		Resource []string `json:"resource"`
		Meta     struct {
			Count int `json:"count"`
		} `json:"meta"`
	}
	raw := rr.Body.Bytes()
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Resource == nil || resp.Meta.Count != 0 {
		t.Errorf("nil slice should encode as an empty list, got %s", raw)
	}
}

func TestWriteStoreError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{config.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("create tier: %w", config.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: name is required", model.ErrValidation), http.StatusBadRequest},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))
			rr := httptest.NewRecorder()
			writeStoreError(rr, logger, tt.err, "Project")

			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusInternalServerError {
				if strings.Contains(rr.Body.String(), tt.err.Error()) {
					t.Error("internal error details leaked to the client")
				}
				if !strings.Contains(logs.String(), "store operation failed") {
					t.Error("internal error should be logged")
				}
			}
		})
	}
}
