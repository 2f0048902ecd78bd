package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDoJSON_Success(t *testing.T) {
	mock := NewMockHTTPClient().AddResponse(http.StatusCreated, `{"dataset_id":"abc"}`)

	req, err := NewJSONRequest(context.Background(), http.MethodPost, "http://example.com/api/datasets", []byte(`[]`))
	if err != nil {
		t.Fatalf("NewJSONRequest failed: %v", err)
	}

	var out struct {
		DatasetID string `json:"dataset_id"`
	}
	if err := DoJSON(mock, req, &out); err != nil {
		t.Fatalf("DoJSON failed: %v", err)
	}
	if out.DatasetID != "abc" {
		t.Errorf("dataset_id = %q, want abc", out.DatasetID)
	}
	if mock.RequestCount() != 1 {
		t.Errorf("got %d requests, want 1", mock.RequestCount())
	}
	if string(mock.Bodies[0]) != "[]" {
		t.Errorf("recorded body = %q, want []", mock.Bodies[0])
	}
	if ct := mock.Requests[0].Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestDoJSON_StatusError(t *testing.T) {
	mock := NewMockHTTPClient().AddResponse(http.StatusUnprocessableEntity, `{"error":"insufficient data","kind":"insufficient_data"}`)
	req, _ := NewJSONRequest(context.Background(), http.MethodPost, "http://example.com/api/anova", nil)

	err := DoJSON(mock, req, nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", se.StatusCode)
	}
	if se.Body.Kind != "insufficient_data" {
		t.Errorf("kind = %q", se.Body.Kind)
	}
	if se.Error() != "server returned 422: insufficient data" {
		t.Errorf("Error() = %q", se.Error())
	}
}

func TestDoJSON_NonJSONErrorBody(t *testing.T) {
	mock := NewMockHTTPClient().AddResponse(http.StatusBadGateway, "upstream down")
	req, _ := NewJSONRequest(context.Background(), http.MethodGet, "http://example.com/", nil)

	err := DoJSON(mock, req, nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.Error() != "server returned 502" {
		t.Errorf("Error() = %q", se.Error())
	}
}

func TestDoJSON_TransportError(t *testing.T) {
	want := errors.New("connection refused")
	mock := NewMockHTTPClient().AddErrorResponse(want)
	req, _ := NewJSONRequest(context.Background(), http.MethodGet, "http://example.com/", nil)

	if err := DoJSON(mock, req, nil); !errors.Is(err, want) {
		t.Errorf("expected wrapped transport error, got %v", err)
	}
}

func TestDoJSON_EmptyBody(t *testing.T) {
	mock := NewMockHTTPClient().AddResponse(http.StatusOK, "")
	req, _ := NewJSONRequest(context.Background(), http.MethodGet, "http://example.com/", nil)

	var out map[string]string
	if err := DoJSON(mock, req, &out); err != nil {
		t.Errorf("empty body should not fail: %v", err)
	}
}

func TestDoJSON_RealServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		WriteJSONOK(w, map[string]int{"observations": 4})
	}))
	defer srv.Close()

	req, _ := NewJSONRequest(context.Background(), http.MethodGet, srv.URL, nil)
	var out map[string]int
	if err := DoJSON(srv.Client(), req, &out); err != nil {
		t.Fatalf("DoJSON failed: %v", err)
	}
	if out["observations"] != 4 {
		t.Errorf("observations = %d, want 4", out["observations"])
	}
}

func TestMockHTTPClient_DoFunc(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.DoFunc = func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("custom")
	}
	req, _ := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	if _, err := mock.Do(req); err == nil || err.Error() != "custom" {
		t.Errorf("expected custom error, got %v", err)
	}
}
