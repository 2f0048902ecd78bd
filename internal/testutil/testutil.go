// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers and the canonical datasets
// used across the anova, api and cmd tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/anova.report/internal/anova"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// ThreeRows is a 3×3 grid with distinct row levels and a small column effect.
// Its decomposition is SSB=122, SSW=6, SSC=2, SSE=4.
func ThreeRows() anova.Dataset {
	return anova.Dataset{
		{Attribute1: 10, Attribute2: 12, Attribute3: 11},
		{Attribute1: 20, Attribute2: 19, Attribute3: 21},
		{Attribute1: 15, Attribute2: 14, Attribute3: 16},
	}
}

// WithOutlier is nine ordinary rows followed by one row that lies more than
// two standard deviations above the mean in every column.
func WithOutlier() anova.Dataset {
	return anova.Dataset{
		{Attribute1: 10, Attribute2: 12, Attribute3: 11},
		{Attribute1: 20, Attribute2: 19, Attribute3: 21},
		{Attribute1: 15, Attribute2: 14, Attribute3: 16},
		{Attribute1: 12, Attribute2: 13, Attribute3: 12},
		{Attribute1: 18, Attribute2: 17, Attribute3: 19},
		{Attribute1: 14, Attribute2: 15, Attribute3: 13},
		{Attribute1: 16, Attribute2: 16, Attribute3: 17},
		{Attribute1: 11, Attribute2: 13, Attribute3: 12},
		{Attribute1: 19, Attribute2: 18, Attribute3: 20},
		{Attribute1: 100, Attribute2: 98, Attribute3: 99},
	}
}

// Additive is a grid whose cells are exactly row effect plus column effect,
// so its error sum of squares is zero.
func Additive() anova.Dataset {
	return anova.Dataset{
		{Attribute1: 1, Attribute2: 2, Attribute3: 3},
		{Attribute1: 2, Attribute2: 3, Attribute3: 4},
		{Attribute1: 3, Attribute2: 4, Attribute3: 5},
	}
}

// Huge is a 3×3 grid of ordinary shape scaled by scale. Large scales push the
// sums of squares past the float64 range while every value stays finite.
func Huge(scale float64) anova.Dataset {
	return anova.Dataset{
		{Attribute1: 1 * scale, Attribute2: -1 * scale, Attribute3: 3 * scale},
		{Attribute1: -2 * scale, Attribute2: 5 * scale, Attribute3: 1 * scale},
		{Attribute1: 4 * scale, Attribute2: 2 * scale, Attribute3: -3 * scale},
	}
}

// DatasetJSON encodes d in the upload wire format.
func DatasetJSON(t *testing.T, d anova.Dataset) []byte {
	t.Helper()
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("failed to encode dataset: %v", err)
	}
	return b
}

// NewUploadRequest builds a multipart POST carrying body as the named file field.
func NewUploadRequest(t *testing.T, path, field string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "data.json")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := fw.Write(body); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
