package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/banshee-data/anova.report/internal/anova"
	"github.com/banshee-data/anova.report/internal/dataset"
	"github.com/banshee-data/anova.report/internal/fsutil"
	"github.com/banshee-data/anova.report/internal/httputil"
)

// runSubmit implements 'anova-report submit'. Without -dataset the file is
// uploaded for a one-off analysis; with it the observations are stored on
// the server under that name. The server response is printed indented.
func runSubmit(ctx context.Context, args []string, fsys fsutil.FileSystem, client httputil.HTTPClient, out io.Writer) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	fs.SetOutput(out)
	server := fs.String("server", "http://localhost:8080", "Base URL of the anova-report server")
	name := fs.String("dataset", "", "Store the dataset on the server under this name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: anova-report submit [-server URL] [-dataset NAME] <file.json>", errUsage)
	}
	path := fs.Arg(0)

	data, err := readDataset(fsys, path)
	if err != nil {
		return err
	}

	base := strings.TrimRight(*server, "/")
	var req *http.Request
	if *name == "" {
		req, err = newUploadRequest(ctx, base+"/api/anova/upload", filepath.Base(path), data)
	} else {
		req, err = newCreateRequest(ctx, base+"/api/datasets", *name, data)
	}
	if err != nil {
		return err
	}

	var resp json.RawMessage
	if err := httputil.DoJSON(client, req, &resp); err != nil {
		return err
	}
	if len(resp) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, resp, "", "  "); err != nil {
		return fmt.Errorf("invalid server response: %w", err)
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(out)
	return err
}

func newUploadRequest(ctx context.Context, url, filename string, data anova.Dataset) (*http.Request, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("jsonfile", filename)
	if err != nil {
		return nil, err
	}
	if err := dataset.Encode(fw, data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func newCreateRequest(ctx context.Context, url, name string, data anova.Dataset) (*http.Request, error) {
	body, err := json.Marshal(struct {
		Name         string        `json:"name"`
		Observations anova.Dataset `json:"observations"`
	}{name, data})
	if err != nil {
		return nil, fmt.Errorf("failed to encode dataset: %w", err)
	}
	return httputil.NewJSONRequest(ctx, http.MethodPost, url, body)
}
