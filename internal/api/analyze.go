package api

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/banshee-data/anova.report/internal/anova"
	"github.com/banshee-data/anova.report/internal/chart"
	"github.com/banshee-data/anova.report/internal/db"
	"github.com/banshee-data/anova.report/internal/httputil"
	"github.com/banshee-data/anova.report/internal/monitoring"
	"github.com/banshee-data/anova.report/internal/security"
)

// uploadField is the multipart field carrying the dataset file.
const uploadField = "jsonfile"

// maxMultipartMemory is the part of an upload kept in memory before
// spilling to temporary files.
const maxMultipartMemory = 1 << 20

// handleAnalyze runs the pipeline on a JSON array posted as the body.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w, http.MethodPost)
		return
	}
	s.limitBody(w, r)

	data, err := s.decoder.Decode(r.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.run(data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteJSONOK(w, res)
}

// handleUpload runs the pipeline on a file posted in the "jsonfile" field.
// With ?save=true the dataset is also stored and its location returned in
// the Location header.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w, http.MethodPost)
		return
	}
	s.limitBody(w, r)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, err)
			return
		}
		httputil.BadRequest(w, "invalid file")
		return
	}
	file, header, err := r.FormFile(uploadField)
	if err != nil || header.Size == 0 {
		if file != nil {
			file.Close()
		}
		httputil.BadRequest(w, "invalid file")
		return
	}
	defer file.Close()

	data, err := s.decoder.Decode(file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.run(data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if r.URL.Query().Get("save") == "true" {
		name := security.DatasetNameFromFilename(header.Filename)
		info, err := s.db.CreateDataset(r.Context(), name, db.SourceUpload, data)
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Location", datasetPath(info.DatasetID))
	}
	httputil.WriteJSONOK(w, res)
}

// handleAnalyzeChart renders the HTML report for a JSON array posted as
// the body. The page title comes from ?title=.
func (s *Server) handleAnalyzeChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w, http.MethodPost)
		return
	}
	s.limitBody(w, r)

	data, err := s.decoder.Decode(r.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.run(data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeHTML(w, r, data, res, r.URL.Query().Get("title"))
}

// run rejects empty input before filtering so the error is the same
// whether or not the decoder saw any records.
func (s *Server) run(data anova.Dataset) (*anova.Result, error) {
	if len(data) == 0 {
		return nil, anova.ErrEmptyInput
	}
	return s.engine.Run(data)
}

func (s *Server) writeHTML(w http.ResponseWriter, r *http.Request, data anova.Dataset, res *anova.Result, title string) {
	var buf bytes.Buffer
	err := chart.RenderHTML(&buf, data, res, chart.HTMLOptions{
		Title:      title,
		AssetsHost: s.cfg.GetEchartsAssetsHost(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		monitoring.Logf("failed to write chart: %v", err)
	}
}
