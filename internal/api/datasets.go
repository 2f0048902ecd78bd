package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/banshee-data/anova.report/internal/anova"
	"github.com/banshee-data/anova.report/internal/chart"
	"github.com/banshee-data/anova.report/internal/db"
	"github.com/banshee-data/anova.report/internal/httputil"
	"github.com/banshee-data/anova.report/internal/monitoring"
)

type createDatasetRequest struct {
	Name         string          `json:"name"`
	Observations json.RawMessage `json:"observations"`
}

// handleDatasets serves GET (list) and POST (create) on /api/datasets.
func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listDatasets(w, r)
	case http.MethodPost:
		s.createDataset(w, r)
	default:
		httputil.MethodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) listDatasets(w http.ResponseWriter, r *http.Request) {
	infos, err := s.db.ListDatasets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteJSONOK(w, infos)
}

func (s *Server) createDataset(w http.ResponseWriter, r *http.Request) {
	s.limitBody(w, r)

	var req createDatasetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if body := errorBody(err); body.Kind == KindTooLarge {
			httputil.WriteErrorBody(w, body)
			return
		}
		httputil.BadRequest(w, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		httputil.BadRequest(w, "missing 'name'")
		return
	}

	data, err := s.decoder.Decode(bytes.NewReader(req.Observations))
	if err != nil {
		writeError(w, r, err)
		return
	}
	info, err := s.db.CreateDataset(r.Context(), name, db.SourceAPI, data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", datasetPath(info.DatasetID))
	httputil.WriteJSON(w, http.StatusCreated, info)
}

// handleDatasetByID serves /api/datasets/{id} and its sub-resources:
//
//	GET    /api/datasets/{id}
//	DELETE /api/datasets/{id}
//	GET    /api/datasets/{id}/anova
//	GET    /api/datasets/{id}/chart
//	GET    /api/datasets/{id}/plot.png
func (s *Server) handleDatasetByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/datasets/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if parts[0] == "" || len(parts) > 2 {
		httputil.NotFound(w, "not found")
		return
	}
	id := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.getDataset(w, r, id)
		case http.MethodDelete:
			s.deleteDataset(w, r, id)
		default:
			httputil.MethodNotAllowed(w, http.MethodGet, http.MethodDelete)
		}
		return
	}

	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	switch parts[1] {
	case "anova":
		s.datasetAnova(w, r, id)
	case "chart":
		s.datasetChart(w, r, id)
	case "plot.png":
		s.datasetPlot(w, r, id)
	default:
		httputil.NotFound(w, "not found")
	}
}

func (s *Server) getDataset(w http.ResponseWriter, r *http.Request, id string) {
	ds, err := s.db.GetDataset(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteJSONOK(w, ds)
}

func (s *Server) deleteDataset(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.db.DeleteDataset(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) datasetAnova(w http.ResponseWriter, r *http.Request, id string) {
	ds, err := s.db.GetDataset(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.run(ds.Observations)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.WriteJSONOK(w, res)
}

func (s *Server) datasetChart(w http.ResponseWriter, r *http.Request, id string) {
	ds, err := s.db.GetDataset(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.run(ds.Observations)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeHTML(w, r, ds.Observations, res, ds.Name)
}

// datasetPlot draws the observation scatter. Only the filter stage has to
// succeed, so datasets too small for the analysis still get a plot.
func (s *Server) datasetPlot(w http.ResponseWriter, r *http.Request, id string) {
	ds, err := s.db.GetDataset(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.engine.Run(ds.Observations)
	if err != nil {
		fr, ferr := anova.Filter(ds.Observations)
		if ferr != nil {
			writeError(w, r, ferr)
			return
		}
		res = &anova.Result{FilterResult: fr}
	}

	var buf bytes.Buffer
	if err := chart.WritePNG(&buf, ds.Observations, res, chart.DefaultWidth, chart.DefaultHeight); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if _, err := buf.WriteTo(w); err != nil {
		monitoring.Logf("failed to write plot: %v", err)
	}
}
