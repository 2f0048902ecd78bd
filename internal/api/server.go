package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/anova.report/internal/anova"
	"github.com/banshee-data/anova.report/internal/config"
	"github.com/banshee-data/anova.report/internal/dataset"
	"github.com/banshee-data/anova.report/internal/db"
	"github.com/banshee-data/anova.report/internal/httputil"
	"github.com/banshee-data/anova.report/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server serves the analysis and dataset endpoints.
type Server struct {
	db      *db.DB
	engine  *anova.Engine
	cfg     *config.ServerConfig
	decoder dataset.Decoder
}

// NewServer builds a Server whose engine follows cfg. A nil cfg uses the
// defaults.
func NewServer(store *db.DB, cfg *config.ServerConfig) (*Server, error) {
	if cfg == nil {
		cfg = config.EmptyServerConfig()
	}
	mode, err := anova.ParseHomogeneityMode(cfg.GetHomogeneityMode())
	if err != nil {
		return nil, err
	}
	return &Server{
		db: store,
		engine: anova.NewEngine(nil,
			anova.WithSignificance(cfg.GetSignificance()),
			anova.WithHomogeneityMode(mode),
		),
		cfg:     cfg,
		decoder: dataset.Decoder{MaxRecords: cfg.GetMaxObservations()},
	}, nil
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the API routes. Methods are checked by each handler.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/anova", s.handleAnalyze)
	mux.HandleFunc("/api/anova/upload", s.handleUpload)
	mux.HandleFunc("/api/anova/chart", s.handleAnalyzeChart)
	mux.HandleFunc("/api/datasets", s.handleDatasets)
	mux.HandleFunc("/api/datasets/", s.handleDatasetByID)
	mux.HandleFunc("/api/config", s.showConfig)
	return mux
}

// limitBody caps the request body at the configured upload size.
func (s *Server) limitBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.GetMaxUploadBytes())
}

type configResponse struct {
	Significance    float64      `json:"significance"`
	HomogeneityMode string       `json:"homogeneity_mode"`
	MaxUploadBytes  int64        `json:"max_upload_bytes"`
	MaxObservations int          `json:"max_observations"`
	Version         version.Info `json:"version"`
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	httputil.WriteJSONOK(w, configResponse{
		Significance:    s.engine.Significance(),
		HomogeneityMode: string(s.engine.HomogeneityMode()),
		MaxUploadBytes:  s.cfg.GetMaxUploadBytes(),
		MaxObservations: s.cfg.GetMaxObservations(),
		Version:         version.Current(),
	})
}

// datasetPath is the resource path of a stored dataset.
func datasetPath(id string) string {
	return "/api/datasets/" + id
}
