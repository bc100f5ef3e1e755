// Package api serves the upload surface: an HTML page for interactive use
// and JSON/PNG endpoints for scripted clients.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"tailscale.com/tsweb"

	"github.com/banshee-data/odour.report/internal/config"
	"github.com/banshee-data/odour.report/internal/httputil"
	"github.com/banshee-data/odour.report/internal/metrics"
	"github.com/banshee-data/odour.report/internal/monitoring"
	"github.com/banshee-data/odour.report/internal/odour"
	"github.com/banshee-data/odour.report/internal/render"
	"github.com/banshee-data/odour.report/internal/sheet"
	"github.com/banshee-data/odour.report/internal/version"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Form field names shared by the HTML form and scripted clients.
const (
	FieldFile = "file"
	FieldK    = "k"
)

// multipartOverhead is the slack allowed above the workbook size limit for
// multipart boundaries and the other form fields.
const multipartOverhead = 1 << 20

// Messages for the status surface.
const (
	msgUploadPrompt = "Please upload an Excel file (.xlsx)."
	msgTooLarge     = "The uploaded file is larger than the %d byte limit."
)

// Server runs the clustering pipeline for uploaded workbooks. It holds only
// read-only configuration, so concurrent requests never share run state.
type Server struct {
	cfg *config.ClusterConfig
}

// NewServer creates a Server. A nil cfg uses the built-in defaults.
func NewServer(cfg *config.ClusterConfig) *Server {
	if cfg == nil {
		cfg = config.EmptyClusterConfig()
	}
	return &Server{cfg: cfg}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
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

// LoggingMiddleware logs method, path, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the routes of the upload surface.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/cluster", s.handleCluster)
	mux.HandleFunc("/api/cluster/map.png", s.handleMapPNG)
	mux.HandleFunc("/api/cluster/map.html", s.handleMapHTML)
	mux.HandleFunc("/api/template.xlsx", s.handleTemplate)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// AttachMetrics mounts a metrics handler at /metrics.
func (s *Server) AttachMetrics(mux *http.ServeMux, h http.Handler) {
	mux.Handle("/metrics", h)
}

// AttachAdminRoutes mounts the debug pages under /debug/. Access is limited
// to loopback and tailnet clients by tsweb.
func (s *Server) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.KV("Version", version.String())
	debug.Handle("cluster-config", "Effective clustering configuration", http.HandlerFunc(s.showConfig))
	debug.Handle("palette", "Group color palette", http.HandlerFunc(handlePalette))
}

// configView is the effective configuration with every default resolved.
type configView struct {
	DefaultK       int    `json:"default_k"`
	MinK           int    `json:"min_k"`
	MaxK           int    `json:"max_k"`
	Seed           uint64 `json:"seed"`
	NInit          int    `json:"n_init"`
	MaxIter        int    `json:"max_iter"`
	HeaderSkip     int    `json:"header_skip"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`
	PreviewRows    int    `json:"preview_rows"`
	Version        string `json:"version"`
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, configView{
		DefaultK:       s.cfg.GetDefaultK(),
		MinK:           s.cfg.GetMinK(),
		MaxK:           s.cfg.GetMaxK(),
		Seed:           s.cfg.GetSeed(),
		NInit:          s.cfg.GetNInit(),
		MaxIter:        s.cfg.GetMaxIter(),
		HeaderSkip:     s.cfg.GetHeaderSkip(),
		MaxUploadBytes: s.cfg.GetMaxUploadBytes(),
		PreviewRows:    s.cfg.GetPreviewRows(),
		Version:        version.Version,
	})
}

func handlePalette(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Group int    `json:"group"`
		Name  string `json:"name"`
		Hex   string `json:"hex"`
	}
	out := make([]entry, 0, odour.PaletteSize)
	for g, c := range odour.Palette() {
		out = append(out, entry{Group: g, Name: c.Name, Hex: c.Hex()})
	}
	httputil.WriteJSONOK(w, out)
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	var buf bytes.Buffer
	if err := sheet.Encode(&buf, sheet.Template()); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to build template: %v", err))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=odour-observations.xlsx")
	_, _ = w.Write(buf.Bytes())
}

// uploadError carries the HTTP status and user-facing message of a failed
// upload. Info-level errors mean nothing was uploaded.
type uploadError struct {
	status int
	level  string
	msg    string
	cause  error
}

func (e *uploadError) Error() string { return e.msg }

func (e *uploadError) Unwrap() error { return e.cause }

// outcome is the metrics label for a finished upload.
func outcome(err error) string {
	var ue *uploadError
	if !errors.As(err, &ue) {
		return odour.ErrorKind(err)
	}
	if ue.cause == nil {
		return "bad_request"
	}
	if kind := odour.ErrorKind(ue.cause); kind != "other" {
		return kind
	}
	return "decode"
}

// runUpload reads the multipart form, decodes the workbook and runs the
// pipeline. Every failure is returned as an *uploadError.
func (s *Server) runUpload(w http.ResponseWriter, r *http.Request) (res *odour.Result, k int, err error) {
	k = s.cfg.GetDefaultK()
	done := metrics.TimeRun("http")
	defer func() { done(outcome(err)) }()

	maxBytes := s.cfg.GetMaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if perr := r.ParseMultipartForm(maxBytes); perr != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(perr, &tooLarge) {
			return nil, k, &uploadError{status: http.StatusRequestEntityTooLarge, level: render.LevelError, msg: fmt.Sprintf(msgTooLarge, maxBytes)}
		}
		if errors.Is(perr, http.ErrNotMultipart) {
			return nil, k, &uploadError{status: http.StatusBadRequest, level: render.LevelInfo, msg: msgUploadPrompt}
		}
		return nil, k, &uploadError{status: http.StatusBadRequest, level: render.LevelError, msg: fmt.Sprintf("Invalid upload: %v", perr)}
	}

	if v := r.FormValue(FieldK); v != "" {
		parsed, perr := strconv.Atoi(v)
		if perr != nil {
			return nil, k, &uploadError{status: http.StatusBadRequest, level: render.LevelError, msg: fmt.Sprintf("Invalid group count %q.", v)}
		}
		k = parsed
	}
	if kerr := s.cfg.CheckK(k); kerr != nil {
		return nil, k, &uploadError{status: http.StatusBadRequest, level: render.LevelError, msg: fmt.Sprintf("Invalid group count: %v.", kerr)}
	}

	file, _, ferr := r.FormFile(FieldFile)
	if ferr != nil {
		return nil, k, &uploadError{status: http.StatusBadRequest, level: render.LevelInfo, msg: msgUploadPrompt}
	}
	defer file.Close()

	table, derr := sheet.DecodeLimited(file, maxBytes)
	if derr != nil {
		status := http.StatusUnprocessableEntity
		msg := "The uploaded file could not be read as an .xlsx workbook."
		if errors.Is(derr, sheet.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
			msg = fmt.Sprintf(msgTooLarge, maxBytes)
		}
		monitoring.Logf("[api] decode failed: %v", derr)
		return nil, k, &uploadError{status: status, level: render.LevelError, msg: msg, cause: derr}
	}

	res, rerr := odour.Run(table, s.cfg.Params(k))
	if rerr != nil {
		return nil, k, &uploadError{status: http.StatusUnprocessableEntity, level: render.LevelError, msg: odour.Describe(rerr), cause: rerr}
	}
	metrics.Default().ObserveRows(res.Dataset.Len(), res.Dataset.Dropped.Total())
	return res, k, nil
}
