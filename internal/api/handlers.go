package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/banshee-data/odour.report/internal/httputil"
	"github.com/banshee-data/odour.report/internal/monitoring"
	"github.com/banshee-data/odour.report/internal/odour"
	"github.com/banshee-data/odour.report/internal/render"
	"github.com/banshee-data/odour.report/internal/security"
)

// msgLoaded is shown after a successful run.
const msgLoaded = "Data loaded and filtered: %d of %d rows kept."

// RowResult is one validated observation with its group.
type RowResult struct {
	odour.Record
	Group int    `json:"group"`
	Color string `json:"color"`
}

// ClusterResponse is the JSON body of a successful /api/cluster request.
type ClusterResponse struct {
	RunID      string           `json:"run_id"`
	K          int              `json:"k"`
	Seed       uint64           `json:"seed"`
	InputRows  int              `json:"input_rows"`
	ValidRows  int              `json:"valid_rows"`
	Dropped    odour.DropCounts `json:"dropped"`
	Rows       []RowResult      `json:"rows"`
	Summary    odour.Summary    `json:"summary"`
	Inertia    float64          `json:"inertia"`
	Iterations int              `json:"iterations"`
	Message    httputil.Message `json:"message"`
}

func newClusterResponse(res *odour.Result) (*ClusterResponse, error) {
	rows := make([]RowResult, len(res.Dataset.Records))
	for i, rec := range res.Dataset.Records {
		c, err := odour.ColorFor(res.Assignment[i])
		if err != nil {
			return nil, err
		}
		rows[i] = RowResult{Record: rec, Group: res.Assignment[i], Color: c.Name}
	}
	return &ClusterResponse{
		RunID:      res.RunID,
		K:          res.K,
		Seed:       res.Seed,
		InputRows:  res.Dataset.InputRows,
		ValidRows:  res.Dataset.Len(),
		Dropped:    res.Dataset.Dropped,
		Rows:       rows,
		Summary:    res.Summary,
		Inertia:    res.Inertia,
		Iterations: res.Iterations,
		Message:    loadedMessage(res),
	}, nil
}

func loadedMessage(res *odour.Result) httputil.Message {
	return httputil.Message{
		Level:   render.LevelSuccess,
		Message: fmt.Sprintf(msgLoaded, res.Dataset.Len(), res.Dataset.InputRows),
	}
}

// writeUploadError sends a failed upload as a JSON message.
func writeUploadError(w http.ResponseWriter, err error) {
	if ue, ok := err.(*uploadError); ok {
		httputil.WriteMessage(w, ue.status, ue.level, ue.msg)
		return
	}
	httputil.InternalServerError(w, odour.Describe(err))
}

func (s *Server) handleCluster(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	res, _, err := s.runUpload(w, r)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	body, err := newClusterResponse(res)
	if err != nil {
		httputil.UnprocessableEntity(w, odour.Describe(err))
		return
	}
	httputil.WriteJSONOK(w, body)
}

func (s *Server) handleMapPNG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	res, _, err := s.runUpload(w, r)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := render.MapPNG(&buf, res); err != nil {
		monitoring.Logf("[api] run=%s png render failed: %v", res.RunID, err)
		httputil.UnprocessableEntity(w, odour.Describe(err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", "inline; filename="+security.SanitizeFilename("odour-map-"+res.RunID+".png"))
	w.Header().Set("X-Run-Id", res.RunID)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleMapHTML(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	res, _, err := s.runUpload(w, r)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := render.MapHTML(&buf, res); err != nil {
		monitoring.Logf("[api] run=%s html render failed: %v", res.RunID, err)
		httputil.UnprocessableEntity(w, odour.Describe(err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Run-Id", res.RunID)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.renderPage(w, http.StatusOK, pageData{
			Message: httputil.Message{Level: render.LevelInfo, Message: msgUploadPrompt},
			K:       s.cfg.GetDefaultK(),
		})
	case http.MethodPost:
		res, k, err := s.runUpload(w, r)
		if err != nil {
			status := http.StatusInternalServerError
			msg := httputil.Message{Level: render.LevelError, Message: odour.Describe(err)}
			if ue, ok := err.(*uploadError); ok {
				status = ue.status
				msg = httputil.Message{Level: ue.level, Message: ue.msg}
			}
			s.renderPage(w, status, pageData{Message: msg, K: k})
			return
		}
		data, err := s.resultPage(res)
		if err != nil {
			s.renderPage(w, http.StatusUnprocessableEntity, pageData{
				Message: httputil.Message{Level: render.LevelError, Message: odour.Describe(err)},
				K:       k,
			})
			return
		}
		s.renderPage(w, http.StatusOK, *data)
	default:
		httputil.MethodNotAllowed(w)
	}
}
