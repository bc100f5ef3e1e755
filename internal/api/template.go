package api

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/banshee-data/odour.report/internal/httputil"
	"github.com/banshee-data/odour.report/internal/monitoring"
	"github.com/banshee-data/odour.report/internal/odour"
	"github.com/banshee-data/odour.report/internal/render"
)

//go:embed templates/*
var pageTemplateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(pageTemplateFS, "templates/index.html.tmpl"))

// previewRow is a validated record as shown in the preview table.
type previewRow struct {
	Row            int
	Latitude       float64
	Longitude      float64
	OdourIntensity float64
	HedonicTone    float64
	Group          int
	Color          string
	Hex            string
}

type pageData struct {
	Message   httputil.Message
	K         int
	MinK      int
	MaxK      int
	Title     string
	Columns   []string
	Preview   []previewRow
	Rows      []previewRow
	Summary   []summaryRow
	MapHTML   string
	RunID     string
	Inertia   float64
	HasResult bool
}

type summaryRow struct {
	odour.GroupSummary
	Label string
	Hex   string
}

func (s *Server) resultPage(res *odour.Result) (*pageData, error) {
	rows := make([]previewRow, len(res.Dataset.Records))
	for i, rec := range res.Dataset.Records {
		c, err := odour.ColorFor(res.Assignment[i])
		if err != nil {
			return nil, err
		}
		rows[i] = previewRow{
			Row:            rec.Row,
			Latitude:       rec.Latitude,
			Longitude:      rec.Longitude,
			OdourIntensity: rec.OdourIntensity,
			HedonicTone:    rec.HedonicTone,
			Group:          res.Assignment[i],
			Color:          c.Name,
			Hex:            c.Hex(),
		}
	}

	summary := make([]summaryRow, len(res.Summary))
	for i, g := range res.Summary {
		c, err := odour.ColorFor(g.Group)
		if err != nil {
			return nil, err
		}
		summary[i] = summaryRow{GroupSummary: g, Label: odour.GroupLabel(g.Group), Hex: c.Hex()}
	}

	var chart bytes.Buffer
	if err := render.MapHTML(&chart, res); err != nil {
		return nil, err
	}

	preview := rows
	if n := s.cfg.GetPreviewRows(); n < len(preview) {
		preview = preview[:n]
	}

	msg := loadedMessage(res)
	return &pageData{
		Message:   msg,
		K:         res.K,
		Preview:   preview,
		Rows:      rows,
		Summary:   summary,
		MapHTML:   chart.String(),
		RunID:     res.RunID,
		Inertia:   res.Inertia,
		HasResult: true,
	}, nil
}

// renderPage fills the fields shared by every page and writes it.
func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	data.Title = render.MapTitle
	data.Columns = odour.RequiredColumns
	data.MinK = s.cfg.GetMinK()
	data.MaxK = s.cfg.GetMaxK()

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		monitoring.Logf("[api] page render failed: %v", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
