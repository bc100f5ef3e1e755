package api

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/odour.report/internal/config"
	"github.com/banshee-data/odour.report/internal/httputil"
	"github.com/banshee-data/odour.report/internal/metrics"
	"github.com/banshee-data/odour.report/internal/odour"
	"github.com/banshee-data/odour.report/internal/render"
	"github.com/banshee-data/odour.report/internal/sheet"
	"github.com/banshee-data/odour.report/internal/testutil"
)

// threeSites has three well separated observation sites with four rows
// each, one blank row and one row outside the accepted region.
func threeSites() odour.Table {
	return testutil.ObservationTable(
		[]string{"40.10", "26.10", "1", "-3"},
		[]string{"40.11", "26.12", "1", "-3"},
		[]string{"40.12", "26.11", "2", "-3"},
		[]string{"40.10", "26.13", "1", "-2"},
		[]string{"41.00", "27.50", "5", "0"},
		[]string{"41.01", "27.52", "5", "1"},
		[]string{"41.02", "27.51", "6", "0"},
		[]string{"41.00", "27.53", "5", "0"},
		[]string{"41.90", "28.90", "9", "3"},
		[]string{"41.91", "28.92", "9", "4"},
		[]string{"41.92", "28.91", "8", "4"},
		[]string{"41.90", "28.93", "9", "4"},
		[]string{"", "27.00", "3", "0"},
		[]string{"39.00", "27.00", "3", "0"},
	)
}

func newTestServer(t *testing.T, cfg *config.ClusterConfig) http.Handler {
	t.Helper()
	return LoggingMiddleware(NewServer(cfg).ServeMux())
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) httputil.Message {
	t.Helper()
	var msg httputil.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg), w.Body.String())
	return msg
}

func TestCluster_Success(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil)
	file := testutil.Workbook(t, threeSites())

	w := serve(h, testutil.NewUploadRequest(t, "/api/cluster", file, map[string]string{FieldK: "3"}))
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)

	var body ClusterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.K)
	assert.Equal(t, uint64(odour.DefaultSeed), body.Seed)
	assert.Equal(t, 14, body.InputRows)
	assert.Equal(t, 12, body.ValidRows)
	assert.Equal(t, odour.DropCounts{Missing: 1, OutOfRange: 1}, body.Dropped)
	assert.NotEmpty(t, body.RunID)
	assert.Equal(t, render.LevelSuccess, body.Message.Level)
	assert.Equal(t, "Data loaded and filtered: 12 of 14 rows kept.", body.Message.Message)

	require.Len(t, body.Rows, 12)
	require.Len(t, body.Summary, 3)
	for site := 0; site < 3; site++ {
		group := body.Rows[site*4].Group
		for i := site * 4; i < site*4+4; i++ {
			assert.Equal(t, group, body.Rows[i].Group, "row %d", i)
			c, err := odour.ColorFor(group)
			require.NoError(t, err)
			assert.Equal(t, c.Name, body.Rows[i].Color)
		}
	}
	assert.Equal(t, 12, body.Summary.Rows())
}

func TestCluster_Deterministic(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil)
	file := testutil.Workbook(t, threeSites())

	groups := func() []int {
		w := serve(h, testutil.NewUploadRequest(t, "/api/cluster", file, map[string]string{FieldK: "2"}))
		require.Equal(t, http.StatusOK, w.Code)
		var body ClusterResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		out := make([]int, len(body.Rows))
		for i, r := range body.Rows {
			out[i] = r.Group
		}
		return out
	}
	assert.Equal(t, groups(), groups())
}

func TestCluster_DefaultK(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil)
	file := testutil.Workbook(t, threeSites())

	w := serve(h, testutil.NewUploadRequest(t, "/api/cluster", file, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body ClusterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, odour.DefaultK, body.K)
}

func TestCluster_Errors(t *testing.T) {
	t.Parallel()

	missingCol := odour.Table{Rows: [][]string{
		{testutil.Title},
		{odour.ColLatitude, odour.ColLongitude, odour.ColOdourIntensity},
		{"41", "28", "3"},
	}}
	allInvalid := testutil.ObservationTable(
		[]string{"39", "28", "3", "0"},
		[]string{"41", "", "3", "0"},
	)
	tooFew := testutil.ObservationTable(
		[]string{"41", "28", "3", "0"},
		[]string{"41.5", "28.5", "4", "1"},
	)

	tests := []struct {
		name   string
		file   []byte
		fields map[string]string
		status int
		level  string
		msg    string
	}{
		{
			name:   "no file",
			status: http.StatusBadRequest,
			level:  render.LevelInfo,
			msg:    "Please upload an Excel file (.xlsx).",
		},
		{
			name:   "missing column",
			file:   testutil.Workbook(t, missingCol),
			status: http.StatusUnprocessableEntity,
			level:  render.LevelError,
			msg:    "The uploaded sheet is missing required columns: Hedonic Tone.",
		},
		{
			name:   "no valid rows",
			file:   testutil.Workbook(t, allInvalid),
			status: http.StatusUnprocessableEntity,
			level:  render.LevelError,
			msg:    "No valid observations remain after filtering. Check the coordinates and numeric fields.",
		},
		{
			name:   "fewer rows than groups",
			file:   testutil.Workbook(t, tooFew),
			fields: map[string]string{FieldK: "3"},
			status: http.StatusUnprocessableEntity,
			level:  render.LevelError,
			msg:    "Only 2 valid observations remain, fewer than the 3 requested groups.",
		},
		{
			name:   "not a workbook",
			file:   []byte("Latitude,Longitude\n41,28\n"),
			status: http.StatusUnprocessableEntity,
			level:  render.LevelError,
			msg:    "The uploaded file could not be read as an .xlsx workbook.",
		},
		{
			name:   "k out of range",
			file:   testutil.Workbook(t, tooFew),
			fields: map[string]string{FieldK: "11"},
			status: http.StatusBadRequest,
			level:  render.LevelError,
			msg:    "Invalid group count: k must be within [2, 10], got 11.",
		},
		{
			name:   "k not a number",
			file:   testutil.Workbook(t, tooFew),
			fields: map[string]string{FieldK: "three"},
			status: http.StatusBadRequest,
			level:  render.LevelError,
			msg:    `Invalid group count "three".`,
		},
	}

	h := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := serve(h, testutil.NewUploadRequest(t, "/api/cluster", tt.file, tt.fields))
			testutil.AssertStatusCode(t, w.Code, tt.status)
			msg := decodeMessage(t, w)
			assert.Equal(t, tt.level, msg.Level)
			assert.Equal(t, tt.msg, msg.Message)
		})
	}
}

func TestCluster_TooLarge(t *testing.T) {
	t.Parallel()
	limit := int64(512)
	h := newTestServer(t, &config.ClusterConfig{MaxUploadBytes: &limit})
	file := testutil.Workbook(t, threeSites())
	require.Greater(t, int64(len(file)), limit)

	w := serve(h, testutil.NewUploadRequest(t, "/api/cluster", file, nil))
	testutil.AssertStatusCode(t, w.Code, http.StatusRequestEntityTooLarge)
	assert.Equal(t, "The uploaded file is larger than the 512 byte limit.", decodeMessage(t, w).Message)
}

func TestCluster_NotMultipart(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/cluster", strings.NewReader(`{"k":3}`))
	req.Header.Set("Content-Type", "application/json")

	w := serve(h, req)
	testutil.AssertStatusCode(t, w.Code, http.StatusBadRequest)
	assert.Equal(t, render.LevelInfo, decodeMessage(t, w).Level)
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/cluster"},
		{http.MethodGet, "/api/cluster/map.png"},
		{http.MethodGet, "/api/cluster/map.html"},
		{http.MethodPost, "/api/template.xlsx"},
		{http.MethodPost, "/api/config"},
		{http.MethodDelete, "/"},
	} {
		w := serve(h, testutil.NewTestRequest(tc.method, tc.path))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestMapPNG(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil)
	file := testutil.Workbook(t, threeSites())

	w := serve(h, testutil.NewUploadRequest(t, "/api/cluster/map.png", file, map[string]string{FieldK: "3"}))
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	runID := w.Header().Get("X-Run-Id")
	assert.NotEmpty(t, runID)
	assert.Equal(t, "inline; filename=odour-map-"+runID+".png", w.Header().Get("Content-Disposition"))

	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Positive(t, img.Bounds().Dx())
}

func TestMapHTML(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil)
	file := testutil.Workbook(t, threeSites())

	w := serve(h, testutil.NewUploadRequest(t, "/api/cluster/map.html", file, map[string]string{FieldK: "3"}))
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "echarts")
}

func TestIndex_Get(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil)

	w := serve(h, testutil.NewTestRequest(http.MethodGet, "/"))
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	body := w.Body.String()
	assert.Contains(t, body, "Please upload an Excel file (.xlsx).")
	assert.Contains(t, body, `class="msg msg-info"`)
	assert.Contains(t, body, `name="k" value="3" min="2" max="10"`)
	assert.NotContains(t, body, `id="results"`)
}

func TestIndex_NotFound(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil)
	w := serve(h, testutil.NewTestRequest(http.MethodGet, "/nope"))
	testutil.AssertStatusCode(t, w.Code, http.StatusNotFound)
}

func TestIndex_Post(t *testing.T) {
	t.Parallel()
	previewRows := 2
	h := newTestServer(t, &config.ClusterConfig{PreviewRows: &previewRows})
	file := testutil.Workbook(t, threeSites())

	w := serve(h, testutil.NewUploadRequest(t, "/", file, map[string]string{FieldK: "3"}))
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	body := w.Body.String()
	assert.Contains(t, body, "Data loaded and filtered: 12 of 14 rows kept.")
	assert.Contains(t, body, `class="msg msg-success"`)
	assert.Contains(t, body, `id="map"`)
	assert.Contains(t, body, `id="results"`)
	assert.Contains(t, body, "Küme 0")

	preview := body[strings.Index(body, `id="preview"`):strings.Index(body, `id="map"`)]
	assert.Equal(t, previewRows+1, strings.Count(preview, "<tr>"))
	results := body[strings.Index(body, `id="results"`):strings.Index(body, `id="summary"`)]
	assert.Equal(t, 13, strings.Count(results, "<tr>"))
}

func TestIndex_PostError(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil)
	bad := testutil.Workbook(t, odour.Table{Rows: [][]string{{"title"}, {"Foo"}}})

	w := serve(h, testutil.NewUploadRequest(t, "/", bad, nil))
	testutil.AssertStatusCode(t, w.Code, http.StatusUnprocessableEntity)
	body := w.Body.String()
	assert.Contains(t, body, `class="msg msg-error"`)
	assert.Contains(t, body, "missing required columns")
	assert.NotContains(t, body, `id="results"`)
}

func TestTemplateDownload(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil)

	w := serve(h, testutil.NewTestRequest(http.MethodGet, "/api/template.xlsx"))
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "odour-observations.xlsx")

	table, err := sheet.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	_, err = odour.LoadAndValidate(table, odour.DefaultHeaderSkip)
	require.NoError(t, err)
}

func TestShowConfig(t *testing.T) {
	t.Parallel()
	k := 4
	h := newTestServer(t, &config.ClusterConfig{DefaultK: &k})

	w := serve(h, testutil.NewTestRequest(http.MethodGet, "/api/config"))
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	var got configView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 4, got.DefaultK)
	assert.Equal(t, 2, got.MinK)
	assert.Equal(t, odour.PaletteSize, got.MaxK)
	assert.Equal(t, odour.DefaultNInit, got.NInit)
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil)
	w := serve(h, testutil.NewTestRequest(http.MethodGet, "/healthz"))
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	assert.Equal(t, "ok", w.Body.String())
}

func TestHandlePalette(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()
	handlePalette(w, testutil.NewTestRequest(http.MethodGet, "/debug/palette"))
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)

	var got []struct {
		Group int    `json:"group"`
		Name  string `json:"name"`
		Hex   string `json:"hex"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, odour.PaletteSize)
	assert.Equal(t, "red", got[0].Name)
	assert.Equal(t, "#ff0000", got[0].Hex)
}

func TestOutcome(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ok", outcome(nil))
	assert.Equal(t, "bad_request", outcome(&uploadError{msg: "x"}))
	assert.Equal(t, "decode", outcome(&uploadError{msg: "x", cause: sheet.ErrNoSheets}))
	assert.Equal(t, "schema", outcome(&uploadError{msg: "x", cause: &odour.SchemaError{Missing: []string{"Latitude"}}}))
}

func TestStatusCodeColor(t *testing.T) {
	t.Parallel()
	assert.Contains(t, statusCodeColor(200), colorBoldGreen)
	assert.Contains(t, statusCodeColor(302), colorYellow)
	assert.Contains(t, statusCodeColor(404), colorBoldRed)
	assert.Equal(t, "100", statusCodeColor(100))
}

func TestAttachMetrics(t *testing.T) {
	t.Parallel()
	mux := NewServer(nil).ServeMux()
	NewServer(nil).AttachMetrics(mux, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("metrics"))
	}))
	w := serve(mux, testutil.NewTestRequest(http.MethodGet, "/metrics"))
	assert.Equal(t, "metrics", w.Body.String())
}

type countingRecorder struct {
	runs map[string]int
	rows int
}

func (c *countingRecorder) IncRun(surface, outcome string)            { c.runs[surface+"/"+outcome]++ }
func (c *countingRecorder) ObserveRunSeconds(string, string, float64) {}
func (c *countingRecorder) ObserveRows(valid, dropped int)            { c.rows += valid + dropped }

// Not parallel: swaps the process-wide recorder.
func TestRunUpload_RecordsMetrics(t *testing.T) {
	rec := &countingRecorder{runs: map[string]int{}}
	metrics.SetRecorder(rec)
	t.Cleanup(func() { metrics.SetRecorder(nil) })

	h := newTestServer(t, nil)
	file := testutil.Workbook(t, threeSites())
	serve(h, testutil.NewUploadRequest(t, "/api/cluster", file, nil))
	serve(h, testutil.NewUploadRequest(t, "/api/cluster", nil, nil))

	assert.Equal(t, 1, rec.runs["http/ok"])
	assert.Equal(t, 1, rec.runs["http/bad_request"])
	assert.Equal(t, 14, rec.rows)
}
