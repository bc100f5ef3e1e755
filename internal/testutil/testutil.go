// Package testutil provides shared test helpers for building observation
// workbooks and upload requests.
package testutil

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/odour.report/internal/odour"
	"github.com/banshee-data/odour.report/internal/sheet"
)

// Title is the leading title row of generated sheets.
const Title = "Koku Gözlemleri"

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ObservationTable builds a sheet with a title row, the required header and
// the given data rows.
func ObservationTable(rows ...[]string) odour.Table {
	out := make([][]string, 0, len(rows)+2)
	out = append(out, []string{Title}, append([]string(nil), odour.RequiredColumns...))
	out = append(out, rows...)
	return odour.Table{Rows: out}
}

// Workbook encodes t as .xlsx bytes.
func Workbook(t testing.TB, table odour.Table) []byte {
	t.Helper()
	var buf bytes.Buffer
	AssertNoError(t, sheet.Encode(&buf, table))
	return buf.Bytes()
}

// NewUploadRequest builds a multipart POST with the workbook under "file"
// and the extra form fields. A nil file omits the file part.
func NewUploadRequest(t testing.TB, path string, file []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		AssertNoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("file", "observations.xlsx")
		AssertNoError(t, err)
		_, err = fw.Write(file)
		AssertNoError(t, err)
	}
	AssertNoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}
