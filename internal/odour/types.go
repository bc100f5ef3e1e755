package odour

// Required column headers in the uploaded sheet.
const (
	ColLatitude       = "Latitude"
	ColLongitude      = "Longitude"
	ColOdourIntensity = "Odour Intensity"
	ColHedonicTone    = "Hedonic Tone"
)

// RequiredColumns lists the selected columns in feature order.
var RequiredColumns = []string{ColLatitude, ColLongitude, ColOdourIntensity, ColHedonicTone}

// NumFeatures is the width of the standardized feature matrix.
const NumFeatures = 4

// Inclusive bounds for accepted observation coordinates.
const (
	MinLatitude  = 40.0
	MaxLatitude  = 42.0
	MinLongitude = 26.0
	MaxLongitude = 29.0
)

// Table is a raw sheet: every row as decoded strings. The header row sits
// after the leading title rows skipped by LoadAndValidate.
type Table struct {
	Rows [][]string
}

// Record is a single validated observation.
type Record struct {
	// Row is the 0-based index of the source data row, counted after the
	// header row.
	Row            int     `json:"row"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	OdourIntensity float64 `json:"odour_intensity"`
	HedonicTone    float64 `json:"hedonic_tone"`
}

// Features returns the record's values in RequiredColumns order.
func (r Record) Features() [NumFeatures]float64 {
	return [NumFeatures]float64{r.Latitude, r.Longitude, r.OdourIntensity, r.HedonicTone}
}

// DropCounts records why data rows were excluded during validation.
type DropCounts struct {
	Missing    int `json:"missing"`
	OutOfRange int `json:"out_of_range"`
}

// Total returns the number of dropped rows.
func (d DropCounts) Total() int { return d.Missing + d.OutOfRange }

// Dataset is the ordered set of records that survived validation.
type Dataset struct {
	Records   []Record   `json:"records"`
	InputRows int        `json:"input_rows"`
	Dropped   DropCounts `json:"dropped"`
}

// Len returns the number of validated records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Assignment maps each record position in a Dataset to a group id in [0, k).
type Assignment []int

// GroupSummary holds the rounded per-group means.
type GroupSummary struct {
	Group          int     `json:"group"`
	Count          int     `json:"count"`
	OdourIntensity float64 `json:"odour_intensity"`
	HedonicTone    float64 `json:"hedonic_tone"`
}

// Summary lists populated groups in ascending group id order.
type Summary []GroupSummary

// Rows returns the total member count across all groups.
func (s Summary) Rows() int {
	n := 0
	for _, g := range s {
		n += g.Count
	}
	return n
}
