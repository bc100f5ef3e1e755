package odour

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// LoadAndValidate selects the required columns from t and keeps only the
// rows that are fully numeric and inside the accepted coordinate bounds.
//
// The first headerSkip rows of t are title rows and are discarded; the next
// row is the header. Surviving rows keep their original order. An empty
// result is not an error here; Cluster rejects it.
func LoadAndValidate(t Table, headerSkip int) (*Dataset, error) {
	if headerSkip < 0 {
		return nil, fmt.Errorf("header skip must be non-negative, got %d", headerSkip)
	}
	if len(t.Rows) <= headerSkip {
		return nil, &SchemaError{Missing: append([]string(nil), RequiredColumns...)}
	}

	idx, err := columnIndex(t.Rows[headerSkip])
	if err != nil {
		return nil, err
	}

	data := t.Rows[headerSkip+1:]
	ds := &Dataset{
		Records:   make([]Record, 0, len(data)),
		InputRows: len(data),
	}

	for i, row := range data {
		var vals [NumFeatures]float64
		ok := true
		for f, col := range idx {
			v, valid := parseCell(row, col)
			if !valid {
				ok = false
				break
			}
			vals[f] = v
		}
		if !ok {
			ds.Dropped.Missing++
			continue
		}

		rec := Record{
			Row:            i,
			Latitude:       vals[0],
			Longitude:      vals[1],
			OdourIntensity: vals[2],
			HedonicTone:    vals[3],
		}
		if !InBounds(rec.Latitude, rec.Longitude) {
			ds.Dropped.OutOfRange++
			continue
		}
		ds.Records = append(ds.Records, rec)
	}

	return ds, nil
}

// InBounds reports whether a coordinate lies inside the accepted region.
func InBounds(lat, lon float64) bool {
	return lat >= MinLatitude && lat <= MaxLatitude &&
		lon >= MinLongitude && lon <= MaxLongitude
}

// columnIndex maps each required column to its position in header.
// Duplicate headers resolve to the first occurrence.
func columnIndex(header []string) ([NumFeatures]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if _, seen := pos[name]; !seen {
			pos[name] = i
		}
	}

	var idx [NumFeatures]int
	var missing []string
	for f, name := range RequiredColumns {
		i, ok := pos[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		idx[f] = i
	}
	if len(missing) > 0 {
		return idx, &SchemaError{Missing: missing}
	}
	return idx, nil
}

// parseCell coerces row[col] to a finite float. Absent, blank and
// non-numeric cells are reported as missing.
func parseCell(row []string, col int) (float64, bool) {
	if col >= len(row) {
		return 0, false
	}
	s := strings.TrimSpace(row[col])
	if s == "" || isHexLiteral(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// isHexLiteral reports a hex-float such as "0x1p5", which ParseFloat would
// accept but a decimal sheet cell never contains.
func isHexLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
