package odour

import (
	"strconv"
)

var testHeader = []string{"Observer", ColLatitude, ColLongitude, ColOdourIntensity, ColHedonicTone}

// sheet builds a Table with a title row, the standard header and one data
// row per observation.
func sheet(obs ...[4]float64) Table {
	rows := [][]string{{"Odour observations"}, testHeader}
	for i, o := range obs {
		row := []string{"obs-" + strconv.Itoa(i)}
		for _, v := range o {
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		rows = append(rows, row)
	}
	return Table{Rows: rows}
}

func dataset(obs ...[4]float64) *Dataset {
	ds := &Dataset{InputRows: len(obs)}
	for i, o := range obs {
		ds.Records = append(ds.Records, Record{
			Row:            i,
			Latitude:       o[0],
			Longitude:      o[1],
			OdourIntensity: o[2],
			HedonicTone:    o[3],
		})
	}
	return ds
}

var scenarioRows = [][4]float64{
	{41.0, 27.5, 3.0, 2.0},
	{41.01, 27.51, 3.1, 2.1},
	{40.0, 26.0, -1.0, -2.0},
}
