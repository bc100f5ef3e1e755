package odour

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Scenario(t *testing.T) {
	t.Parallel()

	p := DefaultParams()
	p.K = 2
	res, err := Run(sheet(scenarioRows...), p)
	require.NoError(t, err)

	_, err = uuid.Parse(res.RunID)
	assert.NoError(t, err, "run id is a UUID")
	assert.Equal(t, 2, res.K)
	assert.Equal(t, uint64(DefaultSeed), res.Seed)

	require.Len(t, res.Summary, 2)
	assert.Equal(t, res.Assignment[0], res.Assignment[1])
	assert.NotEqual(t, res.Assignment[0], res.Assignment[2])
	assert.Equal(t, res.Dataset.Len(), res.Summary.Rows())

	for _, g := range res.Summary {
		if g.Group == res.Assignment[2] {
			assert.Equal(t, GroupSummary{Group: g.Group, Count: 1, OdourIntensity: -1, HedonicTone: -2}, g)
		} else {
			assert.Equal(t, GroupSummary{Group: g.Group, Count: 2, OdourIntensity: 3.05, HedonicTone: 2.05}, g)
		}
	}
}

func TestRun_DropsBadRowsBeforeClustering(t *testing.T) {
	t.Parallel()

	table := sheet(scenarioRows...)
	table.Rows = append(table.Rows,
		[]string{"lat45", "45", "27.5", "3", "2"},
		[]string{"na", "41", "27.5", "N/A", "2"},
	)

	p := DefaultParams()
	p.K = 2
	res, err := Run(table, p)
	require.NoError(t, err)

	assert.Equal(t, 5, res.Dataset.InputRows)
	assert.Equal(t, 3, res.Dataset.Len())
	assert.Equal(t, DropCounts{Missing: 1, OutOfRange: 1}, res.Dataset.Dropped)
	assert.Len(t, res.Assignment, 3)
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		table Table
		k     int
		want  error
	}{
		{"schema", Table{Rows: [][]string{{"t"}, {ColLatitude}, {"41"}}}, 2, ErrSchema},
		{"no valid rows", sheet([4]float64{45, 27, 1, 1}), 2, ErrInsufficientData},
		{"k above rows", sheet(scenarioRows...), 4, ErrInsufficientData},
		{"k above palette", sheet(scenarioRows...), PaletteSize + 1, ErrPaletteExhausted},
		{"k zero", sheet(scenarioRows...), 0, ErrInvalidK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := DefaultParams()
			p.K = tt.k

			res, err := Run(tt.table, p)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRun_EmptyDatasetReportsRequestedK(t *testing.T) {
	t.Parallel()

	_, err := Run(sheet(), DefaultParams())
	var dataErr *InsufficientDataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, 0, dataErr.Rows)
	assert.Equal(t, DefaultK, dataErr.K)
}

func TestResult_Series(t *testing.T) {
	t.Parallel()

	p := DefaultParams()
	p.K = 2
	res, err := Run(sheet(scenarioRows...), p)
	require.NoError(t, err)

	series, err := res.Series()
	require.NoError(t, err)
	require.Len(t, series, 2)

	total := 0
	for i, s := range series {
		assert.Equal(t, res.Summary[i].Group, s.Group)
		assert.Equal(t, GroupLabel(s.Group), s.Label)
		c, _ := ColorFor(s.Group)
		assert.Equal(t, c, s.Color)
		total += len(s.Points)
	}
	assert.Equal(t, 3, total)

	far := series[0]
	if far.Group != res.Assignment[2] {
		far = series[1]
	}
	assert.Equal(t, []LonLat{{Lon: 26.0, Lat: 40.0}}, far.Points)
}

func TestGroupLabel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Küme 3", GroupLabel(3))
}
