// Package render draws clustering results for the chart and table surfaces:
// a static PNG scatter map (gonum/plot), an interactive HTML scatter map
// (go-echarts) and terminal tables (lipgloss).
//
// Axis labels follow the field teams' sheets: "Boylam" (longitude) on X and
// "Enlem" (latitude) on Y. Every group is drawn in its fixed palette color.
package render

// Chart text shared by both map renderers.
const (
	MapTitle    = "Koku Gözlemleri Kümelendirme Haritası (KMeans)"
	XAxisLabel  = "Boylam"
	YAxisLabel  = "Enlem"
	LegendTitle = "Kümeler"
)
