package format

// ChartType is a recommended rendering for a KPI category breakdown.
type ChartType string

const (
	ChartCards ChartType = "cards"
	ChartBar   ChartType = "bar"
	ChartPie   ChartType = "pie"
)

// AutoChartType recommends a chart for a category breakdown using the
// concentration ratio of the largest category. Few categories render as
// cards; a dominant category reads best as a pie; otherwise a bar chart.
// The recommendation is always user-overridable.
func AutoChartType(categories map[string]float64) ChartType {
	if len(categories) <= 3 {
		return ChartCards
	}

	var total, max float64
	for _, v := range categories {
		if v < 0 {
			v = 0
		}
		total += v
		if v > max {
			max = v
		}
	}
	if total <= 0 {
		return ChartCards
	}
	if max/total >= 0.5 {
		return ChartPie
	}
	return ChartBar
}
