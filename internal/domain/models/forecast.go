package models

import "time"

// Forecast is the output table of the forecasting collaborator indexed by
// future calendar dates.
type Forecast struct {
	Dates    []time.Time `json:"-"`
	Forecast []float64   `json:"forecast"`
	LowerCI  []float64   `json:"lower_ci"`
	UpperCI  []float64   `json:"upper_ci"`
	Model    string      `json:"model"`
}

// DateStrings renders Dates as YYYY-MM-DD.
func (f Forecast) DateStrings() []string {
	out := make([]string, len(f.Dates))
	for i, d := range f.Dates {
		out[i] = d.Format("2006-01-02")
	}
	return out
}
