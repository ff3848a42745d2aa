package ml

import "fmt"

// LinearModel is intercept + coefficients·x.
type LinearModel struct {
	Intercept    float64
	Coefficients []float64
	names        []string
}

func (m *LinearModel) FeatureNames() []string {
	return append([]string(nil), m.names...)
}

func (m *LinearModel) Predict(rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(m.Coefficients) {
			return nil, fmt.Errorf("row %d: expected %d features, got %d", i, len(m.Coefficients), len(row))
		}
		value := m.Intercept
		for j, x := range row {
			value += m.Coefficients[j] * x
		}
		out[i] = value
	}
	return out, nil
}
