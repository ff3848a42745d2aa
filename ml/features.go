package ml

// MixtureInput holds the raw quantities entered for one concrete mixture.
// Quantities are kg per cubic metre of concrete; AgeDays is the curing age.
type MixtureInput struct {
	Cement           float64 `json:"cement" yaml:"cement"`
	BlastFurnaceSlag float64 `json:"blast_furnace_slag" yaml:"blast_furnace_slag"`
	FlyAsh           float64 `json:"fly_ash" yaml:"fly_ash"`
	Water            float64 `json:"water" yaml:"water"`
	Superplasticizer float64 `json:"superplasticizer" yaml:"superplasticizer"`
	CoarseAggregate  float64 `json:"coarse_aggregate" yaml:"coarse_aggregate"`
	FineAggregate    float64 `json:"fine_aggregate" yaml:"fine_aggregate"`
	AgeDays          int     `json:"age" yaml:"age"`
}

// FeatureRow is the vector submitted to the model. It differs from
// MixtureInput only in that the age is replaced by its natural logarithm.
type FeatureRow struct {
	Cement           float64 `json:"cement"`
	BlastFurnaceSlag float64 `json:"blast_furnace_salag"`
	FlyAsh           float64 `json:"fly_ash"`
	Water            float64 `json:"water"`
	Superplasticizer float64 `json:"superplasticizer"`
	CoarseAggregate  float64 `json:"coarse_aggregate"`
	FineAggregate    float64 `json:"fine_aggregate"`
	LogAge           float64 `json:"log_age"`
}

// BuildFeatures maps a mixture onto the feature row expected by the model.
func BuildFeatures(input MixtureInput) FeatureRow {
	return FeatureRow{
		Cement:           input.Cement,
		BlastFurnaceSlag: input.BlastFurnaceSlag,
		FlyAsh:           input.FlyAsh,
		Water:            input.Water,
		Superplasticizer: input.Superplasticizer,
		CoarseAggregate:  input.CoarseAggregate,
		FineAggregate:    input.FineAggregate,
		LogAge:           LogAge(input.AgeDays),
	}
}

// WithAge returns a copy of the row where only LogAge is recomputed for age.
func (r FeatureRow) WithAge(age int) FeatureRow {
	r.LogAge = LogAge(age)
	return r
}

// Vector returns the row in FeatureNames order.
func (r FeatureRow) Vector() []float64 {
	return []float64{
		r.Cement,
		r.BlastFurnaceSlag,
		r.FlyAsh,
		r.Water,
		r.Superplasticizer,
		r.CoarseAggregate,
		r.FineAggregate,
		r.LogAge,
	}
}

// FeatureNames lists the model columns. The "salag" spelling matches the
// column name the model was trained with and must not be corrected.
func FeatureNames() []string {
	return []string{
		"cement",
		"blast_furnace_salag",
		"fly_ash",
		"water",
		"superplasticizer",
		"coarse_aggregate",
		"fine_aggregate",
		"log_age",
	}
}

func sameFeatureNames(names []string) bool {
	expected := FeatureNames()
	if len(names) != len(expected) {
		return false
	}
	for i, name := range names {
		if name != expected[i] {
			return false
		}
	}
	return true
}
