package ml

import (
	"fmt"
	"math"
)

// InputField describes one bounded form input.
type InputField struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Unit    string  `json:"unit,omitempty"`
	Min     float64 `json:"min"`
	Default float64 `json:"default"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step"`
	Integer bool    `json:"integer"`
}

// Field keys, in form order.
const (
	FieldCement           = "cement"
	FieldBlastFurnaceSlag = "blast_furnace_slag"
	FieldFlyAsh           = "fly_ash"
	FieldWater            = "water"
	FieldSuperplasticizer = "superplasticizer"
	FieldCoarseAggregate  = "coarse_aggregate"
	FieldFineAggregate    = "fine_aggregate"
	FieldAge              = "age"
)

var inputFields = []InputField{
	{Key: FieldCement, Label: "Cemento", Unit: "kg/m³", Min: 100, Default: 300, Max: 600, Step: 0.01},
	{Key: FieldBlastFurnaceSlag, Label: "Escoria (Slag)", Unit: "kg/m³", Min: 0, Default: 0, Max: 400, Step: 0.01},
	{Key: FieldFlyAsh, Label: "Ceniza (Fly Ash)", Unit: "kg/m³", Min: 0, Default: 0, Max: 300, Step: 0.01},
	{Key: FieldWater, Label: "Agua", Unit: "kg/m³", Min: 100, Default: 180, Max: 250, Step: 0.01},
	{Key: FieldSuperplasticizer, Label: "Superplastificante", Unit: "kg/m³", Min: 0, Default: 0, Max: 35, Step: 0.01},
	{Key: FieldCoarseAggregate, Label: "Agregado Grueso", Unit: "kg/m³", Min: 700, Default: 900, Max: 1200, Step: 0.01},
	{Key: FieldFineAggregate, Label: "Agregado Fino", Unit: "kg/m³", Min: 500, Default: 700, Max: 1000, Step: 0.01},
	{Key: FieldAge, Label: "Edad", Unit: "días", Min: 1, Default: 28, Max: 365, Step: 1, Integer: true},
}

// InputFields returns the ordered input table. The slice is a copy.
func InputFields() []InputField {
	fields := make([]InputField, len(inputFields))
	copy(fields, inputFields)
	return fields
}

// LookupField returns the field definition for key.
func LookupField(key string) (InputField, bool) {
	for _, field := range inputFields {
		if field.Key == key {
			return field, true
		}
	}
	return InputField{}, false
}

// DefaultMixture returns the mixture shown before the user edits anything.
func DefaultMixture() MixtureInput {
	var input MixtureInput
	for _, field := range inputFields {
		input.Set(field.Key, field.Default)
	}
	return input
}

// Get returns the value stored under a field key.
func (m MixtureInput) Get(key string) (float64, bool) {
	switch key {
	case FieldCement:
		return m.Cement, true
	case FieldBlastFurnaceSlag:
		return m.BlastFurnaceSlag, true
	case FieldFlyAsh:
		return m.FlyAsh, true
	case FieldWater:
		return m.Water, true
	case FieldSuperplasticizer:
		return m.Superplasticizer, true
	case FieldCoarseAggregate:
		return m.CoarseAggregate, true
	case FieldFineAggregate:
		return m.FineAggregate, true
	case FieldAge:
		return float64(m.AgeDays), true
	}
	return 0, false
}

// Set stores value under a field key. Ages are truncated to whole days.
func (m *MixtureInput) Set(key string, value float64) bool {
	switch key {
	case FieldCement:
		m.Cement = value
	case FieldBlastFurnaceSlag:
		m.BlastFurnaceSlag = value
	case FieldFlyAsh:
		m.FlyAsh = value
	case FieldWater:
		m.Water = value
	case FieldSuperplasticizer:
		m.Superplasticizer = value
	case FieldCoarseAggregate:
		m.CoarseAggregate = value
	case FieldFineAggregate:
		m.FineAggregate = value
	case FieldAge:
		m.AgeDays = int(value)
	default:
		return false
	}
	return true
}

// BoundsError reports an input outside its allowed range.
type BoundsError struct {
	Field InputField
	Value float64
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s must be between %g and %g, got %g", e.Field.Key, e.Field.Min, e.Field.Max, e.Value)
}

// ValidateInput checks every field against its range and returns the first
// violation as a *BoundsError.
func ValidateInput(input MixtureInput) error {
	for _, field := range inputFields {
		value, _ := input.Get(field.Key)
		if math.IsNaN(value) || value < field.Min || value > field.Max {
			return &BoundsError{Field: field, Value: value}
		}
	}
	return nil
}
