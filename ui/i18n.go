package ui

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Labels is the user-visible text of one language.
type Labels struct {
	PageTitle        string
	Heading          string
	Intro            string
	SidebarHeader    string
	SummaryHeader    string
	ComputeButton    string
	BannerFormat     string
	CurveHeader      string
	ChartTitle       string
	XAxis            string
	YAxis            string
	CurveSeries      string
	CurrentPoint     string
	InvalidInput     string
	PredictionFailed string
	Fields           map[string]string
}

var spanish = Labels{
	PageTitle:        "Predicción de Resistencia del Concreto",
	Heading:          "Analizador de Resistencia de Concreto",
	Intro:            "Esta aplicación predice la Resistencia a la Compresión (MPa) del concreto basada en su composición química y edad.",
	SidebarHeader:    "Parámetros de Entrada",
	SummaryHeader:    "Resumen de la Mezcla",
	ComputeButton:    "Calcular Resistencia",
	BannerFormat:     "Resistencia Predicha: %.2f MPa",
	CurveHeader:      "Evolución Estimada según la Edad",
	ChartTitle:       "Curva de Resistencia Estimada",
	XAxis:            "Días",
	YAxis:            "Resistencia (MPa)",
	CurveSeries:      "Curva estimada",
	CurrentPoint:     "Punto Actual",
	InvalidInput:     "Valor fuera de rango",
	PredictionFailed: "No se pudo calcular la resistencia. Inténtelo de nuevo.",
	Fields: map[string]string{
		"cement":             "Cemento (kg/m³)",
		"blast_furnace_slag": "Escoria (Slag)",
		"fly_ash":            "Ceniza (Fly Ash)",
		"water":              "Agua (kg/m³)",
		"superplasticizer":   "Superplastificante",
		"coarse_aggregate":   "Agregado Grueso",
		"fine_aggregate":     "Agregado Fino",
		"age":                "Edad (Días)",
	},
}

var english = Labels{
	PageTitle:        "Concrete Strength Prediction",
	Heading:          "Concrete Strength Analyzer",
	Intro:            "This application predicts the compressive strength (MPa) of concrete from its mixture composition and age.",
	SidebarHeader:    "Input Parameters",
	SummaryHeader:    "Mixture Summary",
	ComputeButton:    "Compute Strength",
	BannerFormat:     "Predicted Strength: %.2f MPa",
	CurveHeader:      "Estimated Strength by Age",
	ChartTitle:       "Estimated Strength Curve",
	XAxis:            "Days",
	YAxis:            "Strength (MPa)",
	CurveSeries:      "Estimated curve",
	CurrentPoint:     "Current Point",
	InvalidInput:     "Value out of range",
	PredictionFailed: "The strength could not be computed. Please try again.",
	Fields: map[string]string{
		"cement":             "Cement (kg/m³)",
		"blast_furnace_slag": "Blast Furnace Slag",
		"fly_ash":            "Fly Ash",
		"water":              "Water (kg/m³)",
		"superplasticizer":   "Superplasticizer",
		"coarse_aggregate":   "Coarse Aggregate",
		"fine_aggregate":     "Fine Aggregate",
		"age":                "Age (Days)",
	},
}

var catalog = map[language.Tag]Labels{
	language.Spanish: spanish,
	language.English: english,
}

// Localizer resolves Accept-Language headers to one of the supported
// languages. Resolved headers are memoised.
type Localizer struct {
	supported []language.Tag
	matcher   language.Matcher
	cache     *lru.Cache[string, language.Tag]
}

func NewLocalizer(defaultLanguage string, cacheSize int) (*Localizer, error) {
	def, err := language.Parse(defaultLanguage)
	if err != nil {
		return nil, fmt.Errorf("parse default language %q: %w", defaultLanguage, err)
	}
	base, _ := def.Base()
	def = language.Make(base.String())
	if _, ok := catalog[def]; !ok {
		return nil, fmt.Errorf("unsupported default language %q", defaultLanguage)
	}

	supported := []language.Tag{def}
	for _, tag := range []language.Tag{language.Spanish, language.English} {
		if tag != def {
			supported = append(supported, tag)
		}
	}

	cache, err := lru.New[string, language.Tag](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Localizer{
		supported: supported,
		matcher:   language.NewMatcher(supported),
		cache:     cache,
	}, nil
}

// Match returns the supported language closest to an Accept-Language value.
func (l *Localizer) Match(acceptLanguage string) language.Tag {
	if tag, ok := l.cache.Get(acceptLanguage); ok {
		return tag
	}
	tag := l.supported[0]
	if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil && len(tags) > 0 {
		_, idx, confidence := l.matcher.Match(tags...)
		if confidence != language.No {
			tag = l.supported[idx]
		}
	}
	l.cache.Add(acceptLanguage, tag)
	return tag
}

func (l *Localizer) Default() language.Tag {
	return l.supported[0]
}

func (l *Localizer) Labels(tag language.Tag) Labels {
	if labels, ok := catalog[tag]; ok {
		return labels
	}
	return catalog[l.supported[0]]
}

// Sprintf formats with the number conventions of tag.
func (l *Localizer) Sprintf(tag language.Tag, format string, args ...any) string {
	return message.NewPrinter(tag).Sprintf(format, args...)
}

// Banner renders the success message for a point estimate.
func (l *Localizer) Banner(tag language.Tag, strength float64) string {
	return l.Sprintf(tag, l.Labels(tag).BannerFormat, strength)
}
