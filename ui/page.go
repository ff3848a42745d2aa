package ui

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strconv"

	"golang.org/x/text/language"

	"concretestrength/ml"
	"concretestrength/prediction"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// View is what one render pass shows: the current inputs, and the result of
// the compute action when there was one.
type View struct {
	Input  ml.MixtureInput
	Result *prediction.Result
	Error  string
}

type fieldView struct {
	Key     string
	Label   string
	Min     string
	Max     string
	Step    string
	Value   string
	Integer bool
}

type summaryView struct {
	Columns []string
	Values  []string
}

type curveRow struct {
	Age      int
	Strength string
}

type pageData struct {
	Lang    string
	Labels  Labels
	Fields  []fieldView
	Summary summaryView
	Error   string
	Banner  string
	Chart   template.HTML
	Curve   []curveRow
}

// Renderer renders the form page.
type Renderer struct {
	tmpl      *template.Template
	localizer *Localizer
}

func NewRenderer(localizer *Localizer) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl, localizer: localizer}, nil
}

// StaticHandler serves the page's script under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}

func (r *Renderer) Localizer() *Localizer {
	return r.localizer
}

// RenderPage writes the page for view in language tag. A chart that fails to
// render is left out; the banner and curve table are still shown.
func (r *Renderer) RenderPage(w io.Writer, tag language.Tag, view View) error {
	labels := r.localizer.Labels(tag)
	data := pageData{
		Lang:    tag.String(),
		Labels:  labels,
		Fields:  fieldViews(view.Input, labels),
		Summary: r.summary(tag, ml.BuildFeatures(view.Input)),
		Error:   view.Error,
	}

	if view.Result != nil {
		data.Banner = r.localizer.Banner(tag, view.Result.Strength)
		for _, point := range view.Result.Curve {
			data.Curve = append(data.Curve, curveRow{
				Age:      point.AgeDays,
				Strength: r.localizer.Sprintf(tag, "%.2f", point.Strength),
			})
		}
		var svg bytes.Buffer
		if err := RenderChart(&svg, view.Result, labels); err == nil {
			data.Chart = template.HTML(svg.String())
		}
	}

	return r.tmpl.ExecuteTemplate(w, "index.html", data)
}

// summary returns the feature row as column names and formatted values.
func (r *Renderer) summary(tag language.Tag, row ml.FeatureRow) summaryView {
	values := row.Vector()
	view := summaryView{Columns: ml.FeatureNames(), Values: make([]string, len(values))}
	for i, value := range values {
		view.Values[i] = r.localizer.Sprintf(tag, "%.4f", value)
	}
	return view
}

func fieldViews(input ml.MixtureInput, labels Labels) []fieldView {
	fields := ml.InputFields()
	views := make([]fieldView, len(fields))
	for i, field := range fields {
		value, _ := input.Get(field.Key)
		label := labels.Fields[field.Key]
		if label == "" {
			label = field.Label
		}
		views[i] = fieldView{
			Key:     field.Key,
			Label:   label,
			Min:     formatNumber(field.Min),
			Max:     formatNumber(field.Max),
			Step:    formatNumber(field.Step),
			Value:   formatNumber(value),
			Integer: field.Integer,
		}
	}
	return views
}

// HTML number inputs always take '.' decimals, whatever the page language.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
