package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"concretestrength/ml"
	"concretestrength/prediction"
	"concretestrength/ui"
)

func newPredictCmd(a *app) *cobra.Command {
	input := ml.DefaultMixture()
	var (
		lang      string
		chartPath string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict compressive strength for one mixture",
		Long: `Builds the feature row for the mixture given by the flags, prints it,
and prints the predicted strength and the strength at each reference age.

Example:
  strength predict --cement 350 --water 170 --age 7 --chart curve.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ml.ValidateInput(input); err != nil {
				return err
			}

			model, err := a.provider().Model()
			if err != nil {
				return fmt.Errorf("failed to load model: %w", err)
			}
			result, err := prediction.NewService(model, prediction.WithLogger(a.logger)).
				Predict(context.Background(), input)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			if lang == "" {
				lang = a.cfg.UI.DefaultLanguage
			}
			localizer, err := ui.NewLocalizer(a.cfg.UI.DefaultLanguage, 4)
			if err != nil {
				return err
			}
			tag := localizer.Match(lang)
			if err := printResult(cmd.OutOrStdout(), localizer, tag, result); err != nil {
				return err
			}

			if chartPath != "" {
				return writeChart(chartPath, result, localizer.Labels(tag))
			}
			return nil
		},
	}

	for _, field := range ml.InputFields() {
		usage := fmt.Sprintf("%s (%s, %g-%g)", field.Label, field.Unit, field.Min, field.Max)
		if field.Integer {
			cmd.Flags().IntVar(&input.AgeDays, field.Key, input.AgeDays, usage)
			continue
		}
		cmd.Flags().Float64Var(fieldPtr(&input, field.Key), field.Key, field.Default, usage)
	}
	cmd.Flags().StringVar(&lang, "lang", "", "Output language (es or en)")
	cmd.Flags().StringVar(&chartPath, "chart", "", "Write the aging curve chart as SVG to this path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func fieldPtr(input *ml.MixtureInput, key string) *float64 {
	switch key {
	case ml.FieldCement:
		return &input.Cement
	case ml.FieldBlastFurnaceSlag:
		return &input.BlastFurnaceSlag
	case ml.FieldFlyAsh:
		return &input.FlyAsh
	case ml.FieldWater:
		return &input.Water
	case ml.FieldSuperplasticizer:
		return &input.Superplasticizer
	case ml.FieldCoarseAggregate:
		return &input.CoarseAggregate
	case ml.FieldFineAggregate:
		return &input.FineAggregate
	}
	panic("unknown mixture field " + key)
}

func printResult(w io.Writer, localizer *ui.Localizer, tag language.Tag, result *prediction.Result) error {
	labels := localizer.Labels(tag)

	fmt.Fprintln(w, labels.SummaryHeader)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, name := range ml.FeatureNames() {
		fmt.Fprintf(tw, "%s\t", name)
	}
	fmt.Fprintln(tw)
	for _, value := range result.Row.Vector() {
		fmt.Fprintf(tw, "%s\t", localizer.Sprintf(tag, "%.4f", value))
	}
	fmt.Fprintln(tw)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, localizer.Banner(tag, result.Strength))
	fmt.Fprintln(w)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\t%s\t\n", labels.XAxis, labels.YAxis)
	for _, point := range result.Curve {
		fmt.Fprintf(tw, "%d\t%s\t\n", point.AgeDays, localizer.Sprintf(tag, "%.2f", point.Strength))
	}
	return tw.Flush()
}

func writeChart(path string, result *prediction.Result, labels ui.Labels) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	if err := ui.RenderChart(f, result, labels); err != nil {
		f.Close()
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return f.Close()
}
