package ml

import (
	"bytes"
	"go/format"
	"os"
	"testing"
)

func TestRegressionTreePredict(t *testing.T) {
	// cement <= 350 ? 20 : (log_age <= 3 ? 30 : 45)
	tree := RegressionTree{
		{FeatureIdx: 0, Threshold: 350, LeftChild: 1, RightChild: 2},
		{IsLeaf: true, Value: 20},
		{FeatureIdx: 7, Threshold: 3, LeftChild: 3, RightChild: 4},
		{IsLeaf: true, Value: 30},
		{IsLeaf: true, Value: 45},
	}
	if err := tree.validate(8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		row  FeatureRow
		want float64
	}{
		{FeatureRow{Cement: 300, LogAge: 5}, 20},
		{FeatureRow{Cement: 400, LogAge: 1}, 30},
		{FeatureRow{Cement: 400, LogAge: 4}, 45},
	}
	for _, tc := range cases {
		got, err := tree.Predict(tc.row.Vector())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tc.want {
			t.Fatalf("expected %v, got %v", tc.want, got)
		}
	}
}

func TestRegressionTreeRejectsBadStructure(t *testing.T) {
	cyclic := RegressionTree{
		{FeatureIdx: 0, Threshold: 1, LeftChild: 0, RightChild: 0},
	}
	if err := cyclic.validate(8); err == nil {
		t.Fatal("expected error for cyclic tree")
	}
	if _, err := cyclic.Predict(make([]float64, 8)); err == nil {
		t.Fatal("expected error walking cyclic tree")
	}
	if _, err := (RegressionTree{}).Predict(nil); err == nil {
		t.Fatal("expected error for empty tree")
	}
}

func TestTreeEnsembleBoostedAndAveraged(t *testing.T) {
	trees := []RegressionTree{
		{{IsLeaf: true, Value: 10}},
		{{IsLeaf: true, Value: 20}},
	}
	boosted := &TreeEnsemble{BaseScore: 5, LearningRate: 0.5, Trees: trees, names: FeatureNames()}
	averaged := &TreeEnsemble{Trees: trees, Average: true, names: FeatureNames()}
	row := BuildFeatures(DefaultMixture()).Vector()

	got, err := boosted.Predict([][]float64{row})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0] != 20 {
		t.Fatalf("expected 20, got %v", got[0])
	}

	got, err = averaged.Predict([][]float64{row, row})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != 15 || got[1] != 15 {
		t.Fatalf("unexpected predictions: %v", got)
	}

	if _, err := boosted.Predict([][]float64{{1, 2}}); err == nil {
		t.Fatal("expected error for short row")
	}
}

func TestRegressionTreeSourceIsFormatted(t *testing.T) {
	src, err := os.ReadFile("regression_tree.go")
	if err != nil {
		t.Fatal(err)
	}
	formatted, err := format.Source(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(src, formatted) {
		t.Fatal("regression_tree.go is not gofmt formatted")
	}
}
