package ml

import (
	"errors"
	"fmt"
)

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

// RegressionTree is a flat node array; node 0 is the root.
type RegressionTree []TreeNode

func (t RegressionTree) Predict(features []float64) (float64, error) {
	if len(t) == 0 {
		return 0, errors.New("empty tree")
	}
	idx := 0
	for steps := 0; steps <= len(t); steps++ {
		node := t[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(t) {
			return 0, errors.New("invalid tree state")
		}
	}
	return 0, errors.New("tree contains a cycle")
}

func (t RegressionTree) validate(featureCount int) error {
	if len(t) == 0 {
		return errors.New("empty tree")
	}
	for i, node := range t {
		if node.IsLeaf {
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= featureCount {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		if node.LeftChild <= i || node.LeftChild >= len(t) || node.RightChild <= i || node.RightChild >= len(t) {
			return fmt.Errorf("node %d: invalid children %d/%d", i, node.LeftChild, node.RightChild)
		}
	}
	return nil
}

// TreeEnsemble evaluates boosted or bagged regression trees.
//
// Boosted: BaseScore + LearningRate * sum(tree(x)).
// Averaged: mean(tree(x)).
type TreeEnsemble struct {
	BaseScore    float64
	LearningRate float64
	Trees        []RegressionTree
	Average      bool
	names        []string
}

func (e *TreeEnsemble) FeatureNames() []string {
	return append([]string(nil), e.names...)
}

func (e *TreeEnsemble) Predict(rows [][]float64) ([]float64, error) {
	if len(e.Trees) == 0 {
		return nil, errors.New("model not trained")
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(e.names) {
			return nil, fmt.Errorf("row %d: expected %d features, got %d", i, len(e.names), len(row))
		}
		sum := 0.0
		for j, tree := range e.Trees {
			value, err := tree.Predict(row)
			if err != nil {
				return nil, fmt.Errorf("row %d tree %d: %w", i, j, err)
			}
			sum += value
		}
		if e.Average {
			out[i] = sum / float64(len(e.Trees))
		} else {
			out[i] = e.BaseScore + e.LearningRate*sum
		}
	}
	return out, nil
}
