package ml

import (
	"fmt"
)

// LoadModel reads the artifact at path and builds its regressor. An empty
// modelType accepts whatever type the artifact declares.
func LoadModel(modelType, path string) (Regressor, error) {
	model, _, err := loadModel(modelType, path)
	return model, err
}

func loadModel(modelType, path string) (Regressor, ArtifactInfo, error) {
	artifact, info, err := ReadArtifact(path)
	if err != nil {
		return nil, ArtifactInfo{}, err
	}
	model, err := CheckArtifact(modelType, artifact)
	if err != nil {
		return nil, ArtifactInfo{}, err
	}
	return model, info, nil
}

// CheckArtifact runs every check a load runs on a decoded artifact: the
// declared type against modelType, the feature names and their order, and
// the model payload. It returns the regressor the artifact describes.
func CheckArtifact(modelType string, artifact *Artifact) (Regressor, error) {
	if modelType != "" && modelType != artifact.Type {
		return nil, fmt.Errorf("%w: configured %q, artifact declares %q", ErrUnsupportedModel, modelType, artifact.Type)
	}
	if !sameFeatureNames(artifact.FeatureNames) {
		return nil, fmt.Errorf("%w: got %v, want %v", ErrFeatureMismatch, artifact.FeatureNames, FeatureNames())
	}
	return NewRegressor(artifact)
}

// NewRegressor builds the regressor described by an already decoded artifact.
func NewRegressor(artifact *Artifact) (Regressor, error) {
	names := append([]string(nil), artifact.FeatureNames...)
	switch artifact.Type {
	case ModelTypeLinear:
		if len(artifact.Coefficients) != len(names) {
			return nil, fmt.Errorf("linear model: %d coefficients for %d features", len(artifact.Coefficients), len(names))
		}
		return &LinearModel{
			Intercept:    artifact.Intercept,
			Coefficients: append([]float64(nil), artifact.Coefficients...),
			names:        names,
		}, nil
	case ModelTypeGradientBoosting, ModelTypeRandomForest:
		if len(artifact.Trees) == 0 {
			return nil, fmt.Errorf("%s model: no trees", artifact.Type)
		}
		for i, tree := range artifact.Trees {
			if err := tree.validate(len(names)); err != nil {
				return nil, fmt.Errorf("%s model tree %d: %w", artifact.Type, i, err)
			}
		}
		ensemble := &TreeEnsemble{
			BaseScore:    artifact.BaseScore,
			LearningRate: artifact.LearningRate,
			Trees:        artifact.Trees,
			Average:      artifact.Type == ModelTypeRandomForest,
			names:        names,
		}
		if !ensemble.Average && ensemble.LearningRate == 0 {
			ensemble.LearningRate = 1
		}
		return ensemble, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, artifact.Type)
	}
}
