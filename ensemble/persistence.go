package ensemble

import (
	"encoding/json"
	"os"

	"github.com/gopherml/goinspect/pkg/errors"
)

// modelFile is the on-disk JSON layout of a fitted ensemble.
type modelFile struct {
	Version        int               `json:"version"`
	NEstimators    int               `json:"n_estimators"`
	LearningRate   float64           `json:"learning_rate"`
	MaxDepth       int               `json:"max_depth"`
	MinSamplesLeaf int               `json:"min_samples_leaf"`
	Subsample      float64           `json:"subsample"`
	RandomState    int64             `json:"random_state"`
	InitScore      float64           `json:"init_score"`
	NumFeatures    int               `json:"num_features"`
	Trees          []*regressionTree `json:"trees"`
}

const modelFileVersion = 1

// Save writes the fitted ensemble to path as JSON.
func (g *GradientBoostingRegressor) Save(path string) error {
	if !g.IsFitted() {
		return errors.NewNotFittedError("GradientBoostingRegressor", "Save")
	}

	mf := modelFile{
		Version:        modelFileVersion,
		NEstimators:    g.NEstimators,
		LearningRate:   g.LearningRate,
		MaxDepth:       g.MaxDepth,
		MinSamplesLeaf: g.MinSamplesLeaf,
		Subsample:      g.Subsample,
		RandomState:    g.RandomState,
		InitScore:      g.initScore_,
		NumFeatures:    g.nFeatures_,
		Trees:          g.trees_,
	}

	data, err := json.Marshal(&mf)
	if err != nil {
		return errors.Wrap(err, "marshaling model")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing model to %s", path)
	}
	return nil
}

// Load reads a previously saved ensemble from path, replacing any fitted
// state.
func (g *GradientBoostingRegressor) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading model from %s", path)
	}

	var mf modelFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return errors.Wrapf(err, "unmarshaling model from %s", path)
	}
	if mf.Version != modelFileVersion {
		return errors.Newf("unsupported model file version %d", mf.Version)
	}
	if len(mf.Trees) == 0 {
		return errors.Newf("model file %s contains no trees", path)
	}

	g.NEstimators = mf.NEstimators
	g.LearningRate = mf.LearningRate
	g.MaxDepth = mf.MaxDepth
	g.MinSamplesLeaf = mf.MinSamplesLeaf
	g.Subsample = mf.Subsample
	g.RandomState = mf.RandomState
	g.initScore_ = mf.InitScore
	g.nFeatures_ = mf.NumFeatures
	g.trees_ = mf.Trees

	g.SetFitted()
	return nil
}
