package training

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"EnergyForecast/internal/ml/forest"
	"EnergyForecast/pkg/logger"
)

// Artifact file names written by Save.
const (
	RegressorFile = "regressor.json"
	AnomalyFile   = "anomaly.json"
)

// FeatureNames labels the regressor input columns.
var FeatureNames = []string{"units", "avg_last_3", "avg_last_7", "trend", "day_of_week", "is_weekend"}

// Options controls a training run.
type Options struct {
	Trees         int
	MaxDepth      int
	Contamination float64
	SampleSize    int
	Target        string
	Seed          uint64
}

// DefaultOptions returns 100-tree forests, 5% contamination and a next-day target.
func DefaultOptions() Options {
	rc := forest.DefaultRegressorConfig()
	ic := forest.DefaultIsolationConfig()
	return Options{
		Trees:         rc.Trees,
		MaxDepth:      rc.MaxDepth,
		Contamination: ic.Contamination,
		SampleSize:    ic.SampleSize,
		Target:        TargetNextDay,
		Seed:          rc.Seed,
	}
}

// Result holds both fitted artifacts and run statistics.
type Result struct {
	Regressor *forest.Artifact
	Anomaly   *forest.Artifact
	Users     int
	Rows      int
	Flatten   FlattenStats
	Duration  time.Duration
}

// ErrNoRows is returned when no user has enough history to produce a training row.
var ErrNoRows = errors.New("no training rows: every user has fewer than 7 consecutive days")

// Trainer fits the consumption regressor and the anomaly model.
type Trainer struct {
	opts Options
	log  *logger.Logger
}

func NewTrainer(opts Options, log *logger.Logger) *Trainer {
	if log == nil {
		log = logger.Nop()
	}
	return &Trainer{opts: opts, log: log}
}

// Fit trains both models from an export.
func (t *Trainer) Fit(ctx context.Context, export Export) (*Result, error) {
	start := time.Now()

	series, stats := export.Flatten()
	t.log.Info("export flattened",
		logger.Int("users", len(series)),
		logger.Int("entries", stats.Entries),
		logger.Int("skipped", stats.Skipped),
		logger.Int("duplicates", stats.Duplicates))

	ds, err := BuildDataset(series, t.opts.Target)
	if err != nil {
		return nil, err
	}
	if ds.Len() == 0 {
		return nil, ErrNoRows
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reg, err := forest.FitRegressor(ds.X, ds.Y, forest.RegressorConfig{
		Trees:    t.opts.Trees,
		MaxDepth: t.opts.MaxDepth,
		MinLeaf:  1,
		Seed:     t.opts.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("fit regressor: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	iso, err := forest.FitIsolation(ds.Units, forest.IsolationConfig{
		Trees:         t.opts.Trees,
		SampleSize:    t.opts.SampleSize,
		Contamination: t.opts.Contamination,
		Seed:          t.opts.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("fit isolation forest: %w", err)
	}

	mae, rmse, err := fitErrors(reg, ds)
	if err != nil {
		return nil, err
	}
	outliers := 0
	for _, u := range ds.Units {
		if l, _ := iso.Label(u); l == forest.Outlier {
			outliers++
		}
	}

	now := time.Now().UTC()
	res := &Result{
		Regressor: &forest.Artifact{
			Kind:      forest.KindRegressor,
			Features:  FeatureNames,
			TrainedAt: now,
			Rows:      ds.Len(),
			Metrics:   map[string]float64{"train_mae": mae, "train_rmse": rmse},
			Regressor: reg,
		},
		Anomaly: &forest.Artifact{
			Kind:      forest.KindIsolation,
			Features:  FeatureNames[:1],
			TrainedAt: now,
			Rows:      ds.Len(),
			Metrics: map[string]float64{
				"threshold":     iso.Threshold,
				"outlier_ratio": float64(outliers) / float64(ds.Len()),
			},
			Isolation: iso,
		},
		Users:    len(series),
		Rows:     ds.Len(),
		Flatten:  stats,
		Duration: time.Since(start),
	}

	t.log.Info("models trained",
		logger.Int("rows", res.Rows),
		logger.Float64("train_mae", mae),
		logger.Float64("train_rmse", rmse),
		logger.Duration("took", res.Duration))
	return res, nil
}

// Save writes both artifacts into dir, creating it if needed.
func (r *Result) Save(dir string) (regPath, anomalyPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create model dir: %w", err)
	}
	regPath = filepath.Join(dir, RegressorFile)
	anomalyPath = filepath.Join(dir, AnomalyFile)
	if err := r.Regressor.Save(regPath); err != nil {
		return "", "", err
	}
	if err := r.Anomaly.Save(anomalyPath); err != nil {
		return "", "", err
	}
	return regPath, anomalyPath, nil
}

func fitErrors(reg *forest.RegressionForest, ds *Dataset) (mae, rmse float64, err error) {
	var abs, sq float64
	for i, x := range ds.X {
		p, err := reg.Predict(x)
		if err != nil {
			return 0, 0, err
		}
		d := p - ds.Y[i]
		abs += math.Abs(d)
		sq += d * d
	}
	n := float64(ds.Len())
	return abs / n, math.Sqrt(sq / n), nil
}
