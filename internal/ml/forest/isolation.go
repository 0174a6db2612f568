package forest

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

// Labels returned by IsolationForest.Label.
const (
	Outlier = -1
	Inlier  = 1
)

const eulerGamma = 0.5772156649015329

// IsolationConfig controls isolation forest training.
type IsolationConfig struct {
	Trees         int
	SampleSize    int
	Contamination float64
	Seed          uint64
}

func DefaultIsolationConfig() IsolationConfig {
	return IsolationConfig{Trees: 100, SampleSize: 256, Contamination: 0.05, Seed: 42}
}

// IsolationForest scores points by how quickly random splits isolate them.
type IsolationForest struct {
	Features   int     `json:"features"`
	SampleSize int     `json:"sample_size"`
	Threshold  float64 `json:"threshold"`
	Trees      []Tree  `json:"trees"`
}

// FitIsolation trains on X and sets the anomaly threshold so that roughly
// Contamination of the training rows score above it.
func FitIsolation(X [][]float64, cfg IsolationConfig) (*IsolationForest, error) {
	if len(X) == 0 {
		return nil, errors.New("no training rows")
	}
	if cfg.Contamination <= 0 || cfg.Contamination >= 0.5 {
		return nil, fmt.Errorf("contamination must be in (0, 0.5), got %v", cfg.Contamination)
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return nil, fmt.Errorf("row %d: %w", i, ErrFeatureWidth)
		}
	}
	if cfg.Trees <= 0 {
		cfg.Trees = 1
	}
	psi := cfg.SampleSize
	if psi <= 0 || psi > len(X) {
		psi = len(X)
	}
	limit := int(math.Ceil(math.Log2(math.Max(float64(psi), 2))))

	f := &IsolationForest{Features: width, SampleSize: psi, Trees: make([]Tree, cfg.Trees)}
	for t := range f.Trees {
		rng := rand.New(rand.NewPCG(cfg.Seed, uint64(t)))
		sample := rng.Perm(len(X))[:psi]
		b := &isoBuilder{X: X, rng: rng, width: width, limit: limit}
		b.build(sample, 0)
		f.Trees[t] = b.tree
	}

	scores := make([]float64, len(X))
	for i, row := range X {
		scores[i] = f.score(row)
	}
	f.Threshold = percentile(scores, 1-cfg.Contamination)
	return f, nil
}

// Score returns the anomaly score in (0, 1]; values near 1 are outliers.
func (f *IsolationForest) Score(x []float64) (float64, error) {
	if len(x) != f.Features {
		return 0, fmt.Errorf("got %d features, want %d: %w", len(x), f.Features, ErrFeatureWidth)
	}
	return f.score(x), nil
}

// Label returns Outlier when the score exceeds the trained threshold, Inlier otherwise.
func (f *IsolationForest) Label(x []float64) (int, error) {
	s, err := f.Score(x)
	if err != nil {
		return 0, err
	}
	if s > f.Threshold {
		return Outlier, nil
	}
	return Inlier, nil
}

func (f *IsolationForest) Validate() error {
	if f.Features <= 0 || len(f.Trees) == 0 || f.SampleSize <= 0 {
		return errors.New("empty isolation forest")
	}
	for i := range f.Trees {
		if !f.Trees[i].valid(f.Features) {
			return fmt.Errorf("tree %d is malformed", i)
		}
	}
	return nil
}

func (f *IsolationForest) score(x []float64) float64 {
	var total float64
	for i := range f.Trees {
		n, depth := f.Trees[i].walk(x)
		total += float64(depth) + averagePathLength(n.Size)
	}
	mean := total / float64(len(f.Trees))
	c := averagePathLength(f.SampleSize)
	if c == 0 {
		return 0.5
	}
	return math.Pow(2, -mean/c)
}

// averagePathLength is the expected path length of an unsuccessful BST search over n points.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
}

func percentile(v []float64, q float64) float64 {
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	pos := q * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return s[lo]
	}
	return s[lo] + (s[hi]-s[lo])*(pos-float64(lo))
}

type isoBuilder struct {
	X     [][]float64
	rng   *rand.Rand
	width int
	limit int
	tree  Tree
}

func (b *isoBuilder) build(idx []int, depth int) int {
	if depth >= b.limit || len(idx) <= 1 {
		return b.tree.add(Node{Feature: leaf, Size: len(idx)})
	}
	feat := b.rng.IntN(b.width)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, i := range idx {
		v := b.X[i][feat]
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return b.tree.add(Node{Feature: leaf, Size: len(idx)})
	}
	thr := lo + b.rng.Float64()*(hi-lo)

	var left, right []int
	for _, i := range idx {
		if b.X[i][feat] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return b.tree.add(Node{Feature: leaf, Size: len(idx)})
	}

	self := b.tree.add(Node{Feature: feat, Threshold: thr, Size: len(idx)})
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.tree.Nodes[self].Left = l
	b.tree.Nodes[self].Right = r
	return self
}
