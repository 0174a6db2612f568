package forest

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sort"
	"sync"
)

// RegressorConfig controls forest training.
type RegressorConfig struct {
	Trees       int
	MaxDepth    int // 0 means unlimited
	MinLeaf     int
	MaxFeatures int // features tried per split, 0 means all
	Seed        uint64
}

// DefaultRegressorConfig mirrors a stock bagged regression forest: 100 trees, all features.
func DefaultRegressorConfig() RegressorConfig {
	return RegressorConfig{Trees: 100, MaxDepth: 16, MinLeaf: 1, Seed: 42}
}

// RegressionForest averages bootstrap-trained CART regression trees.
type RegressionForest struct {
	Features int    `json:"features"`
	Trees    []Tree `json:"trees"`
}

// FitRegressor trains a forest on X (rows of equal width) against y.
// Trees are fitted in parallel; each has its own seeded source so output is deterministic.
func FitRegressor(X [][]float64, y []float64, cfg RegressorConfig) (*RegressionForest, error) {
	if len(X) == 0 {
		return nil, errors.New("no training rows")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("rows %d != targets %d", len(X), len(y))
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
	if cfg.MinLeaf <= 0 {
		cfg.MinLeaf = 1
	}
	if cfg.MaxFeatures <= 0 || cfg.MaxFeatures > width {
		cfg.MaxFeatures = width
	}

	f := &RegressionForest{Features: width, Trees: make([]Tree, cfg.Trees)}
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	for t := 0; t < cfg.Trees; t++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(t int) {
			defer wg.Done()
			defer func() { <-sem }()
			rng := rand.New(rand.NewPCG(cfg.Seed, uint64(t)))
			idx := make([]int, len(X))
			for i := range idx {
				idx[i] = rng.IntN(len(X))
			}
			b := &cartBuilder{X: X, y: y, cfg: cfg, rng: rng, width: width}
			b.build(idx, 0)
			f.Trees[t] = b.tree
		}(t)
	}
	wg.Wait()
	return f, nil
}

// Predict averages the leaf values of all trees.
func (f *RegressionForest) Predict(x []float64) (float64, error) {
	if len(x) != f.Features {
		return 0, fmt.Errorf("got %d features, want %d: %w", len(x), f.Features, ErrFeatureWidth)
	}
	var sum float64
	for i := range f.Trees {
		n, _ := f.Trees[i].walk(x)
		sum += n.Value
	}
	return sum / float64(len(f.Trees)), nil
}

// Validate checks structural integrity after loading.
func (f *RegressionForest) Validate() error {
	if f.Features <= 0 || len(f.Trees) == 0 {
		return errors.New("empty regression forest")
	}
	for i := range f.Trees {
		if !f.Trees[i].valid(f.Features) {
			return fmt.Errorf("tree %d is malformed", i)
		}
	}
	return nil
}

type cartBuilder struct {
	X     [][]float64
	y     []float64
	cfg   RegressorConfig
	rng   *rand.Rand
	width int
	tree  Tree
}

func (b *cartBuilder) build(idx []int, depth int) int {
	mean := 0.0
	for _, i := range idx {
		mean += b.y[i]
	}
	mean /= float64(len(idx))

	if len(idx) < 2*b.cfg.MinLeaf || (b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth) {
		return b.tree.add(Node{Feature: leaf, Value: mean, Size: len(idx)})
	}

	feat, thr, ok := b.bestSplit(idx)
	if !ok {
		return b.tree.add(Node{Feature: leaf, Value: mean, Size: len(idx)})
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][feat] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	self := b.tree.add(Node{Feature: feat, Threshold: thr, Size: len(idx)})
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.tree.Nodes[self].Left = l
	b.tree.Nodes[self].Right = r
	return self
}

// bestSplit minimizes the summed squared error of the two children.
func (b *cartBuilder) bestSplit(idx []int) (int, float64, bool) {
	feats := b.rng.Perm(b.width)[:b.cfg.MaxFeatures]
	n := len(idx)
	order := make([]int, n)

	var total, totalSq float64
	for _, i := range idx {
		total += b.y[i]
		totalSq += b.y[i] * b.y[i]
	}
	bestSSE := totalSq - total*total/float64(n)
	if bestSSE <= 1e-12 {
		return 0, 0, false
	}

	bestFeat, bestThr, found := 0, 0.0, false
	for _, f := range feats {
		copy(order, idx)
		sort.Slice(order, func(a, c int) bool { return b.X[order[a]][f] < b.X[order[c]][f] })

		var ls, lsq float64
		for k := 1; k < n; k++ {
			yi := b.y[order[k-1]]
			ls += yi
			lsq += yi * yi
			lo, hi := b.X[order[k-1]][f], b.X[order[k]][f]
			if lo == hi || k < b.cfg.MinLeaf || n-k < b.cfg.MinLeaf {
				continue
			}
			rs, rsq := total-ls, totalSq-lsq
			sse := (lsq - ls*ls/float64(k)) + (rsq - rs*rs/float64(n-k))
			if sse < bestSSE-1e-12 {
				bestSSE, bestFeat, bestThr, found = sse, f, lo+(hi-lo)/2, true
			}
		}
	}
	return bestFeat, bestThr, found
}
