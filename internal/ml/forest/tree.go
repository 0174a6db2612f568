package forest

import "errors"

// ErrFeatureWidth is returned when an input vector does not match the trained width.
var ErrFeatureWidth = errors.New("feature width mismatch")

const leaf = -1

// Node is one entry of a flattened binary tree. Leaves have Feature == -1.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v,omitempty"`
	Size      int     `json:"n,omitempty"`
}

// Tree stores nodes in build order; index 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// walk descends to a leaf, returning it and its depth.
func (t *Tree) walk(x []float64) (Node, int) {
	i, depth := 0, 0
	for {
		n := t.Nodes[i]
		if n.Feature == leaf {
			return n, depth
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
		depth++
	}
}

func (t *Tree) add(n Node) int {
	t.Nodes = append(t.Nodes, n)
	return len(t.Nodes) - 1
}

func (t *Tree) valid(width int) bool {
	if len(t.Nodes) == 0 {
		return false
	}
	for _, n := range t.Nodes {
		if n.Feature == leaf {
			continue
		}
		if n.Feature < 0 || n.Feature >= width {
			return false
		}
		if n.Left <= 0 || n.Left >= len(t.Nodes) || n.Right <= 0 || n.Right >= len(t.Nodes) {
			return false
		}
	}
	return true
}
