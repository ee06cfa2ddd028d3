package barneshut

import "math"

// Effective is a body standing in for a whole subtree during force
// summation: either an aggregate center of mass or a single leaf body.
type Effective struct {
	X, Y float64
	M    float64
	Size float64 // side length of the node's cell
	Leaf bool
}

// Walker yields the effective bodies acting on one query position for a
// given θ. It keeps its own work stack, so any number of walkers can run over
// the same tree at once.
type Walker struct {
	tree  *Tree
	x, y  float64
	theta float64
	stack []int32
}

// Walker returns a walker for the query position (x, y).
func (t *Tree) Walker(x, y, theta float64) *Walker {
	w := &Walker{tree: t, theta: theta, stack: make([]int32, 0, 64)}
	w.Reset(x, y)
	return w
}

// Reset restarts the walk for a new query position.
func (w *Walker) Reset(x, y float64) {
	w.x, w.y = x, y
	w.stack = append(w.stack[:0], 0)
}

// Next returns the next effective body. ok is false once the walk is done.
//
// A node is accepted when it is a leaf or when size/distance < θ; otherwise
// its present children are pushed and the node itself yields nothing.
func (w *Walker) Next() (e Effective, ok bool) {
	nodes := w.tree.nodes
	for len(w.stack) > 0 {
		i := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]

		n := &nodes[i]
		size := w.tree.size(i)
		dist := math.Hypot(n.x-w.x, n.y-w.y)
		leaf := n.isLeaf()
		if leaf || size/dist < w.theta {
			return Effective{X: n.x, Y: n.y, M: n.m, Size: size, Leaf: leaf}, true
		}

		for _, c := range n.children {
			if c != 0 {
				w.stack = append(w.stack, c)
			}
		}
	}
	return Effective{}, false
}

// EffectiveBodies collects the full walk for (x, y).
func (t *Tree) EffectiveBodies(x, y, theta float64) []Effective {
	var out []Effective
	w := t.Walker(x, y, theta)
	for e, ok := w.Next(); ok; e, ok = w.Next() {
		out = append(out, e)
	}
	return out
}
