package barneshut

import "fmt"

// node is one arena entry. Child slot value 0 means absent: the root sits at
// index 0 and is never anybody's child.
type node struct {
	x, y, m  float64
	children [4]int32
	depth    uint16
}

func (n *node) isLeaf() bool {
	return n.children == [4]int32{}
}

// updateCOM folds a body into the node's aggregate. The old mass and position
// are read before either is overwritten.
func (n *node) updateCOM(x, y, m float64) {
	total := n.m + m
	n.x = (n.m*n.x + m*x) / total
	n.y = (n.m*n.y + m*y) / total
	n.m = total
}

// Tree is a Barnes-Hut quadtree over point masses. Nodes live in a single
// slice and reference their children by index.
//
// A Tree is built by one goroutine. Once built it may be read by any number
// of Walkers concurrently.
type Tree struct {
	nodes []node
	cells []Cell    // per-node cells, only when retainCells is set
	sizes []float64 // sizes[d] is the side length of a cell at depth d

	cell        Cell
	maxDepth    int
	collision   CollisionPolicy
	retainCells bool

	merged   int
	deepest  int
	inserted int

	path []int32 // insertion scratch
}

// New returns an empty tree covering cell.
// A zero MaxDepth in opts is replaced by DefaultMaxDepth.
func New(cell Cell, opts Options) *Tree {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	t := &Tree{
		maxDepth:    opts.MaxDepth,
		collision:   opts.Collision,
		retainCells: opts.RetainCells,
	}
	t.Reset(cell)
	return t
}

// Build creates a tree covering cell and inserts bodies in order.
func Build(bodies []Body, cell Cell, opts Options) (*Tree, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateBodies(bodies); err != nil {
		return nil, err
	}
	t := New(cell, opts)
	if err := t.InsertAll(bodies); err != nil {
		return nil, err
	}
	return t, nil
}

// Reset discards every node and makes the tree an empty leaf covering cell.
// The node storage is kept for the next build.
func (t *Tree) Reset(cell Cell) {
	t.cell = cell
	t.nodes = append(t.nodes[:0], node{})
	t.cells = t.cells[:0]
	if t.retainCells {
		t.cells = append(t.cells, cell)
	}

	if cap(t.sizes) < t.maxDepth+1 {
		t.sizes = make([]float64, t.maxDepth+1)
	}
	t.sizes = t.sizes[:t.maxDepth+1]
	t.sizes[0] = cell.Size
	for d := 1; d < len(t.sizes); d++ {
		t.sizes[d] = t.sizes[d-1] / 2
	}

	t.merged = 0
	t.deepest = 0
	t.inserted = 0
}

// InsertAll inserts bodies in order and stops at the first rejected one.
func (t *Tree) InsertAll(bodies []Body) error {
	for i, b := range bodies {
		if err := t.Insert(b.X, b.Y, b.M); err != nil {
			return fmt.Errorf("insert body %d: %w", i, err)
		}
	}
	return nil
}

// Insert adds a body to the tree. Massless bodies are ignored; negative or
// non-finite input returns ErrInvalidBody with the tree unchanged.
//
// When the body shares a leaf's quadrant with a previously inserted body the
// leaf is split, level by level, until both land in different quadrants. If
// that would go past MaxDepth, or the cell can no longer be halved, the
// collision policy decides: merge into the leaf or return ErrDegenerateInsert
// with the tree unchanged.
func (t *Tree) Insert(x, y, m float64) error {
	if !finite(x) || !finite(y) || !finite(m) || m < 0 {
		return fmt.Errorf("%w: (%g, %g) with mass %g", ErrInvalidBody, x, y, m)
	}
	if m == 0 {
		return nil
	}

	if t.nodes[0].m == 0 {
		t.nodes[0].x, t.nodes[0].y, t.nodes[0].m = x, y, m
		t.inserted++
		return nil
	}

	// Walk down while the target quadrant is occupied. Aggregates along the
	// way are updated only once the outcome is known.
	cur := int32(0)
	cell := t.cell
	q := cell.Quadrant(x, y)
	t.path = t.path[:0]
	for t.nodes[cur].children[q] != 0 {
		t.path = append(t.path, cur)
		cur = t.nodes[cur].children[q]
		cell = cell.Child(q)
		q = cell.Quadrant(x, y)
	}

	if !t.nodes[cur].isLeaf() {
		t.updatePath(x, y, m)
		t.nodes[cur].updateCOM(x, y, m)
		t.attach(cur, q, x, y, m, cell)
		t.inserted++
		return nil
	}

	// cur is a leaf holding an earlier body.
	prev := t.nodes[cur]
	chain, ok := t.splitChain(cell, int(prev.depth), x, y, prev.x, prev.y)
	if !ok {
		if t.collision == CollisionReject {
			return fmt.Errorf("%w: (%g, %g) cannot be separated from (%g, %g) within depth %d",
				ErrDegenerateInsert, x, y, prev.x, prev.y, t.maxDepth)
		}
		t.updatePath(x, y, m)
		t.nodes[cur].updateCOM(x, y, m)
		t.merged++
		t.inserted++
		return nil
	}

	t.updatePath(x, y, m)
	t.nodes[cur].updateCOM(x, y, m)

	// Both bodies share quadrant q for chain more levels. The intermediate
	// nodes have the same aggregate as cur.
	for i := 0; i < chain; i++ {
		agg := t.nodes[cur]
		child := t.newNode(agg.x, agg.y, agg.m, int(agg.depth)+1, cell.Child(q))
		t.nodes[cur].children[q] = child
		cur = child
		cell = cell.Child(q)
		q = cell.Quadrant(x, y)
	}

	t.attach(cur, cell.Quadrant(prev.x, prev.y), prev.x, prev.y, prev.m, cell)
	t.attach(cur, q, x, y, m, cell)
	t.inserted++
	return nil
}

// splitChain returns how many single-child levels are needed below a leaf at
// depth before (x, y) and (x2, y2) fall into different quadrants. ok is false
// when the leaves would end up deeper than maxDepth or the cell stops
// shrinking.
func (t *Tree) splitChain(cell Cell, depth int, x, y, x2, y2 float64) (chain int, ok bool) {
	for {
		if depth+chain+1 > t.maxDepth {
			return 0, false
		}
		q := cell.Quadrant(x, y)
		if q != cell.Quadrant(x2, y2) {
			return chain, true
		}
		next := cell.Child(q)
		if next == cell {
			return 0, false
		}
		cell = next
		chain++
	}
}

func (t *Tree) updatePath(x, y, m float64) {
	for _, i := range t.path {
		t.nodes[i].updateCOM(x, y, m)
	}
}

// attach creates a leaf for a body in quadrant q of parent, whose cell is cell.
func (t *Tree) attach(parent int32, q int, x, y, m float64, cell Cell) {
	child := t.newNode(x, y, m, int(t.nodes[parent].depth)+1, cell.Child(q))
	t.nodes[parent].children[q] = child
}

func (t *Tree) newNode(x, y, m float64, depth int, cell Cell) int32 {
	t.nodes = append(t.nodes, node{x: x, y: y, m: m, depth: uint16(depth)})
	if t.retainCells {
		t.cells = append(t.cells, cell)
	}
	if depth > t.deepest {
		t.deepest = depth
	}
	return int32(len(t.nodes) - 1)
}

// size returns the side length of node i's cell.
func (t *Tree) size(i int32) float64 {
	if t.retainCells {
		return t.cells[i].Size
	}
	return t.sizes[t.nodes[i].depth]
}

// Cell returns the root cell.
func (t *Tree) Cell() Cell {
	return t.cell
}

// Len returns the number of nodes, including an empty root.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Mass returns the total mass in the tree.
func (t *Tree) Mass() float64 {
	return t.nodes[0].m
}

// Stats summarizes the shape of a built tree.
type Stats struct {
	Nodes    int `json:"nodes"`
	Leaves   int `json:"leaves"`
	Depth    int `json:"depth"`
	Merged   int `json:"merged"`
	Inserted int `json:"inserted"`
}

// Stats counts nodes and leaves of the tree.
func (t *Tree) Stats() Stats {
	leaves := 0
	for i := range t.nodes {
		if t.nodes[i].isLeaf() {
			leaves++
		}
	}
	return Stats{
		Nodes:    len(t.nodes),
		Leaves:   leaves,
		Depth:    t.deepest,
		Merged:   t.merged,
		Inserted: t.inserted,
	}
}
