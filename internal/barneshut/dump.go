package barneshut

import (
	"fmt"
	"strings"
)

// NodeView is a read-only snapshot of one tree node.
type NodeView struct {
	X, Y  float64
	M     float64
	Size  float64
	Depth int
	Leaf  bool
	Cell  *Cell // nil unless the tree retains cells
}

func (t *Tree) view(i int32) NodeView {
	n := &t.nodes[i]
	v := NodeView{
		X:     n.x,
		Y:     n.y,
		M:     n.m,
		Size:  t.size(i),
		Depth: int(n.depth),
		Leaf:  n.isLeaf(),
	}
	if t.retainCells {
		c := t.cells[i]
		v.Cell = &c
	}
	return v
}

// Root returns the root node.
func (t *Tree) Root() NodeView {
	return t.view(0)
}

// Walk calls fn for every node in depth-first pre-order, children in
// quadrant order. Returning false from fn skips the node's subtree.
func (t *Tree) Walk(fn func(n NodeView, level int) bool) {
	type item struct {
		idx   int32
		level int
	}
	stack := []item{{0, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(t.view(it.idx), it.level) {
			continue
		}
		ch := t.nodes[it.idx].children
		for q := len(ch) - 1; q >= 0; q-- {
			if ch[q] != 0 {
				stack = append(stack, item{ch[q], it.level + 1})
			}
		}
	}
}

// Leaves returns every leaf, including an empty root.
func (t *Tree) Leaves() []NodeView {
	var out []NodeView
	t.Walk(func(n NodeView, _ int) bool {
		if n.Leaf {
			out = append(out, n)
		}
		return true
	})
	return out
}

// String renders the tree one node per line, indented by level.
func (t *Tree) String() string {
	var sb strings.Builder
	t.Walk(func(n NodeView, level int) bool {
		sb.WriteString(strings.Repeat("  |  ", level))
		fmt.Fprintf(&sb, "(%.2f|%.2f|%.2f", n.X, n.Y, n.M)
		if n.Cell != nil {
			fmt.Fprintf(&sb, " | %s", n.Cell)
		} else {
			fmt.Fprintf(&sb, " | size: %g", n.Size)
		}
		sb.WriteString(")\n")
		return true
	})
	return sb.String()
}
