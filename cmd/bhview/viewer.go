package main

import (
	"context"
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/simulation"
)

const thetaStep = 0.1

var (
	styleSparse = tcell.StyleDefault.Foreground(tcell.ColorSteelBlue)
	styleMedium = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleDense  = tcell.StyleDefault.Foreground(tcell.ColorOrangeRed)
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
)

type viewer struct {
	screen tcell.Screen
	world  *simulation.World
	extent float64 // world half-width shown, fixed at start
	paused bool
	status string // last error, shown in the status line
}

func newViewer(screen tcell.Screen, world *simulation.World) *viewer {
	return &viewer{screen: screen, world: world, extent: extentOf(world.Frame().Bodies)}
}

// extentOf returns the half-width of the square around the origin that holds
// every particle, with a margin.
func extentOf(particles []simulation.Particle) float64 {
	var m float64
	for _, p := range particles {
		m = math.Max(m, math.Max(math.Abs(p.X), math.Abs(p.Y)))
	}
	if m == 0 {
		return 1
	}
	return m * 1.1
}

// handleEvent returns false when the viewer should exit.
func (v *viewer) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return v.handleKey(ev.Key(), ev.Rune())
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *viewer) handleKey(key tcell.Key, r rune) bool {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRune:
		switch r {
		case 'q', 'Q':
			return false
		case '+', '=':
			v.changeTheta(thetaStep)
		case '-', '_':
			v.changeTheta(-thetaStep)
		case ' ':
			v.paused = !v.paused
		}
	}
	return true
}

func (v *viewer) changeTheta(delta float64) {
	theta := math.Max(0, v.world.Options().Theta+delta)
	// keep one decimal so repeated steps do not drift
	theta = math.Round(theta*10) / 10
	if err := v.world.SetTheta(theta); err != nil {
		v.status = err.Error()
	}
}

// tick advances the world unless paused and redraws.
func (v *viewer) tick(ctx context.Context) {
	if !v.paused && v.world.Err() == nil {
		if err := v.world.Step(ctx); err != nil {
			v.status = err.Error()
		}
	}
	v.draw()
}

// cellCounts bins the particles into a w×h grid of terminal cells. Rows are
// twice as tall as columns are wide, so x uses twice the resolution of y.
func cellCounts(particles []simulation.Particle, extent float64, w, h int) []int {
	counts := make([]int, w*h)
	if w <= 0 || h <= 0 {
		return counts
	}
	perRow := extent / (float64(h) / 2)
	perCol := perRow / 2
	if extent/perCol > float64(w)/2 {
		perCol = extent / (float64(w) / 2)
		perRow = 2 * perCol
	}
	for _, p := range particles {
		col := int(math.Floor(float64(w)/2 + p.X/perCol))
		row := int(math.Floor(float64(h)/2 - p.Y/perRow))
		if col < 0 || col >= w || row < 0 || row >= h {
			continue
		}
		counts[row*w+col]++
	}
	return counts
}

func (v *viewer) draw() {
	v.screen.Clear()
	w, h := v.screen.Size()
	if h < 2 {
		v.screen.Show()
		return
	}
	frame := v.world.Frame()
	plot := h - 1
	counts := cellCounts(frame.Bodies, v.extent, w, plot)
	for row := 0; row < plot; row++ {
		for col := 0; col < w; col++ {
			switch n := counts[row*w+col]; {
			case n == 0:
			case n == 1:
				v.screen.SetContent(col, row, '.', nil, styleSparse)
			case n < 4:
				v.screen.SetContent(col, row, '*', nil, styleMedium)
			default:
				v.screen.SetContent(col, row, '@', nil, styleDense)
			}
		}
	}
	v.drawStatus(w, h-1, v.statusLine(frame))
	v.screen.Show()
}

func (v *viewer) statusLine(frame simulation.Frame) string {
	s := fmt.Sprintf(" step %d  t=%.2f  θ=%.1f  bodies %d  nodes %d  depth %d  [+/-] θ  [space] pause  [q] quit",
		frame.Step, frame.Time, v.world.Options().Theta, len(frame.Bodies), frame.Stats.Nodes, frame.Stats.Depth)
	if v.paused {
		s += "  PAUSED"
	}
	if v.status != "" {
		s += "  " + v.status
	}
	return s
}

func (v *viewer) drawStatus(w, row int, text string) {
	col := 0
	for _, r := range text {
		if col >= w {
			break
		}
		v.screen.SetContent(col, row, r, nil, styleStatus)
		col++
	}
	for ; col < w; col++ {
		v.screen.SetContent(col, row, ' ', nil, styleStatus)
	}
}
