// Command bhview runs a simulation in the terminal. Bodies come from a JSON
// file of particles or a random rotating disc.
//
// Keys: + and - change θ, space pauses, q or Esc quits.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/segmentio/encoding/json"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/barneshut"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/logger"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/simulation"
)

type settings struct {
	file   string
	n      int
	radius float64
	mass   float64
	g      float64
	dt     float64
	theta  float64
	seed   uint64
	fps    int
}

func parseFlags(args []string) (settings, error) {
	var s settings
	fs := flag.NewFlagSet("bhview", flag.ContinueOnError)
	fs.StringVar(&s.file, "file", "", "JSON array of particles {x,y,vx,vy,m}; empty for a random disc")
	fs.IntVar(&s.n, "n", 500, "disc bodies")
	fs.Float64Var(&s.radius, "radius", 100, "disc radius")
	fs.Float64Var(&s.mass, "mass", 1e4, "total disc mass")
	fs.Float64Var(&s.g, "g", 1, "interaction constant")
	fs.Float64Var(&s.dt, "dt", 0.05, "time step")
	fs.Float64Var(&s.theta, "theta", barneshut.DefaultTheta, "initial accuracy parameter")
	fs.Uint64Var(&s.seed, "seed", uint64(time.Now().UnixNano()), "disc seed")
	fs.IntVar(&s.fps, "fps", 30, "frames per second")
	if err := fs.Parse(args); err != nil {
		return s, err
	}
	if s.fps <= 0 {
		return s, fmt.Errorf("fps must be positive, got %d", s.fps)
	}
	return s, nil
}

func loadParticles(s settings) ([]simulation.Particle, error) {
	if s.file == "" {
		return simulation.Disc(s.n, s.radius, s.mass, s.g, s.seed), nil
	}
	data, err := os.ReadFile(s.file)
	if err != nil {
		return nil, err
	}
	var particles []simulation.Particle
	if err := json.Unmarshal(data, &particles); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.file, err)
	}
	return particles, nil
}

func newWorld(s settings) (*simulation.World, error) {
	particles, err := loadParticles(s)
	if err != nil {
		return nil, err
	}
	opts := barneshut.DefaultOptions()
	opts.Theta = s.theta
	opts.G = s.g
	return simulation.NewWorld(particles, s.dt, opts)
}

func main() {
	// log lines would corrupt the screen
	logger.InitWriter("error", io.Discard)

	s, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	world, err := newWorld(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bhview:", err)
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintln(os.Stderr, "bhview:", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "bhview:", err)
		os.Exit(1)
	}
	defer screen.Fini()

	run(context.Background(), newViewer(screen, world), time.Second/time.Duration(s.fps))
}

func run(ctx context.Context, v *viewer, frame time.Duration) {
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return // screen finalized
			}
			events <- ev
		}
	}()

	v.draw()
	for {
		select {
		case ev := <-events:
			if !v.handleEvent(ev) {
				return
			}
		case <-ticker.C:
			v.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}
