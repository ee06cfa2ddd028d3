package config

import (
	"errors"
	"testing"
	"time"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/barneshut"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"THETA", "GRAVITY_CONSTANT", "MAX_TREE_DEPTH", "COLLISION_POLICY", "BOUNDS_MODE", "SIM_TICK_MS", "SENTRY_ENVIRONMENT", "ENV"} {
		t.Setenv(k, "")
	}
	ResetForTest()
	defer ResetForTest()

	cfg := Load()
	if cfg.Theta != barneshut.DefaultTheta {
		t.Fatalf("expected default theta %f, got %f", barneshut.DefaultTheta, cfg.Theta)
	}
	if cfg.GravityConstant != barneshut.G {
		t.Fatalf("expected default G %g, got %g", barneshut.G, cfg.GravityConstant)
	}
	if cfg.SimTick != 50*time.Millisecond {
		t.Fatalf("expected 50ms tick, got %v", cfg.SimTick)
	}
	if cfg.SentryEnvironment != "development" {
		t.Fatalf("expected sentry environment to follow ENV, got %q", cfg.SentryEnvironment)
	}
	if Load() != cfg {
		t.Fatal("Load should cache")
	}

	opts, err := cfg.SolverOptions()
	if err != nil {
		t.Fatalf("default options invalid: %v", err)
	}
	if opts.Collision != barneshut.CollisionMerge || opts.Bounds != barneshut.BoundsEnclosing {
		t.Errorf("unexpected policies: %v %v", opts.Collision, opts.Bounds)
	}
}

func TestSolverOptionsFromEnv(t *testing.T) {
	t.Setenv("THETA", "0.5")
	t.Setenv("GRAVITY_CONSTANT", "1")
	t.Setenv("MAX_TREE_DEPTH", "32")
	t.Setenv("COLLISION_POLICY", "Reject")
	t.Setenv("BOUNDS_MODE", "compat")
	t.Setenv("RETAIN_CELLS", "true")
	t.Setenv("FORCE_WORKERS", "3")
	ResetForTest()
	defer ResetForTest()

	opts, err := Load().SolverOptions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := barneshut.Options{
		Theta:       0.5,
		G:           1,
		MaxDepth:    32,
		Collision:   barneshut.CollisionReject,
		Bounds:      barneshut.BoundsCompat,
		RetainCells: true,
		Workers:     3,
	}
	if opts != want {
		t.Errorf("got %+v, want %+v", opts, want)
	}
}

func TestSolverOptionsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"policy", "COLLISION_POLICY", "bounce"},
		{"bounds", "BOUNDS_MODE", "tight"},
		{"theta", "THETA", "-1"},
		{"depth", "MAX_TREE_DEPTH", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			ResetForTest()
			defer ResetForTest()

			_, err := Load().SolverOptions()
			if !errors.Is(err, barneshut.ErrInvalidOptions) {
				t.Errorf("%s=%s: expected ErrInvalidOptions, got %v", tt.key, tt.val, err)
			}
		})
	}
}
