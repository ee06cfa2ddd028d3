package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/barneshut"
)

const pair = `[{"x":0,"y":0,"m":1},{"x":2,"y":0,"m":1}]`

func TestRunForces(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantMethod string
		wantStats  bool
	}{
		{name: "barnes-hut", args: []string{"-g", "1", "-workers", "1"}, wantMethod: "barnes-hut", wantStats: true},
		{name: "direct", args: []string{"-g", "1", "-direct"}, wantMethod: "direct"},
		{name: "compat bounds", args: []string{"-g", "1", "-bounds", "compat", "-theta", "0"}, wantMethod: "barnes-hut", wantStats: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.args, strings.NewReader(pair), &stdout, &stderr)
			require.NoError(t, err, stderr.String())

			var out output
			require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
			require.Equal(t, tt.wantMethod, string(out.Method))
			require.Len(t, out.Forces, 2)
			require.InDelta(t, 0.25, out.Forces[0].X, 1e-12)
			require.InDelta(t, -0.25, out.Forces[1].X, 1e-12)
			require.Equal(t, tt.wantStats, out.Stats != nil)
		})
	}
}

func TestRunTreeFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bodies.json")
	require.NoError(t, os.WriteFile(path, []byte(pair), 0o600))

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-tree", path}, nil, &stdout, &stderr))

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 3, stdout.String())
	require.True(t, strings.HasPrefix(lines[0], "(1.00|0.00|2.00"), lines[0])
	require.True(t, strings.HasPrefix(lines[1], "  |  ("), lines[1])
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		input string
		want  error
	}{
		{name: "no bodies", input: `[]`, want: barneshut.ErrNoBodies},
		{name: "negative mass", input: `[{"x":0,"y":0,"m":-1}]`, want: barneshut.ErrInvalidBody},
		{name: "bad bounds", args: []string{"-bounds", "huge"}, input: pair, want: barneshut.ErrInvalidOptions},
		{name: "negative theta", args: []string{"-theta", "-1"}, input: pair, want: barneshut.ErrInvalidOptions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.args, strings.NewReader(tt.input), &stdout, &stderr)
			require.True(t, errors.Is(err, tt.want), "got %v", err)
			require.Zero(t, stdout.Len())
		})
	}
}

func TestRunBadInput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), nil, strings.NewReader(`{"x":1}`), &stdout, &stderr)
	require.ErrorContains(t, err, "decode bodies")

	err = run(context.Background(), []string{"a.json", "b.json"}, nil, &stdout, &stderr)
	require.ErrorContains(t, err, "at most one input file")
}
