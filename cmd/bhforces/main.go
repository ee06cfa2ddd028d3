// Command bhforces evaluates gravitational forces for a JSON array of bodies
// read from a file or stdin and prints them as JSON.
//
//	bhforces -theta 0.5 bodies.json
//	cat bodies.json | bhforces -tree
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/segmentio/encoding/json"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/barneshut"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/gravity"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/logger"
)

type body struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	M float64 `json:"m"`
}

type force struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type output struct {
	Forces []force          `json:"forces"`
	Method gravity.Method   `json:"method"`
	Stats  *barneshut.Stats `json:"stats,omitempty"`
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "bhforces:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("bhforces", flag.ContinueOnError)
	fs.SetOutput(stderr)
	theta := fs.Float64("theta", barneshut.DefaultTheta, "accuracy parameter, 0 = exact")
	g := fs.Float64("g", barneshut.G, "interaction constant")
	workers := fs.Int("workers", runtime.GOMAXPROCS(0), "force workers")
	bounds := fs.String("bounds", "enclosing", "root cell: enclosing or compat")
	direct := fs.Bool("direct", false, "use the exact pairwise sum")
	tree := fs.Bool("tree", false, "print the quadtree instead of forces")
	logLevel := fs.String("log-level", "warn", "log level")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: bhforces [flags] [bodies.json]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return errors.New("at most one input file")
	}
	logger.InitWriter(*logLevel, stderr)

	bodies, err := readBodies(fs.Arg(0), stdin)
	if err != nil {
		return err
	}

	opts := barneshut.DefaultOptions()
	opts.Workers = *workers
	svc, err := gravity.NewService(opts, 0)
	if err != nil {
		return err
	}
	req := gravity.Request{Bodies: bodies, Theta: theta, G: g, Bounds: *bounds}

	if *tree {
		t, err := svc.Tree(ctx, req)
		if err != nil {
			return err
		}
		_, err = io.WriteString(stdout, t.String())
		return err
	}

	if *direct {
		req.Method = string(gravity.MethodDirect)
	}
	res, err := svc.Forces(ctx, req)
	if err != nil {
		return err
	}
	out := output{Forces: make([]force, len(res.Forces)), Method: res.Method}
	for i, f := range res.Forces {
		out.Forces[i] = force{X: f.X, Y: f.Y}
	}
	if res.Method == gravity.MethodBarnesHut {
		out.Stats = &res.Stats
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// readBodies decodes a JSON array of bodies from path, or from stdin when
// path is empty or "-".
func readBodies(path string, stdin io.Reader) ([]barneshut.Body, error) {
	r := stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var in []body
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decode bodies: %w", err)
	}
	bodies := make([]barneshut.Body, len(in))
	for i, b := range in {
		bodies[i] = barneshut.Body{X: b.X, Y: b.Y, M: b.M}
	}
	return bodies, nil
}
