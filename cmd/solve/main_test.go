package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

const scenario = `4 4 2
1 2 1 1
2 3 2 1
1 3 5 0
3 4 1 1
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "g.txt")
	if err := os.WriteFile(path, []byte(scenario), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--graph", path))
	err := cmd.Execute()
	return out.String(), err
}

func TestSolveSSSP(t *testing.T) {
	for _, algo := range []string{"dijkstra", "bellman-ford", "yen", "delta-stepping", "parallel-dijkstra"} {
		out, err := execute(t, "sssp", "--source", "1", "--target", "4", "--algorithm", algo, "--repeat", "3")
		if err != nil {
			t.Fatalf("%s: %v", algo, err)
		}
		for _, want := range []string{"Path: 1 2 3 4\n", "Length: 4\n", "Delay: 3\n", "Runs: 3\n"} {
			if !strings.Contains(out, want) {
				t.Errorf("%s: output lacks %q:\n%s", algo, want, out)
			}
		}
	}
}

func TestSolveConstrainedDefaultsBoundFromFile(t *testing.T) {
	for _, algo := range []string{"dijkstra", "dp"} {
		out, err := execute(t, "constrained", "--target", "4", "--algorithm", algo)
		if err != nil {
			t.Fatalf("%s: %v", algo, err)
		}
		for _, want := range []string{"Bound: 2\n", "Path: 1 3 4\n", "Length: 6\n", "Delay: 1\n"} {
			if !strings.Contains(out, want) {
				t.Errorf("%s: output lacks %q:\n%s", algo, want, out)
			}
		}
	}
}

func TestSolveConstrainedBoundFlag(t *testing.T) {
	out, err := execute(t, "constrained", "--target", "4", "--bound", "3")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Path: 1 2 3 4\n") || !strings.Contains(out, "Length: 4\n") {
		t.Errorf("output:\n%s", out)
	}
}

func TestSolveWalks(t *testing.T) {
	out, err := execute(t, "walks", "--k", "2")
	if err != nil {
		t.Fatal(err)
	}
	want := "Path: 1 2\nLength: 1\n\nPath: 1 2 3\nLength: 3\n\n"
	if !strings.HasPrefix(out, want) {
		t.Errorf("output = %q, want prefix %q", out, want)
	}
}

func TestSolveBadGraphInstallsNoTracer(t *testing.T) {
	before := otel.GetTracerProvider()

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"sssp", "--target", "2", "--trace", "--graph", filepath.Join(t.TempDir(), "missing.txt")})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing graph")
	}

	if otel.GetTracerProvider() != before {
		t.Error("tracer provider installed although the graph failed to load")
	}
}

func TestSolveErrors(t *testing.T) {
	tests := [][]string{
		{"sssp", "--target", "9"},
		{"sssp", "--target", "4", "--algorithm", "bogus"},
		{"constrained", "--target", "4", "--bound", "-1"},
		{"walks", "--k", "0"},
		{"sssp", "--target", "4", "--repeat", "0"},
	}
	for _, args := range tests {
		if _, err := execute(t, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}
