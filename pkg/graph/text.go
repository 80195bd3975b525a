package graph

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformedInput is returned when a text graph cannot be parsed.
var ErrMalformedInput = errors.New("graph: malformed input")

// ReadText parses the plain text graph format:
//
//	n m b
//	u v w z   (m lines)
//
// where n is the vertex count, m the edge count, b the delay bound, and each
// edge line holds source, target, weight and delay. Blank lines and lines
// starting with '#' are ignored. It returns the graph and b.
func ReadText(r io.Reader) (*Graph, int64, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	next := func() ([]string, bool) {
		for sc.Scan() {
			lineNo++
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			return strings.Fields(line), true
		}
		return nil, false
	}

	header, ok := next()
	if !ok {
		if err := sc.Err(); err != nil {
			return nil, 0, fmt.Errorf("read header: %w", err)
		}
		return nil, 0, fmt.Errorf("%w: missing header line", ErrMalformedInput)
	}
	hdr, err := parseInts(header, 3, lineNo)
	if err != nil {
		return nil, 0, err
	}
	n, m, bound := hdr[0], hdr[1], hdr[2]
	if n < 0 || n > maxNodes || m < 0 || m > maxEdges || bound < 0 {
		return nil, 0, fmt.Errorf("%w: line %d: header n=%d m=%d b=%d out of range", ErrMalformedInput, lineNo, n, m, bound)
	}

	edges := make([]Edge, 0, m)
	for int64(len(edges)) < m {
		fields, ok := next()
		if !ok {
			if err := sc.Err(); err != nil {
				return nil, 0, fmt.Errorf("read edges: %w", err)
			}
			return nil, 0, fmt.Errorf("%w: expected %d edges, got %d", ErrMalformedInput, m, len(edges))
		}
		vals, err := parseInts(fields, 4, lineNo)
		if err != nil {
			return nil, 0, err
		}
		if vals[0] < 1 || vals[0] > n || vals[1] < 1 || vals[1] > n {
			return nil, 0, fmt.Errorf("line %d: edge %d->%d: %w", lineNo, vals[0], vals[1], ErrInvalidVertex)
		}
		edges = append(edges, Edge{
			From:   uint32(vals[0]),
			To:     uint32(vals[1]),
			Weight: vals[2],
			Delay:  vals[3],
		})
	}

	g, err := Build(uint32(n), edges)
	if err != nil {
		return nil, 0, err
	}
	return g, bound, nil
}

func parseInts(fields []string, want, lineNo int) ([]int64, error) {
	if len(fields) != want {
		return nil, fmt.Errorf("%w: line %d: expected %d fields, got %d", ErrMalformedInput, lineNo, want, len(fields))
	}
	vals := make([]int64, want)
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %q is not an integer", ErrMalformedInput, lineNo, f)
		}
		vals[i] = v
	}
	return vals, nil
}

// WriteText writes g and the delay bound in the format read by ReadText.
func WriteText(w io.Writer, g *Graph, bound int64) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d %d\n", g.NumNodes, g.NumEdges, bound)
	for _, e := range g.Edges() {
		fmt.Fprintf(bw, "%d %d %d %d\n", e.From, e.To, e.Weight, e.Delay)
	}
	return bw.Flush()
}
