package sssp

import (
	"fmt"
	"slices"
)

// PathTo walks the predecessor chain from target back to the source and
// returns the vertices in source-to-target order. It returns ErrNoPath when
// target was not reached.
func (r *Result) PathTo(target uint32) ([]uint32, error) {
	if _, ok := r.Distance(target); !ok {
		return nil, fmt.Errorf("%w: vertex %d", ErrNoPath, target)
	}

	path := []uint32{target}
	for v := target; v != r.Source; {
		v = r.Pred[v]
		if v == NoVertex || len(path) >= len(r.Dist) {
			return nil, fmt.Errorf("%w: stuck after %d vertices", ErrBrokenChain, len(path))
		}
		path = append(path, v)
	}
	slices.Reverse(path)
	return path, nil
}
