package sssp

import (
	"fmt"
	"slices"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/sets/hashset"
	"github.com/emirpasic/gods/utils"
	"golang.org/x/sync/errgroup"

	"github.com/azybler/delaypath/pkg/graph"
)

// noBucket marks a vertex that is in no bucket.
const noBucket = int64(-1)

// deltaRunner holds the per-solve state of DeltaStepping.
type deltaRunner struct {
	g       *graph.Graph
	delta   int64
	workers int
	res     *Result

	// light/heavy split: lightEnd[u] separates the light edges of u
	// (lightEdges[firstOut[u]:lightEnd[u]]) from its heavy ones.
	edges    []uint32
	lightEnd []uint32

	buckets  *treemap.Map // int64 bucket index -> *hashset.Set of uint32
	bucketOf []int64
}

// request is a successful compare-and-update recorded by a parallel worker.
type request struct {
	u, v uint32
	d    int64
}

// DeltaStepping computes shortest distances by processing vertices in
// buckets of width delta. Edges of weight <= delta are light and are relaxed
// repeatedly while the current bucket refills; heavy edges are relaxed once
// per bucket from every vertex settled in it. The result does not depend on
// delta. All weights must be nonnegative.
//
// With WithWorkers(n > 1) the relaxations of one batch run in parallel using
// compare-and-update on distances; predecessors and bucket moves are applied
// afterwards by the calling goroutine.
func DeltaStepping(g *graph.Graph, source uint32, delta int64, opts ...Option) (*Result, error) {
	if delta <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDelta, delta)
	}
	o := NewOptions(opts...)
	if err := CheckEndpoints(g, source, o.Target); err != nil {
		return nil, err
	}
	if err := CheckNonNegative(g); err != nil {
		return nil, err
	}

	o.Hooks.Start(AlgoDeltaStepping, PhasePreprocess)
	r := newDeltaRunner(g, source, delta, o.Workers)
	o.Hooks.End(AlgoDeltaStepping, PhasePreprocess)

	o.Hooks.Start(AlgoDeltaStepping, PhaseCompute)
	defer o.Hooks.End(AlgoDeltaStepping, PhaseCompute)

	r.run(source)
	return r.res, nil
}

func newDeltaRunner(g *graph.Graph, source uint32, delta int64, workers int) *deltaRunner {
	r := &deltaRunner{
		g:        g,
		delta:    delta,
		workers:  workers,
		res:      newResult(g, source),
		edges:    make([]uint32, g.NumEdges),
		lightEnd: make([]uint32, g.NumNodes+1),
		buckets:  treemap.NewWith(utils.Int64Comparator),
		bucketOf: make([]int64, g.NumNodes+1),
	}
	for i := range r.bucketOf {
		r.bucketOf[i] = noBucket
	}

	// Partition each row into light edges followed by heavy edges.
	for u := uint32(1); u <= g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		k := start
		for e := start; e < end; e++ {
			if g.Weight[e] <= delta {
				r.edges[k] = e
				k++
			}
		}
		r.lightEnd[u] = k
		for e := start; e < end; e++ {
			if g.Weight[e] > delta {
				r.edges[k] = e
				k++
			}
		}
	}
	return r
}

func (r *deltaRunner) lightEdges(u uint32) []uint32 {
	return r.edges[r.g.FirstOut[u]:r.lightEnd[u]]
}

func (r *deltaRunner) heavyEdges(u uint32) []uint32 {
	return r.edges[r.lightEnd[u]:r.g.FirstOut[u+1]]
}

func (r *deltaRunner) run(source uint32) {
	r.place(source)

	var settled []uint32
	for !r.buckets.Empty() {
		key, value := r.buckets.Min()
		i := key.(int64)
		bucket := value.(*hashset.Set)

		settled = settled[:0]
		inR := hashset.New()
		for !bucket.Empty() {
			snapshot := r.drain(bucket)
			for _, v := range snapshot {
				if !inR.Contains(v) {
					inR.Add(v)
					settled = append(settled, v)
				}
			}
			r.relaxBatch(snapshot, r.lightEdges)
		}

		r.relaxBatch(settled, r.heavyEdges)

		// Heavy edges are longer than delta, so bucket i cannot refill.
		r.buckets.Remove(i)
	}
}

// drain empties bucket and returns its members in ascending order.
func (r *deltaRunner) drain(bucket *hashset.Set) []uint32 {
	snapshot := make([]uint32, 0, bucket.Size())
	for _, v := range bucket.Values() {
		u := v.(uint32)
		snapshot = append(snapshot, u)
		r.bucketOf[u] = noBucket
	}
	bucket.Clear()
	slices.Sort(snapshot)
	return snapshot
}

// place moves v into the bucket matching its current distance.
func (r *deltaRunner) place(v uint32) {
	idx := r.res.Dist[v] / r.delta
	old := r.bucketOf[v]
	if old == idx {
		return
	}
	if old != noBucket {
		if b, ok := r.buckets.Get(old); ok {
			b.(*hashset.Set).Remove(v)
		}
	}
	b, ok := r.buckets.Get(idx)
	if !ok {
		b = hashset.New()
		r.buckets.Put(idx, b)
	}
	b.(*hashset.Set).Add(v)
	r.bucketOf[v] = idx
}

// relaxBatch relaxes the edges selected by pick out of every vertex in from.
func (r *deltaRunner) relaxBatch(from []uint32, pick func(uint32) []uint32) {
	if r.workers > 1 && len(from) > 1 {
		r.relaxParallel(from, pick)
		return
	}
	g, res := r.g, r.res
	for _, u := range from {
		for _, e := range pick(u) {
			v := g.Head[e]
			if Relax(u, v, g.Weight[e], res.Dist, res.Pred) {
				r.place(v)
			}
		}
	}
}

func (r *deltaRunner) relaxParallel(from []uint32, pick func(uint32) []uint32) {
	g, dist := r.g, r.res.Dist
	workers := min(r.workers, len(from))
	chunk := (len(from) + workers - 1) / workers
	perWorker := make([][]request, workers)

	var eg errgroup.Group
	for w := range workers {
		lo := w * chunk
		hi := min(lo+chunk, len(from))
		if lo >= hi {
			continue
		}
		eg.Go(func() error {
			var local []request
			for _, u := range from[lo:hi] {
				for _, e := range pick(u) {
					v := g.Head[e]
					if d, ok := relaxAtomic(u, v, g.Weight[e], dist); ok {
						local = append(local, request{u: u, v: v, d: d})
					}
				}
			}
			perWorker[w] = local
			return nil
		})
	}
	_ = eg.Wait() // workers never fail

	// A request whose candidate survived is a valid predecessor for v.
	for _, local := range perWorker {
		for _, req := range local {
			if dist[req.v] == req.d {
				r.res.Pred[req.v] = req.u
				r.place(req.v)
			}
		}
	}
}
