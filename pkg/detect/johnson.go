package detect

import (
	"context"
)

// cancelCheckEvery controls how often the circuit search polls the context.
const cancelCheckEvery = 1024

// circuitSearch enumerates the elementary circuits of one strongly connected
// component with Johnson's blocked search over component-local vertex ids
// (0..k-1, ascending by global index). For each start vertex s only vertices
// at or above s participate, so every circuit is emitted exactly once, rooted
// at its smallest vertex.
//
// budget is decremented once per unit of work (edge consideration or restart
// bookkeeping); when it runs out the component stops and keeps the circuits
// found so far.
type circuitSearch struct {
	adj       [][]int
	blocked   []bool
	blockList [][]int
	budget    int64
	ops       int64
	partial   bool
	emit      func(cycle []int)
}

// frame mirrors one level of the recursive circuit routine. found records
// whether any circuit was closed through this vertex or below.
type circuitFrame struct {
	v     int
	edge  int
	found bool
}

func (s *circuitSearch) spend(ctx context.Context) (ok bool, err error) {
	if s.ops++; s.ops%cancelCheckEvery == 0 {
		if err := ctx.Err(); err != nil {
			return false, err
		}
	}
	if s.budget <= 0 {
		s.partial = true
		return false, nil
	}
	s.budget--
	return true, nil
}

func (s *circuitSearch) run(ctx context.Context) error {
	k := len(s.adj)
	for start := 0; start < k && !s.partial; start++ {
		for i := start; i < k; i++ {
			if ok, err := s.spend(ctx); err != nil {
				return err
			} else if !ok {
				return nil
			}
			s.blocked[i] = false
			s.blockList[i] = s.blockList[i][:0]
		}
		if err := s.search(ctx, start); err != nil {
			return err
		}
	}
	return nil
}

func (s *circuitSearch) search(ctx context.Context, start int) error {
	frames := []circuitFrame{{v: start}}
	s.blocked[start] = true

	for len(frames) > 0 {
		f := &frames[len(frames)-1]
		pushed := false
		for f.edge < len(s.adj[f.v]) {
			if ok, err := s.spend(ctx); err != nil {
				return err
			} else if !ok {
				break
			}
			w := s.adj[f.v][f.edge]
			f.edge++
			if w < start {
				continue
			}
			if w == start {
				cycle := make([]int, len(frames))
				for i := range frames {
					cycle[i] = frames[i].v
				}
				s.emit(cycle)
				f.found = true
				continue
			}
			if !s.blocked[w] {
				s.blocked[w] = true
				frames = append(frames, circuitFrame{v: w})
				pushed = true
				break
			}
		}
		if pushed {
			continue
		}

		v, found := f.v, f.found
		if found {
			s.unblock(v)
		} else {
			for _, w := range s.adj[v] {
				if w >= start {
					s.blockList[w] = append(s.blockList[w], v)
				}
			}
		}
		frames = frames[:len(frames)-1]
		if found && len(frames) > 0 {
			frames[len(frames)-1].found = true
		}
		if s.partial {
			// Budget ran out mid-search. Unwind without exploring further.
			frames = frames[:0]
		}
	}
	return nil
}

// unblock clears v and cascades through its block list without recursion.
func (s *circuitSearch) unblock(v int) {
	work := []int{v}
	for len(work) > 0 {
		u := work[len(work)-1]
		work = work[:len(work)-1]
		if !s.blocked[u] {
			continue
		}
		s.blocked[u] = false
		for _, w := range s.blockList[u] {
			if s.blocked[w] {
				work = append(work, w)
			}
		}
		s.blockList[u] = s.blockList[u][:0]
	}
}

// componentCircuits runs the blocked search over one component. comp holds
// ascending global vertex indexes; emitted cycles use global indexes and are
// rooted at their smallest member. Returns whether the budget truncated the
// enumeration.
func componentCircuits(ctx context.Context, adj [][]int, comp []int, budget int64, emit func(cycle []int)) (bool, error) {
	local := make(map[int]int, len(comp))
	for i, v := range comp {
		local[v] = i
	}
	ladj := make([][]int, len(comp))
	for i, v := range comp {
		var row []int
		for _, w := range adj[v] {
			if j, ok := local[w]; ok {
				row = append(row, j)
			}
		}
		ladj[i] = row
	}

	s := &circuitSearch{
		adj:       ladj,
		blocked:   make([]bool, len(comp)),
		blockList: make([][]int, len(comp)),
		budget:    budget,
		emit: func(cycle []int) {
			global := make([]int, len(cycle))
			for i, v := range cycle {
				global[i] = comp[v]
			}
			emit(global)
		},
	}
	if err := s.run(ctx); err != nil {
		return false, err
	}
	return s.partial, nil
}
