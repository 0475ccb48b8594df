package detect

import (
	"sort"
)

const unvisited = -1

// sccs returns the strongly connected components of adj that contain more
// than one vertex, ordered by their smallest member. Vertices are dense
// indexes into adj. The walk keeps an explicit frame stack, so arbitrarily
// deep graphs cannot overflow the goroutine stack.
func sccs(adj [][]int) [][]int {
	n := len(adj)
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = unvisited
	}

	// frame mirrors one level of the recursive formulation. phase 0 assigns
	// the index, 1 walks edges, 2 folds a finished child's lowlink back in,
	// 3 pops the component.
	type frame struct {
		v     int
		edge  int
		phase int
		child int
	}

	var counter int
	stack := make([]int, 0, 64)
	var comps [][]int

	for root := 0; root < n; root++ {
		if index[root] != unvisited {
			continue
		}
		frames := []frame{{v: root}}
		for len(frames) > 0 {
			f := &frames[len(frames)-1]
			switch f.phase {
			case 0:
				index[f.v] = counter
				lowlink[f.v] = counter
				counter++
				stack = append(stack, f.v)
				onStack[f.v] = true
				f.phase = 1
			case 1:
				pushed := false
				for f.edge < len(adj[f.v]) {
					w := adj[f.v][f.edge]
					f.edge++
					if index[w] == unvisited {
						f.phase = 2
						f.child = w
						frames = append(frames, frame{v: w})
						pushed = true
						break
					}
					if onStack[w] && index[w] < lowlink[f.v] {
						lowlink[f.v] = index[w]
					}
				}
				if !pushed {
					f.phase = 3
				}
			case 2:
				if lowlink[f.child] < lowlink[f.v] {
					lowlink[f.v] = lowlink[f.child]
				}
				f.phase = 1
			case 3:
				if lowlink[f.v] == index[f.v] {
					var comp []int
					for {
						w := stack[len(stack)-1]
						stack = stack[:len(stack)-1]
						onStack[w] = false
						comp = append(comp, w)
						if w == f.v {
							break
						}
					}
					if len(comp) > 1 {
						comps = append(comps, comp)
					}
				}
				frames = frames[:len(frames)-1]
			}
		}
	}

	for _, comp := range comps {
		sort.Ints(comp)
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i][0] < comps[j][0] })
	return comps
}
