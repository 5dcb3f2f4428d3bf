package mesh

import (
	"sort"

	"go.uber.org/multierr"
)

// Loop is a closed chain of boundary vertices. The loop runs in the
// direction most of its owning faces traverse it: on a consistently wound
// mesh, for consecutive entries a, b (wrapping around) the single face owning
// edge (a, b) traverses it from a to b, so a face closing the loop must
// traverse it from b to a. HalfEdges gives the direction of each edge
// individually.
type Loop struct {
	Vertices []int
}

// Len returns the number of vertices in the loop.
func (l Loop) Len() int {
	return len(l.Vertices)
}

// Reversed returns the loop traversed in the opposite direction, starting
// from the same vertex.
func (l Loop) Reversed() Loop {
	n := len(l.Vertices)
	out := make([]int, n)
	for i, v := range l.Vertices {
		out[(n-i)%n] = v
	}
	return Loop{Vertices: out}
}

// HalfEdges returns every edge of the loop in the direction its single
// owning face traverses it.
func (l Loop) HalfEdges(m *Mesh, t *Topology) [][2]int {
	n := l.Len()
	out := make([][2]int, n)
	for i, a := range l.Vertices {
		b := l.Vertices[(i+1)%n]
		if ownerTraverses(m, t, a, b) {
			out[i] = [2]int{a, b}
		} else {
			out[i] = [2]int{b, a}
		}
	}
	return out
}

func ownerTraverses(m *Mesh, t *Topology, a, b int) bool {
	faces := t.EdgeFaces[MakeEdge(a, b)]
	return len(faces) > 0 && m.Faces[faces[0]].HasDirectedEdge(a, b)
}

// orient returns l running in the direction of the majority of its owning
// faces. Ties keep the walk direction.
func orient(m *Mesh, t *Topology, l Loop) Loop {
	forward := 0
	for i, a := range l.Vertices {
		if ownerTraverses(m, t, a, l.Vertices[(i+1)%l.Len()]) {
			forward++
		}
	}
	if 2*forward < l.Len() {
		return l.Reversed()
	}
	return l
}

// BoundaryLoops chains the boundary edges of m, the edges with exactly one
// incident face, into loops. Winding does not matter for the chaining, so
// loops are found on inconsistently wound input too. Loops are walked from
// the lowest unvisited start vertex and always follow the lowest-numbered
// unused edge, so the result is deterministic. A vertex visited twice splits
// the walk into separate loops. Chains that do not close are reported as
// ErrDegenerateHole in the returned error; closed loops are returned
// regardless.
func BoundaryLoops(m *Mesh, t *Topology) ([]Loop, error) {
	boundary := t.BoundaryEdges()
	if len(boundary) == 0 {
		return nil, nil
	}

	adjacent := make(map[int][]int)
	for _, e := range boundary {
		adjacent[e.A] = append(adjacent[e.A], e.B)
		adjacent[e.B] = append(adjacent[e.B], e.A)
	}
	starts := make([]int, 0, len(adjacent))
	for v, next := range adjacent {
		sort.Ints(next)
		starts = append(starts, v)
	}
	sort.Ints(starts)

	used := make(map[Edge]bool, len(boundary))
	take := func(v int) (int, bool) {
		for _, n := range adjacent[v] {
			if e := MakeEdge(v, n); !used[e] {
				used[e] = true
				return n, true
			}
		}
		return 0, false
	}
	unused := func(v int) bool {
		for _, n := range adjacent[v] {
			if !used[MakeEdge(v, n)] {
				return true
			}
		}
		return false
	}

	var (
		loops []Loop
		errs  error
	)
	for _, s := range starts {
		for unused(s) {
			path := []int{s}
			pos := map[int]int{s: 0}
			cur := s
			for {
				next, ok := take(cur)
				if !ok {
					errs = multierr.Append(errs, LoopError("BoundaryLoops", path[0], ErrDegenerateHole))
					break
				}
				if p, seen := pos[next]; seen {
					loops = append(loops, orient(m, t, Loop{Vertices: cloneSlice(path[p:])}))
					for _, v := range path[p+1:] {
						delete(pos, v)
					}
					path = path[:p+1]
					cur = next
					if len(path) == 1 {
						break
					}
					continue
				}
				pos[next] = len(path)
				path = append(path, next)
				cur = next
			}
		}
	}
	return loops, errs
}
