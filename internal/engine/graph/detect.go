// # internal/engine/graph/detect.go
package graph

import (
	"sort"
)

// Cycle is one strongly connected component reported as a closed walk.
// Path[0] == Path[len(Path)-1]; Members is the sorted node set.
type Cycle struct {
	Path    []string `json:"path"`
	Members []string `json:"members"`
}

// FindCycles runs FindCyclesInOrder over the sorted keys of adj.
func FindCycles(adj Adjacency) []Cycle {
	keys := make([]string, 0, len(adj))
	for k := range adj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return FindCyclesInOrder(keys, adj)
}

// FindCyclesInOrder reports every component with more than one member, and
// every single node with an explicit self edge, visiting roots in the given
// order. Keys of adj missing from order are visited afterwards in sorted
// order. Cycles are returned ordered by their smallest member.
func FindCyclesInOrder(order []string, adj Adjacency) []Cycle {
	components := tarjan(completeOrder(order, adj), adj)

	cycles := make([]Cycle, 0)
	for _, members := range components {
		if len(members) == 1 && !hasSelfEdge(adj, members[0]) {
			continue
		}
		sort.Strings(members)
		cycles = append(cycles, Cycle{
			Path:    representativePath(members, adj),
			Members: members,
		})
	}
	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i].Members[0] < cycles[j].Members[0]
	})
	return cycles
}

func completeOrder(order []string, adj Adjacency) []string {
	seen := make(map[string]bool, len(order))
	out := make([]string, 0, len(adj))
	for _, k := range order {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	rest := make([]string, 0)
	for k := range adj {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

type tarjanFrame struct {
	node string
	next int
}

// tarjan is the iterative form of Tarjan's algorithm. The explicit work
// stack keeps deep chains (thousands of files) off the goroutine stack.
func tarjan(order []string, adj Adjacency) [][]string {
	index := make(map[string]int)
	low := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	var components [][]string
	counter := 0

	visit := func(node string) {
		index[node] = counter
		low[node] = counter
		counter++
		stack = append(stack, node)
		onStack[node] = true
	}

	for _, root := range order {
		if _, seen := index[root]; seen {
			continue
		}
		visit(root)
		work := []tarjanFrame{{node: root}}

		for len(work) > 0 {
			top := &work[len(work)-1]
			neighbors := adj[top.node]
			if top.next < len(neighbors) {
				next := neighbors[top.next]
				top.next++
				if _, seen := index[next]; !seen {
					visit(next)
					work = append(work, tarjanFrame{node: next})
				} else if onStack[next] && index[next] < low[top.node] {
					low[top.node] = index[next]
				}
				continue
			}

			node := top.node
			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := work[len(work)-1].node
				if low[node] < low[parent] {
					low[parent] = low[node]
				}
			}

			if low[node] == index[node] {
				var component []string
				for {
					n := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[n] = false
					component = append(component, n)
					if n == node {
						break
					}
				}
				components = append(components, component)
			}
		}
	}
	return components
}

func hasSelfEdge(adj Adjacency, node string) bool {
	for _, next := range adj[node] {
		if next == node {
			return true
		}
	}
	return false
}

// representativePath walks from the smallest member, always taking the first
// neighbour inside the component, until a node repeats. The walk is trimmed
// to the loop so the result starts and ends at the repeated node.
func representativePath(members []string, adj Adjacency) []string {
	inComponent := make(map[string]bool, len(members))
	for _, m := range members {
		inComponent[m] = true
	}

	start := members[0]
	path := []string{start}
	position := map[string]int{start: 0}
	curr := start
	for {
		next := ""
		for _, n := range adj[curr] {
			if inComponent[n] {
				next = n
				break
			}
		}
		if next == "" {
			// Unreachable for a real component; return the trivial closure.
			return []string{start, start}
		}
		if pos, seen := position[next]; seen {
			loop := append([]string(nil), path[pos:]...)
			return append(loop, next)
		}
		position[next] = len(path)
		path = append(path, next)
		curr = next
	}
}

// ShortestCycle returns the shortest closed walk through the smallest member
// that stays inside the component.
func ShortestCycle(members []string, adj Adjacency) []string {
	if len(members) == 0 {
		return nil
	}
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)
	inComponent := make(map[string]bool, len(sorted))
	for _, m := range sorted {
		inComponent[m] = true
	}

	start := sorted[0]
	prev := make(map[string]string)
	visited := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, next := range adj[curr] {
			if !inComponent[next] {
				continue
			}
			if next == start {
				path := []string{start}
				for node := curr; node != start; node = prev[node] {
					path = append(path, node)
				}
				path = append(path, start)
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = curr
			queue = append(queue, next)
		}
	}
	return nil
}

// FindImportChain returns the shortest path from -> to, exploring neighbours
// in sorted order.
func FindImportChain(adj Adjacency, from, to string) ([]string, bool) {
	if from == to {
		return []string{from}, true
	}

	queue := []string{from}
	visited := map[string]bool{from: true}
	prev := make(map[string]string)

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		neighbors := append([]string(nil), adj[curr]...)
		sort.Strings(neighbors)

		for _, next := range neighbors {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = curr

			if next == to {
				path := []string{to}
				for node := to; node != from; {
					p := prev[node]
					path = append(path, p)
					node = p
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path, true
			}

			queue = append(queue, next)
		}
	}

	return nil, false
}
