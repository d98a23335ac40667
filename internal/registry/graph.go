package registry

import (
	"fmt"
	"sort"
	"strings"
)

// Graph is the dependency graph over registered packages. An edge
// dependent -> dependency means the dependency must be resolved first.
type Graph struct {
	reg  *Registry
	deps map[string]map[string]bool
}

// Graph returns a graph seeded with the declared depends_on edges.
func (r *Registry) Graph() *Graph {
	g := &Graph{reg: r, deps: make(map[string]map[string]bool, len(r.packages))}
	for _, p := range r.packages {
		g.deps[p.Name] = make(map[string]bool)
		for _, dep := range p.DependsOn {
			g.deps[p.Name][dep] = true
		}
	}
	return g
}

// AddEdge records that dependent needs dependency. Self references are
// ignored; both names must be registered.
func (g *Graph) AddEdge(dependent, dependency string) error {
	if !g.reg.IsRegistered(dependent) {
		return fmt.Errorf("%w %q", ErrUnknownPackage, dependent)
	}
	if !g.reg.IsRegistered(dependency) {
		return fmt.Errorf("%w %q", ErrUnknownPackage, dependency)
	}
	if dependent != dependency {
		g.deps[dependent][dependency] = true
	}
	return nil
}

// DependenciesOf returns the direct dependencies of name in declaration order.
func (g *Graph) DependenciesOf(name string) []string {
	var out []string
	for dep := range g.deps[name] {
		out = append(out, dep)
	}
	g.sortByDeclaration(out)
	return out
}

// Order returns every package in topological order: dependencies before
// dependents. Among packages that are ready at the same time, declaration
// order wins, so a registry already listed in a valid order keeps it.
func (g *Graph) Order() ([]string, error) {
	remaining := make(map[string]int, len(g.deps))
	dependents := make(map[string][]string, len(g.deps))
	for name, deps := range g.deps {
		remaining[name] = len(deps)
		for dep := range deps {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	done := make(map[string]bool, len(g.deps))
	order := make([]string, 0, len(g.deps))
	for len(order) < len(g.reg.packages) {
		next := ""
		for _, p := range g.reg.packages {
			if !done[p.Name] && remaining[p.Name] == 0 {
				next = p.Name
				break
			}
		}
		if next == "" {
			return nil, g.cycleError(done)
		}
		done[next] = true
		order = append(order, next)
		for _, d := range dependents[next] {
			remaining[d]--
		}
	}
	return order, nil
}

func (g *Graph) cycleError(done map[string]bool) error {
	var stuck []string
	for _, p := range g.reg.packages {
		if !done[p.Name] {
			stuck = append(stuck, p.Name)
		}
	}
	return fmt.Errorf("%w between %s", ErrCycle, strings.Join(stuck, ", "))
}

func (g *Graph) sortByDeclaration(names []string) {
	sort.Slice(names, func(i, j int) bool {
		return g.reg.index[names[i]] < g.reg.index[names[j]]
	})
}
