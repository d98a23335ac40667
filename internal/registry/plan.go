package registry

import (
	"fmt"
	"io"
	"strings"
)

// PrintPlan prints the processing order with each package's repository and
// its direct dependencies as a tree.
func PrintPlan(w io.Writer, g *Graph, order []string) {
	fmt.Fprintln(w, "Resolving processing order...")
	fmt.Fprintln(w)

	for i, name := range order {
		p, _ := g.reg.Lookup(name)
		label := fmt.Sprintf("%2d. %s (%s)", i+1, name, location(p))
		if g.reg.IsBindingPackage(name) {
			label += " [binding]"
		}
		fmt.Fprintf(w, "  %s\n", label)

		deps := g.DependenciesOf(name)
		for j, dep := range deps {
			connector := "├── "
			if j == len(deps)-1 {
				connector = "└── "
			}
			fmt.Fprintf(w, "      %s%s\n", connector, dep)
		}
	}
	fmt.Fprintln(w)

	repos := g.reg.Repositories()
	noun := "repository"
	if len(repos) != 1 {
		noun = "repositories"
	}
	fmt.Fprintf(w, "  %d packages in %d %s: %s\n", len(order), len(repos), noun, strings.Join(repos, ", "))
}

func location(p Package) string {
	if p.Path == "" {
		return p.Repository
	}
	return p.Repository + "/" + p.Path
}
