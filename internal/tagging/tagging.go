// Package tagging names the git tags and temporary branches of a release
// from the resolved versions of a run.
package tagging

import (
	"fmt"
	"sort"

	"github.com/bumpwright/bumpwright/internal/propagate"
	"github.com/bumpwright/bumpwright/internal/registry"
	"github.com/bumpwright/bumpwright/internal/version"
)

// Tag is the tag to create in one repository.
type Tag struct {
	Repository string
	Name       string
	// Source explains how Name was chosen.
	Source string
}

// Branch is the temporary branch of a pass and the branch it merges into.
type Branch struct {
	Temp string
	Base string
}

// Branches holds the branch pair of each pass.
type Branches struct {
	// Bump is used by the pass that bumps versions on the main line.
	Bump Branch
	// Pin is used by the pass that pins dependencies on the crate line.
	Pin Branch
}

// DefaultBranches returns the stock branch names.
func DefaultBranches() Branches {
	return Branches{
		Bump: Branch{Temp: "master-release-update", Base: "master"},
		Pin:  Branch{Temp: "crate-release-update", Base: "crate"},
	}
}

// Tags computes one tag per repository that has resolved packages, in
// repository order. A repository hosting binding packages is tagged with the
// version of its last binding package; any other repository with its most
// common version, the lowest one on a tie. When pkg names a binding package
// the run only touched part of a multi-package repository and no tag is
// produced.
func Tags(reg *registry.Registry, table *propagate.Table, pkg string) ([]Tag, error) {
	repos := reg.Repositories()
	if pkg != "" {
		p, ok := reg.Lookup(pkg)
		if !ok {
			return nil, fmt.Errorf("%w %q", registry.ErrUnknownPackage, pkg)
		}
		if reg.IsBindingPackage(pkg) {
			return nil, nil
		}
		repos = []string{p.Repository}
	}

	var tags []Tag
	for _, repo := range repos {
		tag, ok, err := repositoryTag(reg, table, repo)
		if err != nil {
			return nil, err
		}
		if ok {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

func repositoryTag(reg *registry.Registry, table *propagate.Table, repo string) (Tag, bool, error) {
	counts := make(map[string]int)
	binding := ""
	for _, p := range reg.InRepository(repo) {
		v, ok := table.Lookup(p.Name)
		if !ok {
			continue
		}
		counts[v]++
		if reg.IsBindingPackage(p.Name) {
			binding = v
		}
	}
	if len(counts) == 0 {
		return Tag{}, false, nil
	}
	if binding != "" {
		return Tag{Repository: repo, Name: binding, Source: "binding package"}, true, nil
	}

	versions := make([]string, 0, len(counts))
	for v := range counts {
		versions = append(versions, v)
	}
	var sortErr error
	sort.Slice(versions, func(i, j int) bool {
		if counts[versions[i]] != counts[versions[j]] {
			return counts[versions[i]] > counts[versions[j]]
		}
		c, err := version.Compare(versions[i], versions[j])
		if err != nil {
			sortErr = err
			return versions[i] < versions[j]
		}
		return c < 0
	})
	if sortErr != nil {
		return Tag{}, false, fmt.Errorf("ordering versions of %s: %w", repo, sortErr)
	}

	source := "most common version"
	if len(versions) == 1 {
		source = "shared version"
	}
	return Tag{Repository: repo, Name: versions[0], Source: source}, true, nil
}
