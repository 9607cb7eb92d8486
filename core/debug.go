package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/m1gwings/treedrawer/tree"
)

// AnyNode is the minimal identity+inspection surface DumpGraph needs from
// a node, regardless of its result type. *DependencyNode[T] implements it
// for any T.
type AnyNode interface {
	BindSource
	graphLabel() string
	graphSources() []AnyNode
}

// DumpGraph renders the source graph reachable from the given nodes as a
// tree, for use in tests and slog diagnostic output. Grounded on the
// pumped-fn example repo's extensions/graph_debug.go, which solves the
// same "show me what this depends on" problem for a different kind of
// dependency graph using the same library.
func DumpGraph(nodes ...AnyNode) string {
	if len(nodes) == 0 {
		return "(empty - no nodes given)"
	}

	var sb strings.Builder
	visited := make(map[AnyNode]bool)

	for i, n := range nodes {
		if i > 0 {
			sb.WriteString("\n")
		}
		t := buildDebugTree(n, visited)
		sb.WriteString(t.String())
	}
	return sb.String()
}

func buildDebugTree(n AnyNode, visited map[AnyNode]bool) *tree.Tree {
	if visited[n] {
		return tree.NewTree(tree.NodeString(n.graphLabel() + " (already shown)"))
	}
	visited[n] = true

	t := tree.NewTree(tree.NodeString(n.graphLabel()))
	sources := n.graphSources()
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].graphLabel() < sources[j].graphLabel()
	})
	for _, src := range sources {
		child := buildDebugTree(src, visited)
		addAsChild(t, child)
	}
	return t
}

func addAsChild(parent *tree.Tree, child *tree.Tree) {
	newChild := parent.AddChild(child.Val())
	for _, grandchild := range child.Children() {
		addAsChild(newChild, grandchild)
	}
}

func (n *DependencyNode[T]) graphLabel() string {
	return fmt.Sprintf("DependencyNode<%T>[%s]", *new(T), n.state)
}

func (n *DependencyNode[T]) graphSources() []AnyNode {
	srcs := make([]AnyNode, 0, len(n.sources.bindings))
	for _, b := range n.sources.bindings {
		if an, ok := b.source.(AnyNode); ok {
			srcs = append(srcs, an)
		}
	}
	return srcs
}
