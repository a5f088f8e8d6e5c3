package pipeline

import (
	"log/slog"

	"github.com/codegraph-dev/codegraph/internal/sink"
)

// inheritsFixup resolves deferred baseClassRefs collected during the
// definitions pass into INHERITS / IMPLEMENTS edges, after every file's
// definitions have been registered (spec.md §5 phase barrier: this must
// not run until C5 has fully drained). A base name that resolves to an
// interface/trait-shaped registration produces IMPLEMENTS; any other
// resolution produces INHERITS.
//
// Inheritance cycles are rejected at emission time via an incremental
// union-find: adding an edge that would close a cycle is dropped and
// logged, matching the teacher's cycle-guard in passInherits.
func inheritsFixup(
	batch *sink.Batch,
	project string,
	refs []baseClassRef,
	registry *FunctionRegistry,
	interfaceQNs map[string]bool,
	importMaps map[string]map[string]string,
) int {
	uf := newUnionFind()
	count := 0

	for _, ref := range refs {
		moduleQN := qualifiedNamePrefix(ref.ClassQN)
		importMap := importMaps[moduleQN]

		targetQN := resolveAsClass(ref.BaseName, registry, moduleQN, importMap)
		if targetQN == "" || targetQN == ref.ClassQN {
			continue
		}

		if uf.wouldCycle(ref.ClassQN, targetQN) {
			slog.Warn("pipeline.inherits.cycle_rejected", "class", ref.ClassQN, "base", targetQN)
			continue
		}
		uf.union(ref.ClassQN, targetQN)

		edgeType := "INHERITS"
		if interfaceQNs[targetQN] {
			edgeType = "IMPLEMENTS"
		}
		batch.AddEdge(sink.Edge{Project: project, SourceQN: ref.ClassQN, TargetQN: targetQN, Type: edgeType})
		count++
	}

	slog.Info("pipeline.inherits.done", "edges", count)
	return count
}

// qualifiedNamePrefix returns the module QN portion of a fully qualified
// name, e.g. "project.path.module.ClassName" -> "project.path.module".
func qualifiedNamePrefix(qn string) string {
	for i := len(qn) - 1; i >= 0; i-- {
		if qn[i] == '.' {
			return qn[:i]
		}
	}
	return qn
}

// unionFind is a minimal incremental disjoint-set used only to reject
// INHERITS edges that would close a cycle; the graph is otherwise a DAG
// by construction (classes can have many parents, so this is a
// conservative approximation: it catches direct and component-joining
// cycles without needing a full path search per edge).
type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: map[string]string{}}
}

func (u *unionFind) find(x string) string {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
		return x
	}
	if u.parent[x] != x {
		u.parent[x] = u.find(u.parent[x])
	}
	return u.parent[x]
}

// wouldCycle reports whether a or b are already in the same component,
// meaning adding an edge between them would close a cycle.
func (u *unionFind) wouldCycle(a, b string) bool {
	return u.find(a) == u.find(b)
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}
