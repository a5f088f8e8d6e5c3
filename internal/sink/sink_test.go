package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchDedupesNodesByProjectAndQualifiedName(t *testing.T) {
	b := NewBatch()
	b.Add(Node{Project: "p", Label: "Class", Name: "Foo", QualifiedName: "p.mod.Foo"})
	b.Add(Node{Project: "p", Label: "Class", Name: "Foo", QualifiedName: "p.mod.Foo", FilePath: "mod.py"})

	nodes := b.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "mod.py", nodes[0].FilePath, "last write should win")
}

func TestBatchDedupesEdgesBySourceTargetType(t *testing.T) {
	b := NewBatch()
	b.AddEdge(Edge{Project: "p", SourceQN: "p.a", TargetQN: "p.b", Type: "CALLS"})
	b.AddEdge(Edge{Project: "p", SourceQN: "p.a", TargetQN: "p.b", Type: "CALLS"})
	b.AddEdge(Edge{Project: "p", SourceQN: "p.a", TargetQN: "p.b", Type: "IMPORTS"})

	assert.Len(t, b.Edges(), 2)
	assert.Equal(t, 2, b.Len(), "1 dedup'd node-less edge pair + 1 distinct edge = 2 edges, plus 0 nodes")
}

func TestBatchPreservesInsertionOrder(t *testing.T) {
	b := NewBatch()
	b.Add(Node{Project: "p", QualifiedName: "p.a"})
	b.Add(Node{Project: "p", QualifiedName: "p.b"})
	b.Add(Node{Project: "p", QualifiedName: "p.c"})

	nodes := b.Nodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, []string{"p.a", "p.b", "p.c"}, []string{nodes[0].QualifiedName, nodes[1].QualifiedName, nodes[2].QualifiedName})
}

func TestSQLiteSinkFlushRoundTrip(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	s.EnsureNode(Node{Project: "proj", Label: "Module", Name: "mod", QualifiedName: "proj.mod"})
	s.EnsureNode(Node{Project: "proj", Label: "Function", Name: "f", QualifiedName: "proj.mod.f"})
	s.EnsureRelationship(Edge{Project: "proj", SourceQN: "proj.mod", TargetQN: "proj.mod.f", Type: "DEFINES"})

	require.NoError(t, s.Flush(ctx))

	require.NoError(t, s.SetFileHash(ctx, "proj", "mod.go", "abc123"))
	hash, ok := s.FileHash(ctx, "proj", "mod.go")
	require.True(t, ok)
	assert.Equal(t, "abc123", hash)
}

func TestSQLiteSinkFlushSkipsEdgesWithUnresolvedEndpoints(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	s.EnsureNode(Node{Project: "proj", Label: "Module", Name: "mod", QualifiedName: "proj.mod"})
	s.EnsureRelationship(Edge{Project: "proj", SourceQN: "proj.mod", TargetQN: "proj.nonexistent", Type: "CALLS"})

	// Flush must not fail just because one edge's target was never staged;
	// it logs a warning and skips that edge (spec.md: a bad edge degrades
	// the run, it never aborts it).
	assert.NoError(t, s.Flush(ctx))
}

func TestSQLiteSinkDeleteProject(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	s.EnsureNode(Node{Project: "proj", Label: "Module", QualifiedName: "proj.mod"})
	require.NoError(t, s.Flush(ctx))
	require.NoError(t, s.DeleteProject(ctx, "proj"))

	_, ok := s.FileHash(ctx, "proj", "mod.go")
	assert.False(t, ok)
}

func TestMemgraphConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("MEMGRAPH_HOST", "")
	t.Setenv("MEMGRAPH_PORT", "")
	cfg := MemgraphConfigFromEnv()
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "7687", cfg.Port)
}
