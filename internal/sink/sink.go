// Package sink defines the Graph Sink Adapter (C9): a batching,
// idempotent-upsert boundary between the pipeline and whatever graph
// storage backs it. Two backends are provided — a local SQLite cache
// (the default, zero-setup option) and a live Memgraph instance reached
// over the Bolt protocol.
package sink

import (
	"context"
	"fmt"
	"sync"
)

// Node is a pending node upsert, keyed by (Project, QualifiedName).
type Node struct {
	Project       string
	Label         string // Project, Package, Folder, File, Module, Class, Function, Method, Field, Variable, ExternalPackage
	Name          string
	QualifiedName string
	FilePath      string
	StartLine     int
	EndLine       int
	Properties    map[string]any
}

func (n Node) key() string { return n.Project + "\x00" + n.QualifiedName }

// Edge is a pending relationship upsert between two nodes identified by
// their qualified names — the sink resolves QN to an internal node id at
// flush time, after every node in the batch (or a prior batch) has been
// ensured.
type Edge struct {
	Project    string
	SourceQN   string
	TargetQN   string
	Type       string // CONTAINS_*, DEFINES, DEFINES_METHOD, IMPORTS, INHERITS, IMPLEMENTS, CALLS, OVERRIDES, OVERLOADS, DEPENDS_ON_EXTERNAL
	Properties map[string]any
}

func (e Edge) key() string {
	return e.Project + "\x00" + e.SourceQN + "\x00" + e.TargetQN + "\x00" + e.Type
}

// Sink is the single interface the pipeline talks to. Implementations
// must make EnsureNode/EnsureRelationship idempotent (re-ensuring the same
// key is a no-op) and must resolve edge endpoints by qualified name.
type Sink interface {
	EnsureNode(n Node)
	EnsureRelationship(e Edge)
	Flush(ctx context.Context) error
	Close() error
}

// Batch is the backend-agnostic pending-write buffer shared by every Sink
// implementation: EnsureNode/EnsureRelationship just dedup into maps, and
// each backend's Flush drains Batch and performs its own I/O. Its methods
// are safe for concurrent use.
type Batch struct {
	mu       sync.Mutex
	nodes    map[string]Node
	edges    map[string]Edge
	nodeSeq  []string // preserves insertion order for deterministic writes
	edgeSeq  []string
}

// NewBatch returns an empty pending-write buffer.
func NewBatch() *Batch {
	return &Batch{nodes: make(map[string]Node), edges: make(map[string]Edge)}
}

// Add stages a node upsert; re-adding the same (Project, QualifiedName) key
// overwrites the prior entry (last write wins), matching the teacher's
// ensure_node semantics.
func (b *Batch) Add(n Node) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := n.key()
	if _, exists := b.nodes[k]; !exists {
		b.nodeSeq = append(b.nodeSeq, k)
	}
	b.nodes[k] = n
}

// AddEdge stages a relationship upsert, deduped by (source, target, type).
func (b *Batch) AddEdge(e Edge) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := e.key()
	if _, exists := b.edges[k]; !exists {
		b.edgeSeq = append(b.edgeSeq, k)
	}
	b.edges[k] = e
}

// Nodes returns staged nodes in insertion order.
func (b *Batch) Nodes() []Node {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Node, 0, len(b.nodeSeq))
	for _, k := range b.nodeSeq {
		out = append(out, b.nodes[k])
	}
	return out
}

// Edges returns staged edges in insertion order.
func (b *Batch) Edges() []Edge {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Edge, 0, len(b.edgeSeq))
	for _, k := range b.edgeSeq {
		out = append(out, b.edges[k])
	}
	return out
}

// Reset clears the batch after a successful flush.
func (b *Batch) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nodes = make(map[string]Node)
	b.edges = make(map[string]Edge)
	b.nodeSeq = nil
	b.edgeSeq = nil
}

// Len reports the number of pending writes (nodes + edges).
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.nodeSeq) + len(b.edgeSeq)
}

// ErrUnresolvedEndpoint describes an edge that references a qualified name
// never ensured as a node in this or a prior batch. Neither backend returns
// it: SQLiteSink.Flush logs and skips such an edge, and MemgraphSink's
// MATCH finds no endpoint and creates no relationship.
type ErrUnresolvedEndpoint struct {
	Edge Edge
	Want string // "source" or "target"
}

func (e *ErrUnresolvedEndpoint) Error() string {
	return fmt.Sprintf("sink: unresolved %s endpoint for %s -[%s]-> %s", e.Want, e.Edge.SourceQN, e.Edge.Type, e.Edge.TargetQN)
}
