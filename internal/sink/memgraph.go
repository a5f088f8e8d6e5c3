package sink

import (
	"context"
	"fmt"
	"os"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// MemgraphConfig holds the Bolt connection parameters for a live Memgraph
// instance. MEMGRAPH_HOST/MEMGRAPH_PORT are read only here, by the sink
// constructor — never by the pipeline itself.
type MemgraphConfig struct {
	Host     string
	Port     string
	Username string
	Password string
}

// MemgraphConfigFromEnv reads MEMGRAPH_HOST/MEMGRAPH_PORT (and optional
// MEMGRAPH_USER/MEMGRAPH_PASSWORD) with the teacher's own localhost:7687
// defaults.
func MemgraphConfigFromEnv() MemgraphConfig {
	cfg := MemgraphConfig{Host: "localhost", Port: "7687"}
	if h := os.Getenv("MEMGRAPH_HOST"); h != "" {
		cfg.Host = h
	}
	if p := os.Getenv("MEMGRAPH_PORT"); p != "" {
		cfg.Port = p
	}
	cfg.Username = os.Getenv("MEMGRAPH_USER")
	cfg.Password = os.Getenv("MEMGRAPH_PASSWORD")
	return cfg
}

// MemgraphSink speaks the Bolt protocol (via the official Neo4j driver,
// which Memgraph implements) and issues idempotent MERGE statements for
// every node/edge, mirroring spec.md's ensure_node/ensure_relationship
// upsert contract directly in Cypher.
type MemgraphSink struct {
	driver  neo4j.DriverWithContext
	batch   *Batch
	dbName  string
}

// OpenMemgraph dials a live Memgraph instance.
func OpenMemgraph(ctx context.Context, cfg MemgraphConfig) (*MemgraphSink, error) {
	uri := fmt.Sprintf("bolt://%s:%s", cfg.Host, cfg.Port)
	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}
	driver, err := neo4j.NewDriverWithContext(uri, auth)
	if err != nil {
		return nil, fmt.Errorf("dial memgraph at %s: %w", uri, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify memgraph connectivity: %w", err)
	}
	return &MemgraphSink{driver: driver, batch: NewBatch()}, nil
}

func (s *MemgraphSink) EnsureNode(n Node)               { s.batch.Add(n) }
func (s *MemgraphSink) EnsureRelationship(e Edge)        { s.batch.AddEdge(e) }

// Flush runs a single write transaction holding one statement per node
// label and one per edge type, batching multiple rows through UNWIND the way the original Cypher
// front-end (documented in original_source/nl_query.py's schema) expects
// a code-graph writer to behave.
func (s *MemgraphSink) Flush(ctx context.Context) error {
	if s.batch.Len() == 0 {
		return nil
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	byLabel := make(map[string][]Node)
	for _, n := range s.batch.Nodes() {
		byLabel[n.Label] = append(byLabel[n.Label], n)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for label, nodes := range byLabel {
			rows := make([]map[string]any, 0, len(nodes))
			for _, n := range nodes {
				rows = append(rows, map[string]any{
					"project":        n.Project,
					"qualified_name": n.QualifiedName,
					"name":           n.Name,
					"file_path":      n.FilePath,
					"start_line":     n.StartLine,
					"end_line":       n.EndLine,
					"properties":     n.Properties,
				})
			}
			cypher := fmt.Sprintf(`
				UNWIND $rows AS row
				MERGE (n:%s {project: row.project, qualified_name: row.qualified_name})
				SET n.name = row.name, n.file_path = row.file_path,
				    n.start_line = row.start_line, n.end_line = row.end_line
				SET n += row.properties
			`, cypherLabel(label))
			if _, err := tx.Run(ctx, cypher, map[string]any{"rows": rows}); err != nil {
				return nil, fmt.Errorf("merge %s nodes: %w", label, err)
			}
		}

		byType := make(map[string][]Edge)
		for _, e := range s.batch.Edges() {
			byType[e.Type] = append(byType[e.Type], e)
		}
		for typ, edges := range byType {
			rows := make([]map[string]any, 0, len(edges))
			for _, e := range edges {
				rows = append(rows, map[string]any{
					"project":    e.Project,
					"source_qn":  e.SourceQN,
					"target_qn":  e.TargetQN,
					"properties": e.Properties,
				})
			}
			cypher := fmt.Sprintf(`
				UNWIND $rows AS row
				MATCH (s {project: row.project, qualified_name: row.source_qn})
				MATCH (t {project: row.project, qualified_name: row.target_qn})
				MERGE (s)-[r:%s]->(t)
				SET r += row.properties
			`, cypherType(typ))
			if _, err := tx.Run(ctx, cypher, map[string]any{"rows": rows}); err != nil {
				return nil, fmt.Errorf("merge %s edges: %w", typ, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return err
	}
	s.batch.Reset()
	return nil
}

// Close shuts down the underlying Bolt driver.
func (s *MemgraphSink) Close() error {
	return s.driver.Close(context.Background())
}

// cypherLabel/cypherType pass the value through: the pipeline only ever
// produces the fixed, known-safe label/type vocabulary from spec.md §3, so
// no user-controlled string reaches a Cypher keyword position.
func cypherLabel(label string) string { return label }
func cypherType(typ string) string    { return typ }
