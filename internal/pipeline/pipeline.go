// Package pipeline implements the multi-language code-knowledge-graph
// extraction pipeline: discovery, the two-pass AST walk (definitions,
// then calls, separated by a hard phase barrier), import resolution,
// inheritance fix-up, and batched emission to a Graph Sink Adapter.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/codegraph-dev/codegraph/internal/discover"
	"github.com/codegraph-dev/codegraph/internal/fqn"
	"github.com/codegraph-dev/codegraph/internal/lang"
	"github.com/codegraph-dev/codegraph/internal/parser"
	"github.com/codegraph-dev/codegraph/internal/sink"
)

// Options configures a single Run.
type Options struct {
	FolderFilter string // only index files whose directory (filepath.Dir of RelPath) matches this glob, if set
	FilePattern  string // only index files whose base name matches this glob, if set
	MaxFileSize  int64
	Concurrency  int // worker pool size per phase; 0 = runtime.NumCPU()
	Clean        bool
}

// Summary reports what one Run did, for CLI output and diagnostics.
type Summary struct {
	FilesScanned        int
	FilesParsed         int
	FilesSkipped        int
	NodesEmittedByLabel map[string]int
	EdgesEmittedByType  map[string]int
	UnresolvedCalls     int
	UnresolvedImports   int
	DurationMS          int64
}

// Pipeline orchestrates one repository's indexing run against a Sink.
type Pipeline struct {
	ctx         context.Context
	Sink        sink.Sink
	RepoPath    string
	ProjectName string
	opts        Options
}

// New creates a Pipeline bound to repoPath, writing to the given Sink.
func New(ctx context.Context, s sink.Sink, repoPath string, opts Options) *Pipeline {
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}
	return &Pipeline{
		ctx:         ctx,
		Sink:        s,
		RepoPath:    repoPath,
		ProjectName: ProjectNameFromPath(repoPath),
		opts:        opts,
	}
}

// ProjectNameFromPath derives a stable project identifier from an
// absolute repository path by replacing path separators with dashes.
func ProjectNameFromPath(absPath string) string {
	cleaned := filepath.ToSlash(filepath.Clean(absPath))
	name := strings.ReplaceAll(cleaned, "/", "-")
	name = strings.TrimLeft(name, "-")
	if name == "" {
		return "root"
	}
	return name
}

type parsedFile struct {
	Info   discover.FileInfo
	Tree   *tree_sitter.Tree
	Source []byte
	Spec   *lang.LanguageSpec
}

// Run executes the full pipeline: discovery, structure, definitions (C5),
// import resolution (C4), calls (C6/C7), inherits/implements fix-up, and
// a final flush to the Sink. Definitions for every file complete before
// any call-resolution begins — spec.md's one non-negotiable ordering
// invariant.
func (p *Pipeline) Run() (Summary, error) {
	start := time.Now()
	summary := Summary{
		NodesEmittedByLabel: map[string]int{},
		EdgesEmittedByType:  map[string]int{},
	}

	if err := p.ctx.Err(); err != nil {
		return summary, err
	}

	if p.opts.Clean {
		if deleter, ok := p.Sink.(interface {
			DeleteProject(ctx context.Context, project string) error
		}); ok {
			if err := deleter.DeleteProject(p.ctx, p.ProjectName); err != nil {
				slog.Warn("pipeline.clean.err", "err", err)
			}
		}
	}

	files, err := discover.Discover(p.ctx, p.RepoPath, &discover.Options{MaxFileSize: p.opts.MaxFileSize})
	if err != nil {
		return summary, fmt.Errorf("discover: %w", err)
	}
	files = p.applyFilters(files)
	summary.FilesScanned = len(files)
	slog.Info("pipeline.discovered", "project", p.ProjectName, "files", len(files))

	batch := sink.NewBatch()
	buildStructure(batch, p.ProjectName, files)

	parsedFiles, skipped := p.parseAll(files)
	summary.FilesParsed = len(parsedFiles)
	summary.FilesSkipped += skipped
	defer func() {
		for _, pf := range parsedFiles {
			pf.Tree.Close()
		}
	}()

	// Phase 1: definitions, in parallel, one goroutine per file. Each
	// file's registrations/base-class refs are collected independently
	// and merged after the group completes — the registry must contain
	// every file's symbols before phase 2 starts.
	registry := NewFunctionRegistry()
	var allBaseRefs []baseClassRef
	interfaceQNs := map[string]bool{}

	defResults := make([]definitionResult, len(parsedFiles))
	g, _ := errgroup.WithContext(p.ctx)
	g.SetLimit(p.opts.Concurrency)
	for i, pf := range parsedFiles {
		i, pf := i, pf
		g.Go(func() error {
			defResults[i] = extractDefinitions(batch, pf.Tree.RootNode(), pf.Source, pf.Spec, p.ProjectName, pf.Info.RelPath)
			return p.ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}
	for _, dr := range defResults {
		allBaseRefs = append(allBaseRefs, dr.BaseClasses...)
		for _, reg := range dr.Registrations {
			registry.Register(reg.Name, reg.QualifiedName, reg.Label)
			if reg.IsInterface {
				interfaceQNs[reg.QualifiedName] = true
			}
		}
	}
	slog.Info("pipeline.definitions.done", "registered", registry.Size())

	// Import resolution (C4) and per-file type inference (C6), also
	// parallel — both only read the registry, never write it, so they
	// can run alongside each other but still must finish before calls.
	importMaps := make([]map[string]string, len(parsedFiles))
	typeMaps := make([]TypeMap, len(parsedFiles))
	g, _ = errgroup.WithContext(p.ctx)
	g.SetLimit(p.opts.Concurrency)
	for i, pf := range parsedFiles {
		i, pf := i, pf
		g.Go(func() error {
			moduleQN := fqn.ModuleQN(p.ProjectName, pf.Info.RelPath)
			imports := parseImports(pf.Tree.RootNode(), pf.Source, pf.Spec.Language, p.ProjectName, pf.Info.RelPath)
			importMaps[i] = imports
			typeMaps[i] = inferTypes(pf.Tree.RootNode(), pf.Source, pf.Spec.Language, registry, moduleQN, imports)
			return p.ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	moduleImportMaps := map[string]map[string]string{}
	for i, pf := range parsedFiles {
		moduleQN := fqn.ModuleQN(p.ProjectName, pf.Info.RelPath)
		moduleImportMaps[moduleQN] = importMaps[i]
		emitImportEdges(batch, p.ProjectName, moduleQN, importMaps[i], &summary.UnresolvedImports)
	}

	// Phase 2: calls. Only starts once every goroutine above has
	// returned — the registry, import maps, and type maps are frozen by
	// this point and read-only for the rest of the run.
	callResults := make([]callStats, len(parsedFiles))
	g, _ = errgroup.WithContext(p.ctx)
	g.SetLimit(p.opts.Concurrency)
	for i, pf := range parsedFiles {
		i, pf := i, pf
		g.Go(func() error {
			moduleQN := fqn.ModuleQN(p.ProjectName, pf.Info.RelPath)
			callResults[i] = extractCalls(
				batch, pf.Tree.RootNode(), pf.Source, pf.Spec,
				p.ProjectName, pf.Info.RelPath, registry,
				moduleImportMaps[moduleQN], typeMaps[i],
			)
			return p.ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}
	for _, cr := range callResults {
		summary.UnresolvedCalls += cr.Unresolved
	}

	inheritsFixup(batch, p.ProjectName, allBaseRefs, registry, interfaceQNs, moduleImportMaps)

	for _, n := range batch.Nodes() {
		p.Sink.EnsureNode(n)
		summary.NodesEmittedByLabel[n.Label]++
	}
	for _, e := range batch.Edges() {
		p.Sink.EnsureRelationship(e)
		summary.EdgesEmittedByType[e.Type]++
	}
	if err := p.Sink.Flush(p.ctx); err != nil {
		// One more attempt at writing whatever is still queued; the first
		// error is the one reported either way.
		if retryErr := p.Sink.Flush(p.ctx); retryErr != nil {
			slog.Warn("pipeline.flush.retry_failed", "err", retryErr)
		}
		return summary, fmt.Errorf("flush: %w", err)
	}

	summary.DurationMS = time.Since(start).Milliseconds()
	slog.Info("pipeline.done",
		"project", p.ProjectName, "nodes", batch.Len(), "duration_ms", summary.DurationMS,
		"unresolved_calls", summary.UnresolvedCalls, "unresolved_imports", summary.UnresolvedImports)
	return summary, nil
}

// fileHasher is the subset of Sink capabilities RunIncremental needs;
// SQLiteSink implements it, MemgraphSink does not.
type fileHasher interface {
	FileHash(ctx context.Context, project, relPath string) (string, bool)
	SetFileHash(ctx context.Context, project, relPath, hash string) error
}

// RunIncremental skips the run entirely when every discovered file's
// content hash matches what was stored on the previous run, and persists
// fresh hashes after a full Run otherwise. A sink that can't report file
// hashes (the Memgraph backend) just gets a full Run every time — a full
// run is always a correct answer, incrementality only saves the work.
func (p *Pipeline) RunIncremental() (Summary, error) {
	hasher, ok := p.Sink.(fileHasher)
	if !ok {
		return p.Run()
	}

	files, err := discover.Discover(p.ctx, p.RepoPath, &discover.Options{MaxFileSize: p.opts.MaxFileSize})
	if err != nil {
		return Summary{}, fmt.Errorf("discover: %w", err)
	}
	files = p.applyFilters(files)

	type hashedFile struct {
		relPath string
		hash    string
	}
	var hashed []hashedFile
	changed := false
	for _, f := range files {
		source, err := os.ReadFile(f.Path)
		if err != nil {
			continue // parseAll will hit and log this same error during the real run
		}
		hash := ContentHash(source)
		hashed = append(hashed, hashedFile{relPath: f.RelPath, hash: hash})
		if prior, ok := hasher.FileHash(p.ctx, p.ProjectName, f.RelPath); !ok || prior != hash {
			changed = true
		}
	}

	if !changed && len(files) > 0 {
		slog.Info("pipeline.incremental.unchanged", "project", p.ProjectName, "files", len(files))
		return Summary{FilesScanned: len(files), FilesSkipped: len(files)}, nil
	}

	summary, err := p.Run()
	if err != nil {
		return summary, err
	}
	for _, hf := range hashed {
		if err := hasher.SetFileHash(p.ctx, p.ProjectName, hf.relPath, hf.hash); err != nil {
			slog.Warn("pipeline.incremental.hash_store_failed", "file", hf.relPath, "err", err)
		}
	}
	return summary, nil
}

// parseAll reads and parses every file with tree-sitter, skipping files
// whose content can't be read or parsed rather than aborting the run
// (a single bad file degrades the run, it never crashes it).
func (p *Pipeline) parseAll(files []discover.FileInfo) ([]parsedFile, int) {
	var out []parsedFile
	skipped := 0
	for _, f := range files {
		spec := lang.ForLanguage(f.Language)
		if spec == nil || !spec.Mined() {
			continue // lightweight/classification-only languages have nothing to mine
		}
		source, err := os.ReadFile(f.Path)
		if err != nil {
			slog.Warn("pipeline.read.err", "file", f.RelPath, "err", err)
			skipped++
			continue
		}
		tree, err := parser.Parse(f.Language, source)
		if err != nil {
			slog.Warn("pipeline.parse.err", "file", f.RelPath, "err", err)
			skipped++
			continue
		}
		out = append(out, parsedFile{Info: f, Tree: tree, Source: source, Spec: spec})
	}
	return out, skipped
}

func (p *Pipeline) applyFilters(files []discover.FileInfo) []discover.FileInfo {
	if p.opts.FolderFilter == "" && p.opts.FilePattern == "" {
		return files
	}
	var out []discover.FileInfo
	for _, f := range files {
		if p.opts.FolderFilter != "" {
			if ok, _ := filepath.Match(p.opts.FolderFilter, filepath.Dir(f.RelPath)); !ok {
				continue
			}
		}
		if p.opts.FilePattern != "" {
			if ok, _ := filepath.Match(p.opts.FilePattern, filepath.Base(f.RelPath)); !ok {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}

// ContentHash returns a stable content hash for incremental reindexing,
// using the same non-cryptographic hash the teacher used for its file
// change detection.
func ContentHash(source []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(source))
}
