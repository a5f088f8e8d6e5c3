// Package fqn computes the dot-qualified names that identify every graph
// node (Folder, Module, Class, Function, Method, ...) across the whole
// pipeline, so two passes walking different files at different times agree
// on what to call the same symbol.
package fqn

import (
	"path/filepath"
	"strings"
)

// dotSegments splits a repo-relative path into its qualified-name segments,
// rooted at project — the shared piece of Compute and FolderQN.
func dotSegments(project, relPath string) []string {
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	return append([]string{project}, parts...)
}

// Compute returns the canonical qualified name for a node defined at name
// inside relPath. Format: <project>.<rel_path_parts_dotted>.<name>
// Examples, for a project named "codegraph":
//   - codegraph.internal.pipeline.definitions.extractClass
//   - codegraph.internal.sink.sqlite.SQLiteSink
func Compute(project, relPath, name string) string {
	relPath = strings.TrimSuffix(relPath, filepath.Ext(relPath))
	parts := dotSegments(project, relPath)[1:]

	// Python __init__.py and JS/TS index files name their own directory,
	// not a distinct module — drop the redundant segment.
	if len(parts) > 0 && (parts[len(parts)-1] == "__init__" || parts[len(parts)-1] == "index") {
		parts = parts[:len(parts)-1]
	}

	all := append([]string{project}, parts...)
	if name != "" {
		all = append(all, name)
	}
	return strings.Join(all, ".")
}

// ModuleQN returns the qualified name for a module (a file with no function
// or class name appended), e.g. "codegraph.internal.fqn.fqn".
func ModuleQN(project, relPath string) string {
	return Compute(project, relPath, "")
}

// FolderQN returns the qualified name for a folder, e.g.
// "codegraph.internal.pipeline" for the directory internal/pipeline.
func FolderQN(project, relDir string) string {
	return strings.Join(dotSegments(project, relDir), ".")
}
