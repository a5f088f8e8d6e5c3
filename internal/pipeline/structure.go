package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/codegraph-dev/codegraph/internal/discover"
	"github.com/codegraph-dev/codegraph/internal/fqn"
	"github.com/codegraph-dev/codegraph/internal/lang"
	"github.com/codegraph-dev/codegraph/internal/sink"
)

// buildStructure (C3) materializes the Project -> Folder/Package -> File ->
// Module skeleton for every discovered file, in one pass, before any
// per-file AST walk runs. It also detects "package roots" — directories
// containing one of a language's PackageIndicators (e.g. __init__.py,
// Cargo.toml) — and emits a Package node instead of a plain Folder node
// for those directories, linked with CONTAINS_PACKAGE/SUBPACKAGE instead
// of CONTAINS_FOLDER.
func buildStructure(batch *sink.Batch, project string, files []discover.FileInfo) {
	batch.Add(sink.Node{Project: project, Label: "Project", Name: project, QualifiedName: project})

	packageRoots := detectPackageRoots(files)

	emittedDirs := map[string]bool{"": true} // "" == project root, already emitted
	for _, f := range files {
		dir := filepath.Dir(f.RelPath)
		if dir == "." {
			dir = ""
		}
		ensureDirChain(batch, project, dir, packageRoots, emittedDirs)

		fileQN := "file:" + f.RelPath // internal identity only, never exposed as a callable QN
		moduleQN := fqn.ModuleQN(project, f.RelPath)

		batch.Add(sink.Node{
			Project:       project,
			Label:         "File",
			Name:          filepath.Base(f.RelPath),
			QualifiedName: fileQN,
			FilePath:      f.RelPath,
			Properties:    map[string]any{"language": string(f.Language)},
		})
		linkContainment(batch, project, dir, fileQN, "File", packageRoots)

		batch.Add(sink.Node{
			Project:       project,
			Label:         "Module",
			Name:          moduleName(f.RelPath),
			QualifiedName: moduleQN,
			FilePath:      f.RelPath,
		})
		batch.AddEdge(sink.Edge{Project: project, SourceQN: fileQN, TargetQN: moduleQN, Type: "CONTAINS_MODULE"})
	}
}

func moduleName(relPath string) string {
	base := filepath.Base(relPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ensureDirChain walks from the project root down to dir, emitting a
// Folder or Package node (and its containment edge from its parent) for
// every path segment not already emitted.
func ensureDirChain(batch *sink.Batch, project, dir string, packageRoots map[string]bool, emitted map[string]bool) {
	if emitted[dir] {
		return
	}
	parent := filepath.Dir(dir)
	if parent == "." {
		parent = ""
	}
	ensureDirChain(batch, project, parent, packageRoots, emitted)

	qn := fqn.FolderQN(project, dir)
	label := "Folder"
	if packageRoots[dir] {
		label = "Package"
	}
	batch.Add(sink.Node{
		Project:       project,
		Label:         label,
		Name:          filepath.Base(dir),
		QualifiedName: qn,
	})
	linkContainment(batch, project, parent, qn, label, packageRoots)
	emitted[dir] = true
}

// linkContainment emits the correct CONTAINS_* edge from parentDir to a
// child node, choosing SUBPACKAGE when both ends are packages.
func linkContainment(batch *sink.Batch, project, parentDir, childQN, childLabel string, packageRoots map[string]bool) {
	parentQN := project
	if parentDir != "" {
		parentQN = fqn.FolderQN(project, parentDir)
	}

	edgeType := "CONTAINS_" + strings.ToUpper(childLabel)
	if childLabel == "Package" && packageRoots[parentDir] {
		edgeType = "CONTAINS_SUBPACKAGE"
	}
	batch.AddEdge(sink.Edge{Project: project, SourceQN: parentQN, TargetQN: childQN, Type: edgeType})
}

// detectPackageRoots returns the set of relative directories that contain a
// PackageIndicator file for some registered language.
func detectPackageRoots(files []discover.FileInfo) map[string]bool {
	indicatorsByDir := map[string]bool{}
	baseNames := map[string]bool{}
	for _, l := range lang.AllLanguages() {
		spec := lang.ForLanguage(l)
		if spec == nil {
			continue
		}
		for _, ind := range spec.PackageIndicators {
			baseNames[ind] = true
		}
	}
	for _, f := range files {
		if baseNames[filepath.Base(f.RelPath)] {
			dir := filepath.Dir(f.RelPath)
			if dir == "." {
				dir = ""
			}
			indicatorsByDir[dir] = true
		}
	}
	return indicatorsByDir
}
