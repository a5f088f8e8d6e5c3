package pipeline

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codegraph-dev/codegraph/internal/fqn"
	"github.com/codegraph-dev/codegraph/internal/lang"
	"github.com/codegraph-dev/codegraph/internal/parser"
	"github.com/codegraph-dev/codegraph/internal/sink"
)

// callStats summarizes the outcome of one file's call-resolution walk, fed
// into the orchestrator's Summary (SPEC_FULL.md §6).
type callStats struct {
	Resolved, Unresolved int
}

// extractCalls (C6/C7) walks a file's AST a second time — only after every
// file's definitions have been registered (the phase barrier spec.md §5
// requires) — resolving each call expression's callee to a qualified name
// via the FunctionRegistry and emitting CALLS edges. Every edge targets a
// registered definition: an unresolved callee is counted and dropped,
// never emitted toward an external target. A last-resort match from
// FuzzyResolve is emitted with resolution_mode "fuzzy".
func extractCalls(
	batch *sink.Batch,
	root *tree_sitter.Node,
	source []byte,
	spec *lang.LanguageSpec,
	project, relPath string,
	registry *FunctionRegistry,
	importMap map[string]string,
	typeMap TypeMap,
) callStats {
	stats := callStats{}
	if !spec.Mined() || len(spec.CallNodeTypes) == 0 {
		return stats
	}
	moduleQN := fqn.ModuleQN(project, relPath)
	callTypes := toSet(spec.CallNodeTypes)
	funcTypes := toSet(spec.FunctionNodeTypes)

	parser.Walk(root, func(node *tree_sitter.Node) bool {
		if !callTypes[node.Kind()] {
			return true
		}

		calleeName := extractCalleeName(node, source, spec.Language)
		if calleeName == "" {
			return true
		}

		callerQN := enclosingCallableQN(node, source, funcTypes, project, relPath, spec)
		if callerQN == "" {
			// Top-level call outside any function/method: attribute it to the
			// module itself so it still shows up as a project dependency.
			callerQN = moduleQN
		}

		effectiveTypeMap := extendTypeMapWithReceiver(node, source, typeMap, spec, project, relPath, registry, importMap)

		targetQN := resolveCallWithTypes(calleeName, moduleQN, importMap, effectiveTypeMap, registry)
		resolutionMode := "exact"
		if targetQN == "" && spec.Language == lang.Lua {
			if idx := strings.LastIndex(calleeName, ":"); idx >= 0 {
				if candidates := registry.FindByColonMethod(calleeName[idx+1:]); len(candidates) == 1 {
					targetQN = candidates[0]
					resolutionMode = "method-dispatch"
				}
			}
		}
		if targetQN == "" {
			if fuzzy, ok := registry.FuzzyResolve(calleeName, moduleQN); ok {
				targetQN = fuzzy
				resolutionMode = "fuzzy"
			}
		}

		if targetQN == "" || targetQN == callerQN {
			stats.Unresolved++
			return true
		}

		batch.AddEdge(sink.Edge{
			Project: project, SourceQN: callerQN, TargetQN: targetQN, Type: "CALLS",
			Properties: map[string]any{"resolution_mode": resolutionMode},
		})
		stats.Resolved++
		return true
	})

	return stats
}

// enclosingCallableQN walks up from a call node to the nearest enclosing
// function/method declaration and returns its qualified name, mirroring
// the same receiver-aware QN computation used for Go methods in
// extractTopLevelFunction.
func enclosingCallableQN(
	node *tree_sitter.Node, source []byte, funcTypes map[string]bool,
	project, relPath string, spec *lang.LanguageSpec,
) string {
	enclosing := findEnclosingFuncNode(node, funcTypes)
	if enclosing == nil {
		return ""
	}
	if spec.Language == lang.Go {
		if recv := enclosing.ChildByFieldName("receiver"); recv != nil {
			_, typeName := parseGoReceiverType(enclosing, source)
			nameNode := enclosing.ChildByFieldName("name")
			if typeName != "" && nameNode != nil {
				classQN := fqn.Compute(project, relPath, typeName)
				return classQN + "." + parser.NodeText(nameNode, source)
			}
		}
	}
	// Method inside a class body: find the class ancestor too.
	if classQN := enclosingClassQN(enclosing, source, spec, project, relPath); classQN != "" {
		if name := functionOrMethodName(enclosing, source); name != "" {
			return classQN + "." + name
		}
	}
	// A C++ out-of-class method definition names its class through its own
	// declarator rather than a class-body ancestor.
	if spec.Language == lang.CPP {
		if scope, name := cppFunctionDeclaratorName(enclosing, source); scope != "" && name != "" {
			return fqn.Compute(project, relPath, scope) + "." + name
		}
	}
	name := functionOrMethodName(enclosing, source)
	if name == "" {
		return ""
	}
	return fqn.Compute(project, relPath, name)
}

// enclosingClassQN walks up from a method node to the nearest ancestor
// whose kind is one of the language's ClassNodeTypes, generalizing
// findEnclosingClassQN (which only recognizes Python's class_definition)
// to every mined language.
func enclosingClassQN(node *tree_sitter.Node, source []byte, spec *lang.LanguageSpec, project, relPath string) string {
	classTypes := toSet(spec.ClassNodeTypes)
	current := node.Parent()
	for current != nil {
		if classTypes[current.Kind()] {
			if nameNode := current.ChildByFieldName("name"); nameNode != nil {
				return fqn.Compute(project, relPath, parser.NodeText(nameNode, source))
			}
		}
		current = current.Parent()
	}
	return ""
}

// extendTypeMapWithReceiver augments the type map with the Go receiver
// variable from the enclosing method declaration, if applicable, without
// mutating the shared per-file TypeMap.
func extendTypeMapWithReceiver(
	node *tree_sitter.Node, source []byte, typeMap TypeMap,
	spec *lang.LanguageSpec, project, relPath string,
	registry *FunctionRegistry, importMap map[string]string,
) TypeMap {
	if spec.Language != lang.Go {
		return typeMap
	}
	funcTypes := toSet(spec.FunctionNodeTypes)
	enclosing := findEnclosingFuncNode(node, funcTypes)
	if enclosing == nil {
		return typeMap
	}
	varName, typeName := parseGoReceiverType(enclosing, source)
	if varName == "" || typeName == "" {
		return typeMap
	}
	moduleQN := fqn.ModuleQN(project, relPath)
	classQN := resolveAsClass(typeName, registry, moduleQN, importMap)
	if classQN == "" {
		return typeMap
	}
	extended := make(TypeMap, len(typeMap)+1)
	for k, v := range typeMap {
		extended[k] = v
	}
	extended[varName] = classQN
	return extended
}

// resolveCallWithTypes resolves a callee name using type-based method
// dispatch first (obj.method() where obj's type is known), falling back
// to the registry's Resolve ladder (import map, module, simple name).
func resolveCallWithTypes(
	calleeName, moduleQN string, importMap map[string]string, typeMap TypeMap, registry *FunctionRegistry,
) string {
	if strings.Contains(calleeName, ".") {
		parts := strings.SplitN(calleeName, ".", 2)
		objName, methodName := parts[0], parts[1]
		if classQN, ok := typeMap[objName]; ok {
			candidate := classQN + "." + methodName
			if registry.Exists(candidate) {
				return candidate
			}
		}
	}
	return registry.Resolve(calleeName, moduleQN, importMap)
}

// extractCalleeName extracts a callee's dotted name from a call-shaped
// node, trying progressively more language-specific field layouts.
func extractCalleeName(node *tree_sitter.Node, source []byte, language lang.Language) string {
	if name := extractCalleeFromFunctionField(node, source); name != "" {
		return name
	}
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return parser.NodeText(nameNode, source)
	}
	if name := extractCalleeFromMethodField(node, source); name != "" {
		return name
	}
	return extractCalleeLanguageSpecific(node, source, language)
}

func extractCalleeFromFunctionField(node *tree_sitter.Node, source []byte) string {
	funcNode := node.ChildByFieldName("function")
	if funcNode == nil {
		return ""
	}
	switch funcNode.Kind() {
	case "identifier", "simple_identifier",
		"selector_expression", "attribute", "member_expression",
		"field_expression", "scoped_identifier":
		return parser.NodeText(funcNode, source)
	}
	return ""
}

// extractCalleeFromMethodField extracts the callee from Ruby-style
// method+receiver fields (a bare "require" call has no receiver).
func extractCalleeFromMethodField(node *tree_sitter.Node, source []byte) string {
	methodNode := node.ChildByFieldName("method")
	if methodNode == nil {
		return ""
	}
	if receiver := node.ChildByFieldName("receiver"); receiver != nil {
		return parser.NodeText(receiver, source) + "." + parser.NodeText(methodNode, source)
	}
	return parser.NodeText(methodNode, source)
}

// extractCalleeLanguageSpecific covers call shapes the generic field
// lookups above miss: Kotlin's call_expression / navigation_expression
// wraps its callee as an unnamed first child rather than a "function"
// field.
func extractCalleeLanguageSpecific(node *tree_sitter.Node, source []byte, language lang.Language) string {
	if language != lang.Kotlin {
		return ""
	}
	if node.Kind() == "call_expression" || node.Kind() == "navigation_expression" {
		if first := node.NamedChild(0); first != nil {
			switch first.Kind() {
			case "identifier", "navigation_expression", "simple_identifier":
				return parser.NodeText(first, source)
			}
		}
	}
	return ""
}
