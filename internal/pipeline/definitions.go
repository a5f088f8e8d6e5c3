package pipeline

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codegraph-dev/codegraph/internal/fqn"
	"github.com/codegraph-dev/codegraph/internal/lang"
	"github.com/codegraph-dev/codegraph/internal/parser"
	"github.com/codegraph-dev/codegraph/internal/sink"
)

// baseClassRef is a deferred INHERITS/IMPLEMENTS candidate: classQN extends
// a type named by the raw source text baseName, to be resolved against the
// registry once every file's definitions pass has run (spec.md §5 phase
// barrier).
type baseClassRef struct {
	ClassQN  string
	BaseName string
}

// definitionResult is everything extractDefinitions mines from one file's
// AST: the nodes/edges to stage, the registrations to feed the
// FunctionRegistry (C7), and deferred base-class references (for the
// inherits fix-up pass).
type definitionResult struct {
	BaseClasses []baseClassRef
	Registrations []registration
}

type registration struct {
	Name, QualifiedName, Label string
	// IsInterface marks a Class registration sourced from an
	// interface/trait/protocol-shaped node kind, so the inherits fix-up
	// pass can tell IMPLEMENTS from INHERITS without re-parsing.
	IsInterface bool
}

// interfaceNodeKinds are the class-type node kinds that represent an
// interface/trait/protocol rather than a concrete class, across the
// mined languages' grammars.
var interfaceNodeKinds = map[string]bool{
	"interface_declaration": true,
	"trait_declaration":     true,
	"trait_item":            true, // Rust
}

// extractDefinitions (C5) walks one file's AST once, emitting Class,
// Function, Method, and Field nodes plus their DEFINES /
// DEFINES_METHOD / DEFINES_FIELD edges from the enclosing Module/Class.
// Variable bindings (the spec's VariableNodeTypes) are not mined.
func extractDefinitions(
	batch *sink.Batch,
	root *tree_sitter.Node,
	source []byte,
	spec *lang.LanguageSpec,
	project, relPath string,
) definitionResult {
	result := definitionResult{}
	if !spec.Mined() {
		return result
	}
	moduleQN := fqn.ModuleQN(project, relPath)

	classTypes := toSet(spec.ClassNodeTypes)
	funcTypes := toSet(spec.FunctionNodeTypes)
	fieldTypes := toSet(spec.FieldNodeTypes)

	parser.Walk(root, func(node *tree_sitter.Node) bool {
		switch {
		case classTypes[node.Kind()]:
			extractClass(batch, &result, node, source, spec, project, relPath, moduleQN, fieldTypes, funcTypes)
			return false // the class's own functions/fields are mined by extractClass
		case funcTypes[node.Kind()]:
			extractTopLevelFunction(batch, &result, node, source, spec, project, relPath, moduleQN)
			return false
		}
		return true
	})

	return result
}

func extractClass(
	batch *sink.Batch, result *definitionResult,
	node *tree_sitter.Node, source []byte, spec *lang.LanguageSpec,
	project, relPath, moduleQN string, fieldTypes, funcTypes map[string]bool,
) {
	// Rust's impl_item has no "name" field of its own — it names a "type"
	// (and, for trait impls, a "trait") instead. The struct/enum/trait it's
	// for already got its Class node from its own item; join onto that by
	// name rather than falling through to the generic nameNode path below.
	if spec.Language == lang.Rust && node.Kind() == "impl_item" {
		extractRustImplBlock(batch, result, node, source, project, relPath, funcTypes)
		return
	}

	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	className := parser.NodeText(nameNode, source)
	classQN := fqn.Compute(project, relPath, className)

	batch.Add(sink.Node{
		Project: project, Label: "Class", Name: className, QualifiedName: classQN,
		FilePath: relPath,
		StartLine: int(node.StartPosition().Row) + 1, EndLine: int(node.EndPosition().Row) + 1,
	})
	batch.AddEdge(sink.Edge{Project: project, SourceQN: moduleQN, TargetQN: classQN, Type: "DEFINES"})
	result.Registrations = append(result.Registrations, registration{
		Name: className, QualifiedName: classQN, Label: "Class",
		IsInterface: interfaceNodeKinds[node.Kind()],
	})

	for _, baseName := range extractBaseClassNames(node, source, spec) {
		result.BaseClasses = append(result.BaseClasses, baseClassRef{ClassQN: classQN, BaseName: baseName})
	}

	bodyNode := classBodyNode(node)
	if bodyNode == nil {
		return
	}
	parser.Walk(bodyNode, func(child *tree_sitter.Node) bool {
		switch {
		case funcTypes[child.Kind()]:
			extractMethod(batch, result, child, source, project, relPath, classQN)
			return false
		case fieldTypes[child.Kind()]:
			extractField(batch, child, source, project, relPath, classQN)
			return false
		}
		return true
	})
}

// classBodyNode finds the node kind field holding a class's members. Most
// grammars put it directly in a "body" field; Go's type_spec instead
// nests it one level down, under "type" (a struct_type/interface_type
// that itself has a "body" field).
func classBodyNode(node *tree_sitter.Node) *tree_sitter.Node {
	if body := node.ChildByFieldName("body"); body != nil {
		return body
	}
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		if body := typeNode.ChildByFieldName("body"); body != nil {
			return body
		}
		return typeNode
	}
	return nil
}

// extractRustImplBlock mines methods out of an `impl Type { ... }` or
// `impl Trait for Type { ... }` block. impl_item never defines a new
// type — fmt/new/etc. belong to whatever type the impl names — so this
// joins onto that type's existing class QN by name instead of emitting a
// second Class node, and records an IMPLEMENTS candidate when the impl
// targets a trait.
func extractRustImplBlock(
	batch *sink.Batch, result *definitionResult,
	node *tree_sitter.Node, source []byte,
	project, relPath string, funcTypes map[string]bool,
) {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return
	}
	typeName := rustImplTargetName(typeNode, source)
	if typeName == "" {
		return
	}
	classQN := fqn.Compute(project, relPath, typeName)

	if traitNode := node.ChildByFieldName("trait"); traitNode != nil {
		if traitName := rustImplTargetName(traitNode, source); traitName != "" {
			result.BaseClasses = append(result.BaseClasses, baseClassRef{ClassQN: classQN, BaseName: traitName})
		}
	}

	bodyNode := node.ChildByFieldName("body")
	if bodyNode == nil {
		return
	}
	parser.Walk(bodyNode, func(child *tree_sitter.Node) bool {
		if funcTypes[child.Kind()] {
			extractMethod(batch, result, child, source, project, relPath, classQN)
			return false
		}
		return true
	})
}

// rustImplTargetName pulls the bare type_identifier out of an impl
// block's "type" or "trait" field, stripping generics/references
// (e.g. "Point" from "Point<T>" or "&Point").
func rustImplTargetName(node *tree_sitter.Node, source []byte) string {
	switch node.Kind() {
	case "type_identifier", "identifier":
		return parser.NodeText(node, source)
	}
	var found string
	parser.Walk(node, func(child *tree_sitter.Node) bool {
		if child.Kind() == "type_identifier" {
			if found == "" {
				found = parser.NodeText(child, source)
			}
			return false
		}
		return found == ""
	})
	return found
}

func extractMethod(
	batch *sink.Batch, result *definitionResult,
	node *tree_sitter.Node, source []byte, project, relPath, classQN string,
) {
	methodName := functionOrMethodName(node, source)
	if methodName == "" {
		return
	}
	methodQN := classQN + "." + methodName

	batch.Add(sink.Node{
		Project: project, Label: "Method", Name: methodName, QualifiedName: methodQN,
		FilePath: relPath,
		StartLine: int(node.StartPosition().Row) + 1, EndLine: int(node.EndPosition().Row) + 1,
	})
	batch.AddEdge(sink.Edge{Project: project, SourceQN: classQN, TargetQN: methodQN, Type: "DEFINES_METHOD"})
	result.Registrations = append(result.Registrations, registration{Name: methodName, QualifiedName: methodQN, Label: "Method"})
}

func extractField(batch *sink.Batch, node *tree_sitter.Node, source []byte, project, relPath, classQN string) {
	name := extractFieldName(node, source)
	if name == "" {
		return
	}
	fieldQN := classQN + "." + name
	batch.Add(sink.Node{
		Project: project, Label: "Field", Name: name, QualifiedName: fieldQN, FilePath: relPath,
	})
	batch.AddEdge(sink.Edge{Project: project, SourceQN: classQN, TargetQN: fieldQN, Type: "DEFINES_FIELD"})
}

// extractFieldName reads a direct "name" field when the node has one, and
// otherwise takes the first field_identifier/identifier found under it
// (the "declarator" shape of Go/C++/Java/C# field_declaration).
func extractFieldName(node *tree_sitter.Node, source []byte) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return parser.NodeText(nameNode, source)
	}
	var found string
	parser.Walk(node, func(child *tree_sitter.Node) bool {
		switch child.Kind() {
		case "field_identifier", "identifier":
			if found == "" {
				found = parser.NodeText(child, source)
			}
			return false
		}
		return found == ""
	})
	return found
}

func extractTopLevelFunction(
	batch *sink.Batch, result *definitionResult,
	node *tree_sitter.Node, source []byte, spec *lang.LanguageSpec,
	project, relPath, moduleQN string,
) {
	// A Go method_declaration has a receiver and belongs to its receiver
	// type, not directly to the module.
	if spec.Language == lang.Go {
		if recv := node.ChildByFieldName("receiver"); recv != nil {
			_, typeName := parseGoReceiverType(node, source)
			if typeName != "" {
				classQN := fqn.Compute(project, relPath, typeName)
				extractMethod(batch, result, node, source, project, relPath, classQN)
				return
			}
		}
	}

	// A C++ out-of-class method definition ("int Calculator::add(...)")
	// names its enclosing class through a qualified_identifier declarator;
	// function_definition has no "name" field of its own to fall back on.
	if spec.Language == lang.CPP {
		if scope, name := cppFunctionDeclaratorName(node, source); scope != "" && name != "" {
			classQN := fqn.Compute(project, relPath, scope)
			extractMethod(batch, result, node, source, project, relPath, classQN)
			return
		}
	}

	funcName := functionOrMethodName(node, source)
	if funcName == "" {
		return // anonymous function expression with no binding; nothing to register
	}
	funcQN := fqn.Compute(project, relPath, funcName)

	batch.Add(sink.Node{
		Project: project, Label: "Function", Name: funcName, QualifiedName: funcQN, FilePath: relPath,
		StartLine: int(node.StartPosition().Row) + 1, EndLine: int(node.EndPosition().Row) + 1,
	})
	batch.AddEdge(sink.Edge{Project: project, SourceQN: moduleQN, TargetQN: funcQN, Type: "DEFINES"})
	result.Registrations = append(result.Registrations, registration{Name: funcName, QualifiedName: funcQN, Label: "Function"})
}

// functionOrMethodName returns a function/method node's name, trying the
// common "name" field first and falling back to C++'s nested declarator
// shape, since C++'s function_definition carries no "name" field at all.
func functionOrMethodName(node *tree_sitter.Node, source []byte) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return parser.NodeText(nameNode, source)
	}
	_, name := cppFunctionDeclaratorName(node, source)
	return name
}

// cppFunctionDeclaratorName descends a C++ function_definition's declarator
// chain (through pointer/reference/function wrappers) to the identifier
// naming it, splitting a qualified out-of-class definition's scope (e.g.
// "Calculator" in "Calculator::add(...)") from its own name. scope is ""
// for a free function or an in-class member definition.
func cppFunctionDeclaratorName(node *tree_sitter.Node, source []byte) (scope, name string) {
	cur := node.ChildByFieldName("declarator")
	for cur != nil {
		switch cur.Kind() {
		case "function_declarator", "pointer_declarator", "reference_declarator":
			cur = cur.ChildByFieldName("declarator")
		case "qualified_identifier":
			if scopeNode := cur.ChildByFieldName("scope"); scopeNode != nil {
				scope = parser.NodeText(scopeNode, source)
			}
			if nameNode := cur.ChildByFieldName("name"); nameNode != nil {
				name = parser.NodeText(nameNode, source)
			}
			return
		case "identifier", "field_identifier", "destructor_name", "operator_name":
			name = parser.NodeText(cur, source)
			return
		default:
			return
		}
	}
	return
}

// extractBaseClassNames reads the language's BaseClassField (if any) from a
// class node and splits it into individual base-type names.
func extractBaseClassNames(node *tree_sitter.Node, source []byte, spec *lang.LanguageSpec) []string {
	if spec.BaseClassField == "" {
		return nil
	}
	field := node.ChildByFieldName(spec.BaseClassField)
	if field == nil {
		return nil
	}
	var names []string
	parser.Walk(field, func(child *tree_sitter.Node) bool {
		switch child.Kind() {
		case "identifier", "type_identifier", "scoped_type_identifier":
			names = append(names, parser.NodeText(child, source))
			return false
		case "attribute", "call", "keyword_argument": // Python dotted/call bases and keyword args, e.g. metaclass=...
			return false
		}
		return true
	})
	if len(names) == 0 {
		// Fallback: strip the field's own punctuation/keywords and split on commas.
		text := strings.Trim(parser.NodeText(field, source), "(): ")
		for _, part := range strings.Split(text, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				names = append(names, part)
			}
		}
	}
	return names
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}
