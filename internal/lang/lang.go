// Package lang describes, per supported language, which tree-sitter node
// kinds mean "function", "class", "field", "import", "call" and so on, so
// the rest of the pipeline never hardcodes a grammar's vocabulary.
package lang

// Language identifies a supported programming language.
type Language string

const (
	Python     Language = "python"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
	Go         Language = "go"
	Rust       Language = "rust"
	Java       Language = "java"
	CPP        Language = "cpp"
	CSharp     Language = "c-sharp"
	PHP        Language = "php"
	Lua        Language = "lua"
	Scala      Language = "scala"
	Kotlin     Language = "kotlin"
	Ruby       Language = "ruby"
	Bash       Language = "bash"
	C          Language = "c"
	CSS        Language = "css"
	HTML       Language = "html"
	HCL        Language = "hcl"
	TOML       Language = "toml"
	YAML       Language = "yaml"
	Zig        Language = "zig"
	ObjC       Language = "objc"
	OCaml      Language = "ocaml"
	Elixir     Language = "elixir"
	Haskell    Language = "haskell"
	JSON       Language = "json" // classification only, no grammar/LanguageSpec
)

// AllLanguages returns every language with a full, mined LanguageSpec —
// i.e. the ones exercising C5/C6/C7 (definitions, types, calls), as
// opposed to the lightweight module-only registrations in lightweight.go.
func AllLanguages() []Language {
	return []Language{
		Python, JavaScript, TypeScript, TSX, Go, Rust, Java, CPP, CSharp,
		PHP, Lua, Scala, Kotlin, Ruby,
	}
}

// LanguageSpec describes the tree-sitter node kinds a language's grammar
// uses to express the concepts the extraction pipeline cares about. A
// language that only needs classification (Module nodes, package
// indicators) but no definition mining leaves the mining fields nil —
// see Mined().
type LanguageSpec struct {
	Language       Language
	FileExtensions []string

	// Mining fields — nil/empty means "classify and parse, but don't mine
	// definitions/calls/imports from this language" (a lightweight entry).
	FunctionNodeTypes []string
	ClassNodeTypes    []string
	FieldNodeTypes    []string // struct/class member declarations
	VariableNodeTypes []string // module-level const/var/let bindings
	ModuleNodeTypes   []string // the grammar's root/translation-unit kind
	CallNodeTypes     []string
	ImportNodeTypes   []string
	ImportFromTypes   []string // "from X import Y" style statements, if distinct

	// BaseClassField, when set, is the AST field name under a class node
	// that holds its superclass/interface list (used by the INHERITS /
	// IMPLEMENTS fix-up pass). Empty means the language has no such field
	// and inheritance is mined structurally instead (e.g. Go embedding,
	// Rust impl-trait-for).
	BaseClassField string

	PackageIndicators []string // file names marking a package/module root
}

// Mined reports whether this spec is wired for definition/call mining
// (a "full" language) as opposed to classification only.
func (s *LanguageSpec) Mined() bool {
	return s != nil && len(s.FunctionNodeTypes) > 0
}

var registry = map[string]*LanguageSpec{}

// Register adds a LanguageSpec to the global registry, keyed by every
// file extension it claims.
func Register(spec *LanguageSpec) {
	for _, ext := range spec.FileExtensions {
		registry[ext] = spec
	}
}

// ForExtension returns the LanguageSpec registered for a file extension
// (e.g. ".go"), or nil if none is registered.
func ForExtension(ext string) *LanguageSpec {
	return registry[ext]
}

// ForLanguage returns the LanguageSpec for a Language, or nil.
func ForLanguage(l Language) *LanguageSpec {
	for _, spec := range registry {
		if spec.Language == l {
			return spec
		}
	}
	return nil
}

// LanguageForExtension returns the Language registered for an extension.
func LanguageForExtension(ext string) (Language, bool) {
	spec := registry[ext]
	if spec == nil {
		return "", false
	}
	return spec.Language, true
}
