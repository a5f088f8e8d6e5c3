package lang

// Lightweight language registrations: grammars that are registered with the
// Parser Registry and contribute Module nodes (C3) to the graph, but whose
// mining fields are left empty — no Class/Function/Call extraction runs for
// them. This keeps every tree-sitter grammar in go.mod genuinely imported
// and registered (parser.Parse accepts these languages, and the structure
// builder emits File and Module nodes for their files; the pipeline does
// not parse them during a run) without pretending a shell
// script or stylesheet has "functions" and "classes" in the sense the rest
// of the pipeline cares about.
func init() {
	Register(&LanguageSpec{
		Language:        Bash,
		FileExtensions:  []string{".sh", ".bash"},
		ModuleNodeTypes: []string{"program"},
	})
	Register(&LanguageSpec{
		Language:        C,
		FileExtensions:  []string{".c", ".h"},
		ModuleNodeTypes: []string{"translation_unit"},
	})
	Register(&LanguageSpec{
		Language:        CSS,
		FileExtensions:  []string{".css"},
		ModuleNodeTypes: []string{"stylesheet"},
	})
	Register(&LanguageSpec{
		Language:        HTML,
		FileExtensions:  []string{".html", ".htm"},
		ModuleNodeTypes: []string{"document"},
	})
	Register(&LanguageSpec{
		Language:        HCL,
		FileExtensions:  []string{".hcl", ".tf"},
		ModuleNodeTypes: []string{"config_file"},
	})
	Register(&LanguageSpec{
		Language:        TOML,
		FileExtensions:  []string{".toml"},
		ModuleNodeTypes: []string{"document"},
	})
	Register(&LanguageSpec{
		Language:        YAML,
		FileExtensions:  []string{".yaml", ".yml"},
		ModuleNodeTypes: []string{"stream"},
	})
	Register(&LanguageSpec{
		Language:        Zig,
		FileExtensions:  []string{".zig"},
		ModuleNodeTypes: []string{"source_file"},
	})
	Register(&LanguageSpec{
		Language:        ObjC,
		FileExtensions:  []string{".m", ".mm"},
		ModuleNodeTypes: []string{"translation_unit"},
	})
	Register(&LanguageSpec{
		Language:        OCaml,
		FileExtensions:  []string{".ml"},
		ModuleNodeTypes: []string{"compilation_unit"},
	})
	Register(&LanguageSpec{
		Language:        Elixir,
		FileExtensions:  []string{".ex", ".exs"},
		ModuleNodeTypes: []string{"source"},
	})
	Register(&LanguageSpec{
		Language:        Haskell,
		FileExtensions:  []string{".hs"},
		ModuleNodeTypes: []string{"haskell"},
	})
}
