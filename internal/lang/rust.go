package lang

// Rust has no BaseClassField: trait implementation isn't expressed on the
// struct/enum node at all, it's a separate `impl Trait for Type` item.
// extractRustImplBlock (internal/pipeline/definitions.go) mines that
// relationship structurally from impl_item's own "trait"/"type" fields
// instead of going through the generic BaseClassField path.
func init() {
	Register(&LanguageSpec{
		Language:       Rust,
		FileExtensions: []string{".rs"},
		FunctionNodeTypes: []string{
			"function_item",
			"function_signature_item",
			"closure_expression",
		},
		ClassNodeTypes: []string{
			"struct_item",
			"enum_item",
			"union_item",
			"trait_item",
			"impl_item",
			"type_item",
		},
		FieldNodeTypes:    []string{"field_declaration"},
		VariableNodeTypes: []string{"let_declaration", "const_item", "static_item"},
		ModuleNodeTypes:   []string{"source_file", "mod_item"},
		CallNodeTypes:     []string{"call_expression", "macro_invocation"},
		ImportNodeTypes:   []string{"use_declaration", "extern_crate_declaration"},
		ImportFromTypes:   []string{"use_declaration"},
		PackageIndicators: []string{"Cargo.toml"},
	})
}
