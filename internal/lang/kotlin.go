package lang

func init() {
	Register(&LanguageSpec{
		Language:       Kotlin,
		FileExtensions: []string{".kt", ".kts"},
		FunctionNodeTypes: []string{
			"function_declaration",
		},
		ClassNodeTypes: []string{
			"class_declaration",
			"object_declaration",
		},
		FieldNodeTypes:    []string{"property_declaration"},
		VariableNodeTypes: []string{"property_declaration"},
		ModuleNodeTypes:   []string{"source_file"},
		CallNodeTypes:     []string{"call_expression"},
		ImportNodeTypes:   []string{"import_header"},
		ImportFromTypes:   []string{"import_header"},
		BaseClassField:    "delegation_specifiers",
		PackageIndicators: []string{"build.gradle.kts"},
	})
}
