package lang

func init() {
	Register(&LanguageSpec{
		Language:       CPP,
		FileExtensions: []string{".cpp", ".hpp", ".cc", ".cxx", ".hxx", ".hh", ".ixx", ".cppm", ".ccm"},
		FunctionNodeTypes: []string{
			"function_definition",
		},
		ClassNodeTypes: []string{
			"class_specifier",
			"struct_specifier",
			"union_specifier",
			"enum_specifier",
		},
		FieldNodeTypes:    []string{"field_declaration"},
		VariableNodeTypes: []string{"declaration"},
		ModuleNodeTypes: []string{
			"translation_unit",
			"namespace_definition",
		},
		CallNodeTypes:     []string{"call_expression", "new_expression"},
		ImportNodeTypes:   []string{"preproc_include"},
		ImportFromTypes:   []string{"preproc_include"},
		BaseClassField:    "base_class_clause",
		PackageIndicators: []string{"CMakeLists.txt", "Makefile", "conanfile.txt"},
	})
}
