package lang

func init() {
	Register(&LanguageSpec{
		Language:          Scala,
		FileExtensions:    []string{".scala", ".sc"},
		FunctionNodeTypes: []string{"function_definition", "function_declaration"},
		ClassNodeTypes: []string{
			"class_definition",
			"object_definition",
			"trait_definition",
		},
		VariableNodeTypes: []string{"val_definition", "var_definition", "val_declaration", "var_declaration"},
		ModuleNodeTypes:   []string{"compilation_unit"},
		CallNodeTypes:     []string{"call_expression", "generic_function"},
		ImportNodeTypes:   []string{"import_declaration"},
		ImportFromTypes:   []string{"import_declaration"},
		BaseClassField:    "class_parents",
		PackageIndicators: []string{"build.sbt"},
	})
}
