package lang

func init() {
	Register(&LanguageSpec{
		Language:       CSharp,
		FileExtensions: []string{".cs"},
		FunctionNodeTypes: []string{
			"method_declaration",
			"constructor_declaration",
			"local_function_statement",
		},
		ClassNodeTypes: []string{
			"class_declaration",
			"interface_declaration",
			"struct_declaration",
			"record_declaration",
			"enum_declaration",
		},
		FieldNodeTypes:    []string{"field_declaration", "property_declaration"},
		VariableNodeTypes: []string{"local_declaration_statement"},
		ModuleNodeTypes:   []string{"compilation_unit", "namespace_declaration", "file_scoped_namespace_declaration"},
		CallNodeTypes:     []string{"invocation_expression", "object_creation_expression"},
		ImportNodeTypes:   []string{"using_directive"},
		ImportFromTypes:   []string{"using_directive"},
		BaseClassField:    "bases",
	})
}
