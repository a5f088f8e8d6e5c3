package lang

func init() {
	Register(&LanguageSpec{
		Language:          Lua,
		FileExtensions:    []string{".lua"},
		FunctionNodeTypes: []string{"function_declaration", "function_definition"},
		VariableNodeTypes: []string{"variable_declaration", "assignment_statement"},
		ModuleNodeTypes:   []string{"chunk"},
		CallNodeTypes:     []string{"function_call"},
		ImportNodeTypes:   []string{"function_call"}, // require(...) is an ordinary call node
		PackageIndicators: []string{"*.rockspec"},
	})
}
