package lang

func init() {
	Register(&LanguageSpec{
		Language:       Ruby,
		FileExtensions: []string{".rb"},
		FunctionNodeTypes: []string{
			"method",
			"singleton_method",
		},
		ClassNodeTypes: []string{
			"class",
			"module",
		},
		VariableNodeTypes: []string{"assignment"},
		ModuleNodeTypes:   []string{"program"},
		CallNodeTypes:     []string{"call", "method_call"},
		ImportNodeTypes:   []string{"call"}, // require/require_relative are ordinary calls
		BaseClassField:    "superclass",
		PackageIndicators: []string{"Gemfile"},
	})
}
