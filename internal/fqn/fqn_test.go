package fqn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	cases := []struct {
		name             string
		project, relPath, symbol string
		want             string
	}{
		{"plain file", "myproject", "pkg/service.go", "ProcessOrder", "myproject.pkg.service.ProcessOrder"},
		{"nested dirs", "myproject", "cmd/server/main.go", "HandleRequest", "myproject.cmd.server.main.HandleRequest"},
		{"python package init elided", "myproject", "pkg/__init__.py", "setup", "myproject.pkg.setup"},
		{"js index elided", "myproject", "components/index.ts", "render", "myproject.components.render"},
		{"module qn (no symbol)", "myproject", "pkg/service.go", "", "myproject.pkg.service"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Compute(tc.project, tc.relPath, tc.symbol))
		})
	}
}

func TestModuleQN(t *testing.T) {
	assert.Equal(t, "myproject.pkg.service", ModuleQN("myproject", "pkg/service.go"))
	assert.Equal(t, "myproject.pkg", ModuleQN("myproject", "pkg/__init__.py"))
}

func TestFolderQN(t *testing.T) {
	assert.Equal(t, "myproject.pkg.sub", FolderQN("myproject", "pkg/sub"))
	assert.Equal(t, "myproject.pkg", FolderQN("myproject", "pkg"))
}
