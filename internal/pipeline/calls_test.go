package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/internal/lang"
	"github.com/codegraph-dev/codegraph/internal/parser"
	"github.com/codegraph-dev/codegraph/internal/sink"
)

const goCallSource = `package widget

func helper() string {
	return "x"
}

func run() {
	helper()
}
`

func TestExtractCallsResolvesSameModuleCall(t *testing.T) {
	tree, err := parser.Parse(lang.Go, []byte(goCallSource))
	require.NoError(t, err)
	defer tree.Close()

	spec := lang.ForLanguage(lang.Go)
	require.NotNil(t, spec)

	registry := NewFunctionRegistry()
	registry.Register("helper", "myproj.widget.helper", "Function")
	registry.Register("run", "myproj.widget.run", "Function")

	batch := sink.NewBatch()
	stats := extractCalls(batch, tree.RootNode(), []byte(goCallSource), spec, "myproj", "widget.go", registry, nil, nil)

	assert.Equal(t, 1, stats.Resolved)
	assert.True(t, findEdge(batch.Edges(), "myproj.widget.run", "myproj.widget.helper", "CALLS"))
}

const pythonMethodCallSource = `class Animal:
    def speak(self):
        pass

def run():
    pet = Animal()
    pet.speak()
`

func TestExtractCallsResolvesMethodDispatchViaTypeMap(t *testing.T) {
	tree, err := parser.Parse(lang.Python, []byte(pythonMethodCallSource))
	require.NoError(t, err)
	defer tree.Close()

	spec := lang.ForLanguage(lang.Python)
	require.NotNil(t, spec)

	registry := NewFunctionRegistry()
	registry.Register("Animal", "myproj.animals.Animal", "Class")
	registry.Register("speak", "myproj.animals.Animal.speak", "Method")
	registry.Register("run", "myproj.animals.run", "Function")

	typeMap := inferTypes(tree.RootNode(), []byte(pythonMethodCallSource), lang.Python, registry, "myproj.animals", nil)

	batch := sink.NewBatch()
	stats := extractCalls(batch, tree.RootNode(), []byte(pythonMethodCallSource), spec, "myproj", "animals.py", registry, nil, typeMap)

	assert.GreaterOrEqual(t, stats.Resolved, 1)
	assert.True(t, findEdge(batch.Edges(), "myproj.animals.run", "myproj.animals.Animal.speak", "CALLS"))
}

func TestExtractCallsCountsUnresolvedCallee(t *testing.T) {
	tree, err := parser.Parse(lang.Go, []byte(goCallSource))
	require.NoError(t, err)
	defer tree.Close()

	spec := lang.ForLanguage(lang.Go)
	require.NotNil(t, spec)

	// Empty registry: nothing can resolve.
	registry := NewFunctionRegistry()

	batch := sink.NewBatch()
	stats := extractCalls(batch, tree.RootNode(), []byte(goCallSource), spec, "myproj", "widget.go", registry, nil, nil)

	assert.Equal(t, 0, stats.Resolved)
	assert.Equal(t, 1, stats.Unresolved)
}

func TestExtractCallsSkipsLightweightLanguages(t *testing.T) {
	spec := lang.ForLanguage(lang.CSS)
	require.NotNil(t, spec)

	batch := sink.NewBatch()
	registry := NewFunctionRegistry()
	stats := extractCalls(batch, nil, nil, spec, "myproj", "styles.css", registry, nil, nil)

	assert.Equal(t, callStats{}, stats)
	assert.Equal(t, 0, batch.Len())
}

const goReceiverCallSource = `package widget

type Button struct {
	Label string
}

func (b *Button) Render() string {
	return b.Label
}

func (b *Button) Click() {
	b.Render()
}
`

func TestExtractCallsResolvesCppOutOfClassMethodCall(t *testing.T) {
	tree, err := parser.Parse(lang.CPP, []byte(cppSource))
	require.NoError(t, err)
	defer tree.Close()

	spec := lang.ForLanguage(lang.CPP)
	require.NotNil(t, spec)

	registry := NewFunctionRegistry()
	registry.Register("Calculator", "myproject.calc.Calculator", "Class")
	registry.Register("add", "myproject.calc.Calculator.add", "Method")
	registry.Register("use", "myproject.calc.use", "Function")

	batch := sink.NewBatch()
	extractCalls(batch, tree.RootNode(), []byte(cppSource), spec, "myproject", "calc.cpp", registry, nil, nil)

	assert.True(t, findEdge(batch.Edges(), "myproject.calc.use", "myproject.calc.Calculator.add", "CALLS"))
}

func TestExtractCallsResolvesRustTraitMethodCall(t *testing.T) {
	tree, err := parser.Parse(lang.Rust, []byte(rustSource))
	require.NoError(t, err)
	defer tree.Close()

	spec := lang.ForLanguage(lang.Rust)
	require.NotNil(t, spec)

	registry := NewFunctionRegistry()
	registry.Register("Display", "myproject.shapes.Display", "Class")
	registry.Register("Point", "myproject.shapes.Point", "Class")
	registry.Register("fmt", "myproject.shapes.Point.fmt", "Method")
	registry.Register("show", "myproject.shapes.show", "Function")

	batch := sink.NewBatch()
	extractCalls(batch, tree.RootNode(), []byte(rustSource), spec, "myproject", "shapes.rs", registry, nil, nil)

	assert.True(t, findEdge(batch.Edges(), "myproject.shapes.show", "myproject.shapes.Point.fmt", "CALLS"))
}

const luaStorageSource = `local Storage = {}

function Storage:getInstance()
	return Storage
end

function Storage:save(key, value)
end

function Storage:load(key)
end

return Storage
`

const luaCtrlSource = `local Storage = require('storage.Storage')

function Ctrl:loadScene()
	local s = Storage:getInstance()
	s:save('k', 'v')
	return s:load('k')
end
`

// TestExtractCallsResolvesLuaColonMethodDispatchAcrossFiles covers S2: a
// singleton fetched through require() and then dispatched on via a local
// alias ("s"), not the module's own name, so the generic same-module/
// import-map/type-map strategies can't join the call site to the
// definition — only the colon-method fallback can.
func TestExtractCallsResolvesLuaColonMethodDispatchAcrossFiles(t *testing.T) {
	spec := lang.ForLanguage(lang.Lua)
	require.NotNil(t, spec)

	storageTree, err := parser.Parse(lang.Lua, []byte(luaStorageSource))
	require.NoError(t, err)
	defer storageTree.Close()

	registry := NewFunctionRegistry()
	storageBatch := sink.NewBatch()
	extractDefinitions(storageBatch, storageTree.RootNode(), []byte(luaStorageSource), spec, "myproject", "storage/Storage.lua")
	for _, n := range storageBatch.Nodes() {
		registry.Register(n.Name, n.QualifiedName, n.Label)
	}

	ctrlTree, err := parser.Parse(lang.Lua, []byte(luaCtrlSource))
	require.NoError(t, err)
	defer ctrlTree.Close()

	importMap := parseImports(ctrlTree.RootNode(), []byte(luaCtrlSource), lang.Lua, "myproject", "controllers/Ctrl.lua")

	batch := sink.NewBatch()
	extractCalls(batch, ctrlTree.RootNode(), []byte(luaCtrlSource), spec, "myproject", "controllers/Ctrl.lua", registry, importMap, nil)

	assert.True(t, findEdge(batch.Edges(), "myproject.controllers.Ctrl.Ctrl:loadScene", "myproject.storage.Storage.Storage:getInstance", "CALLS"))
	assert.True(t, findEdge(batch.Edges(), "myproject.controllers.Ctrl.Ctrl:loadScene", "myproject.storage.Storage.Storage:save", "CALLS"))
	assert.True(t, findEdge(batch.Edges(), "myproject.controllers.Ctrl.Ctrl:loadScene", "myproject.storage.Storage.Storage:load", "CALLS"))
}

func TestExtractCallsResolvesGoReceiverMethodCall(t *testing.T) {
	tree, err := parser.Parse(lang.Go, []byte(goReceiverCallSource))
	require.NoError(t, err)
	defer tree.Close()

	spec := lang.ForLanguage(lang.Go)
	require.NotNil(t, spec)

	registry := NewFunctionRegistry()
	registry.Register("Button", "myproj.widget.Button", "Class")
	registry.Register("Render", "myproj.widget.Button.Render", "Method")
	registry.Register("Click", "myproj.widget.Button.Click", "Method")

	batch := sink.NewBatch()
	extractCalls(batch, tree.RootNode(), []byte(goReceiverCallSource), spec, "myproj", "widget.go", registry, nil, nil)

	assert.True(t, findEdge(batch.Edges(), "myproj.widget.Button.Click", "myproj.widget.Button.Render", "CALLS"))
}
