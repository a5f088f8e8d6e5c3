package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/internal/lang"
	"github.com/codegraph-dev/codegraph/internal/parser"
	"github.com/codegraph-dev/codegraph/internal/sink"
)

const goSource = `package widget

type Button struct {
	Label string
}

func (b *Button) Render() string {
	return b.Label
}

func NewButton(label string) *Button {
	return &Button{Label: label}
}
`

func TestExtractDefinitionsGo(t *testing.T) {
	tree, err := parser.Parse(lang.Go, []byte(goSource))
	require.NoError(t, err)
	defer tree.Close()

	spec := lang.ForLanguage(lang.Go)
	require.NotNil(t, spec)

	batch := sink.NewBatch()
	result := extractDefinitions(batch, tree.RootNode(), []byte(goSource), spec, "myproject", "widget/button.go")

	_, hasClass := findNode(batch.Nodes(), "myproject.widget.button.Button")
	assert.True(t, hasClass, "Button type_spec should register as a Class")

	_, hasMethod := findNode(batch.Nodes(), "myproject.widget.button.Button.Render")
	assert.True(t, hasMethod, "method with a receiver should attach to its receiver type")

	_, hasFunc := findNode(batch.Nodes(), "myproject.widget.button.NewButton")
	assert.True(t, hasFunc, "a plain function should register at module scope")

	var methodNames []string
	for _, r := range result.Registrations {
		methodNames = append(methodNames, r.QualifiedName)
	}
	assert.Contains(t, methodNames, "myproject.widget.button.Button.Render")
}

const pythonSource = `class Animal:
    pass

class Dog(Animal):
    def bark(self):
        return "woof"
`

func TestExtractDefinitionsPythonBaseClass(t *testing.T) {
	tree, err := parser.Parse(lang.Python, []byte(pythonSource))
	require.NoError(t, err)
	defer tree.Close()

	spec := lang.ForLanguage(lang.Python)
	require.NotNil(t, spec)

	batch := sink.NewBatch()
	result := extractDefinitions(batch, tree.RootNode(), []byte(pythonSource), spec, "myproject", "animals.py")

	require.Len(t, result.BaseClasses, 1)
	assert.Equal(t, "myproject.animals.Dog", result.BaseClasses[0].ClassQN)
	assert.Equal(t, "Animal", result.BaseClasses[0].BaseName)
}

const cppSource = `class Calculator {
public:
	int add(int a, int b);
};

int Calculator::add(int a, int b) {
	return a + b;
}

void use() {
	Calculator c;
	c.add(1, 2);
}
`

func TestExtractDefinitionsCppOutOfClassMethod(t *testing.T) {
	tree, err := parser.Parse(lang.CPP, []byte(cppSource))
	require.NoError(t, err)
	defer tree.Close()

	spec := lang.ForLanguage(lang.CPP)
	require.NotNil(t, spec)

	batch := sink.NewBatch()
	extractDefinitions(batch, tree.RootNode(), []byte(cppSource), spec, "myproject", "calc.cpp")

	_, hasMethod := findNode(batch.Nodes(), "myproject.calc.Calculator.add")
	assert.True(t, hasMethod, "an out-of-class method definition must still register as a Method on its class")
	assert.True(t, findEdge(batch.Edges(), "myproject.calc.Calculator", "myproject.calc.Calculator.add", "DEFINES_METHOD"))

	_, hasUse := findNode(batch.Nodes(), "myproject.calc.use")
	assert.True(t, hasUse, "a free function must still register at module scope")
}

const rustSource = `trait Display {
	fn fmt(&self) -> String;
}

struct Point {
	x: i32,
	y: i32,
}

impl Display for Point {
	fn fmt(&self) -> String {
		String::new()
	}
}

fn show(p: &Point) {
	p.fmt();
}
`

func TestExtractDefinitionsRustImplTraitForStruct(t *testing.T) {
	tree, err := parser.Parse(lang.Rust, []byte(rustSource))
	require.NoError(t, err)
	defer tree.Close()

	spec := lang.ForLanguage(lang.Rust)
	require.NotNil(t, spec)

	batch := sink.NewBatch()
	result := extractDefinitions(batch, tree.RootNode(), []byte(rustSource), spec, "myproject", "shapes.rs")

	_, hasMethod := findNode(batch.Nodes(), "myproject.shapes.Point.fmt")
	assert.True(t, hasMethod, "impl Display for Point must mine fmt as a Method on Point, not a new Class")
	assert.True(t, findEdge(batch.Edges(), "myproject.shapes.Point", "myproject.shapes.Point.fmt", "DEFINES_METHOD"))

	require.Len(t, result.BaseClasses, 1)
	assert.Equal(t, "myproject.shapes.Point", result.BaseClasses[0].ClassQN)
	assert.Equal(t, "Display", result.BaseClasses[0].BaseName)

	var classCount int
	for _, r := range result.Registrations {
		if r.Label == "Class" && r.QualifiedName == "myproject.shapes.Point" {
			classCount++
		}
	}
	assert.Equal(t, 1, classCount, "the impl block must not register a second Point class")
}

func TestExtractDefinitionsSkipsLightweightLanguages(t *testing.T) {
	spec := lang.ForLanguage(lang.CSS)
	require.NotNil(t, spec)

	batch := sink.NewBatch()
	result := extractDefinitions(batch, nil, nil, spec, "myproject", "styles.css")
	assert.Empty(t, result.Registrations)
	assert.Equal(t, 0, batch.Len())
}
