package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionRegistryResolveImportMap(t *testing.T) {
	r := NewFunctionRegistry()
	r.Register("hello", "proj.pkg.a.hello", "Function")

	importMap := map[string]string{"a": "proj.pkg.a"}
	qn := r.Resolve("a.hello", "proj.pkg.b", importMap)
	assert.Equal(t, "proj.pkg.a.hello", qn)
}

func TestFunctionRegistryResolveSameModule(t *testing.T) {
	r := NewFunctionRegistry()
	r.Register("helper", "proj.pkg.b.helper", "Function")

	qn := r.Resolve("helper", "proj.pkg.b", nil)
	assert.Equal(t, "proj.pkg.b.helper", qn)
}

func TestFunctionRegistryResolveSingleMatchBySimpleName(t *testing.T) {
	r := NewFunctionRegistry()
	r.Register("onlyOne", "proj.deep.nested.onlyOne", "Function")

	qn := r.Resolve("onlyOne", "proj.somewhere.else", nil)
	assert.Equal(t, "proj.deep.nested.onlyOne", qn)
}

func TestFunctionRegistryResolveAmbiguousPicksClosestByImportDistance(t *testing.T) {
	r := NewFunctionRegistry()
	r.Register("run", "proj.pkg.a.run", "Function")
	r.Register("run", "proj.other.far.run", "Function")

	qn := r.Resolve("run", "proj.pkg.caller", nil)
	assert.Equal(t, "proj.pkg.a.run", qn, "should prefer the candidate sharing the longer module prefix")
}

func TestFunctionRegistryResolveUnknownReturnsEmpty(t *testing.T) {
	r := NewFunctionRegistry()
	assert.Equal(t, "", r.Resolve("nope", "proj.pkg", nil))
}

func TestFunctionRegistryExists(t *testing.T) {
	r := NewFunctionRegistry()
	r.Register("Foo", "proj.pkg.Foo", "Class")
	assert.True(t, r.Exists("proj.pkg.Foo"))
	assert.False(t, r.Exists("proj.pkg.Bar"))
}

func TestFunctionRegistryFuzzyResolve(t *testing.T) {
	r := NewFunctionRegistry()
	r.Register("render", "proj.widgets.button.render", "Method")

	qn, ok := r.FuzzyResolve("somedynamicobj.render", "proj.pages.home")
	require.True(t, ok)
	assert.Equal(t, "proj.widgets.button.render", qn)

	_, ok = r.FuzzyResolve("nothingmatches", "proj.pages.home")
	assert.False(t, ok)
}

func TestFunctionRegistryFindEndingWith(t *testing.T) {
	r := NewFunctionRegistry()
	r.Register("save", "proj.models.user.save", "Method")
	r.Register("save", "proj.models.order.save", "Method")

	matches := r.FindEndingWith("save")
	assert.Len(t, matches, 2)
}

func TestFunctionRegistrySize(t *testing.T) {
	r := NewFunctionRegistry()
	assert.Equal(t, 0, r.Size())
	r.Register("a", "proj.a", "Function")
	r.Register("b", "proj.b", "Function")
	assert.Equal(t, 2, r.Size())
}
