package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/internal/lang"
	"github.com/codegraph-dev/codegraph/internal/parser"
	"github.com/codegraph-dev/codegraph/internal/sink"
)

const goImportSource = `package main

import (
	"fmt"
	m "github.com/codegraph-dev/codegraph/internal/models"
)

func main() {
	fmt.Println(m.New())
}
`

func TestParseGoImports(t *testing.T) {
	tree, err := parser.Parse(lang.Go, []byte(goImportSource))
	require.NoError(t, err)
	defer tree.Close()

	imports := parseImports(tree.RootNode(), []byte(goImportSource), lang.Go, "codegraph", "main.go")

	assert.Equal(t, "fmt", imports["fmt"])
	assert.Equal(t, "codegraph.internal.models", imports["m"])
}

const pythonImportSource = `import os
from .utils import helper
from pkg.sub import Thing as T
`

func TestParsePythonImports(t *testing.T) {
	tree, err := parser.Parse(lang.Python, []byte(pythonImportSource))
	require.NoError(t, err)
	defer tree.Close()

	imports := parseImports(tree.RootNode(), []byte(pythonImportSource), lang.Python, "myproject", "pkg/mod.py")

	assert.Equal(t, "myproject.os", imports["os"])
	assert.Equal(t, "myproject.pkg.utils.helper", imports["helper"])
	assert.Equal(t, "myproject.pkg.sub.Thing", imports["T"])
}

const jsImportSource = `import React from "react";
import { useState as useS } from "react";
import * as utils from "./utils";
const { a, b: c } = require("./local");
`

func TestParseJSImports(t *testing.T) {
	tree, err := parser.Parse(lang.JavaScript, []byte(jsImportSource))
	require.NoError(t, err)
	defer tree.Close()

	imports := parseImports(tree.RootNode(), []byte(jsImportSource), lang.JavaScript, "webapp", "src/index.js")

	assert.Equal(t, "react", imports["React"])
	assert.Equal(t, "react.useState", imports["useS"])
	assert.Equal(t, "webapp.src.utils", imports["utils"])
	assert.Equal(t, "webapp.src.local.a", imports["a"])
	assert.Equal(t, "webapp.src.local.b", imports["c"])
}

const rustImportSource = `use std::collections::HashMap;
use crate::model::{Foo, Bar as Baz};
`

func TestParseRustImports(t *testing.T) {
	tree, err := parser.Parse(lang.Rust, []byte(rustImportSource))
	require.NoError(t, err)
	defer tree.Close()

	imports := parseImports(tree.RootNode(), []byte(rustImportSource), lang.Rust, "myrustapp", "src/main.rs")

	// HashMap is an external (std) type, not a module, so the import
	// target truncates to its containing module (spec.md S6).
	assert.Equal(t, "std.collections", imports["HashMap"])
	assert.Equal(t, "myrustapp.model.Foo", imports["Foo"])
	assert.Equal(t, "myrustapp.model.Bar", imports["Baz"])
}

const rustStdNormalizationSource = `use std::collections::HashMap;

fn f() {
	let _: HashMap<i32, i32> = HashMap::new();
}
`

func TestParseRustImportsNormalizesExternalTypeToModule(t *testing.T) {
	tree, err := parser.Parse(lang.Rust, []byte(rustStdNormalizationSource))
	require.NoError(t, err)
	defer tree.Close()

	imports := parseImports(tree.RootNode(), []byte(rustStdNormalizationSource), lang.Rust, "myrustapp", "src/lib.rs")
	assert.Equal(t, "std.collections", imports["HashMap"])

	batch := sink.NewBatch()
	unresolved := 0
	emitImportEdges(batch, "myrustapp", "myrustapp.f", imports, &unresolved)

	assert.True(t, findEdge(batch.Edges(), "myrustapp.f", "std.collections", "IMPORTS"))
	assert.True(t, findEdge(batch.Edges(), "myrustapp.f", "std.collections", "DEPENDS_ON_EXTERNAL"))
}

func TestEmitImportEdgesMarksExternalPackages(t *testing.T) {
	batch := sink.NewBatch()
	unresolved := 0
	imports := map[string]string{
		"fmt":  "fmt",
		"util": "myproj.pkg.util",
	}
	emitImportEdges(batch, "myproj", "myproj.main", imports, &unresolved)

	assert.True(t, findEdge(batch.Edges(), "myproj.main", "fmt", "IMPORTS"))
	assert.True(t, findEdge(batch.Edges(), "myproj.main", "fmt", "DEPENDS_ON_EXTERNAL"))
	assert.True(t, findEdge(batch.Edges(), "myproj.main", "myproj.pkg.util", "IMPORTS"))
	assert.False(t, findEdge(batch.Edges(), "myproj.main", "myproj.pkg.util", "DEPENDS_ON_EXTERNAL"))
	assert.Equal(t, 0, unresolved)

	_, hasExternalNode := findNode(batch.Nodes(), "fmt")
	assert.True(t, hasExternalNode)
}

func TestEmitImportEdgesCountsWildcardAsUnresolved(t *testing.T) {
	batch := sink.NewBatch()
	unresolved := 0
	imports := map[string]string{"*": "myproj.pkg"}
	emitImportEdges(batch, "myproj", "myproj.main", imports, &unresolved)

	assert.Equal(t, 1, unresolved)
	assert.True(t, findEdge(batch.Edges(), "myproj.main", "myproj.pkg", "IMPORTS"))
}
