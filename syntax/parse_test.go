package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, path, src string) *Module {
	t.Helper()
	m, err := Parse(path, []byte(src))
	require.NoError(t, err)
	return m
}

func itemsOf[T Item](m *Module) []T {
	var out []T
	for _, it := range m.Items {
		if v, ok := it.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func TestParse_ImportForms(t *testing.T) {
	m := mustParse(t, "a.ts", `import 'side-effect';
import a from "./a";
import * as ns from './ns';
import b, { c, d as e, type F } from './mixed';
import type { G } from './types';
`)

	imports := itemsOf[*ImportDecl](m)
	require.Len(t, imports, 5)

	assert.True(t, imports[0].IsBare())
	assert.Equal(t, "side-effect", imports[0].Source.Value)
	assert.Equal(t, byte('\''), imports[0].Source.Quote)

	assert.Equal(t, "a", imports[1].Default)
	assert.Equal(t, "./a", imports[1].Source.Value)
	assert.Equal(t, byte('"'), imports[1].Source.Quote)

	assert.Equal(t, "ns", imports[2].Namespace)

	assert.Equal(t, "b", imports[3].Default)
	assert.Equal(t, []ImportSpecifier{
		{Imported: "c", Local: "c"},
		{Imported: "d", Local: "e"},
		{Imported: "F", Local: "F", TypeOnly: true},
	}, imports[3].Named)
	assert.False(t, imports[3].AllTypeOnly())

	assert.True(t, imports[4].TypeOnly)
	assert.True(t, imports[4].AllTypeOnly())
}

func TestParse_InlineTypeOnlyImport(t *testing.T) {
	m := mustParse(t, "a.ts", "import { type A, type B } from './types';\n")

	imports := itemsOf[*ImportDecl](m)

	require.Len(t, imports, 1)
	assert.False(t, imports[0].TypeOnly)
	assert.True(t, imports[0].AllTypeOnly())
}

func TestParse_ExportForms(t *testing.T) {
	m := mustParse(t, "a.ts", `export { a, b as c };
export { d } from './d';
export * from './all';
export * as ns from './ns';
export type { T } from './t';
export const { x, y: [z, ...rest], ...others } = obj;
export function fn() {}
export class K {}
export enum E { A }
export interface I {}
export type Alias = string;
export default foo;
`)

	named := itemsOf[*ExportNamed](m)
	require.Len(t, named, 3)
	assert.Nil(t, named[0].Source)
	assert.Equal(t, []ExportSpecifier{{Local: "a", Exported: "a"}, {Local: "b", Exported: "c"}}, named[0].Specifiers)
	assert.Equal(t, "./d", named[1].Source.Value)
	assert.True(t, named[2].TypeOnly)

	all := itemsOf[*ExportAll](m)
	require.Len(t, all, 2)
	assert.Equal(t, "", all[0].Alias)
	assert.Equal(t, "./all", all[0].Source.Value)
	assert.Equal(t, "ns", all[1].Alias)

	decls := itemsOf[*ExportDecl](m)
	require.Len(t, decls, 6)
	assert.Equal(t, []string{"x", "z", "rest"}, decls[0].Names)
	assert.Equal(t, 1, decls[0].SkippedRest)
	assert.Equal(t, DeclFunction, decls[1].Kind)
	assert.Equal(t, []string{"fn"}, decls[1].Names)
	assert.Equal(t, []string{"K"}, decls[2].Names)
	assert.Equal(t, DeclEnum, decls[3].Kind)
	assert.True(t, decls[4].TypeOnly)
	assert.Equal(t, []string{"Alias"}, decls[5].Names)

	defaults := itemsOf[*ExportDefault](m)
	require.Len(t, defaults, 1)
	assert.Equal(t, "foo", defaults[0].Local)
	assert.False(t, defaults[0].IsDecl)
}

func TestParse_LegacyForms(t *testing.T) {
	m := mustParse(t, "a.ts", `import fs = require("fs");
export = fs;
`)

	unsupported := itemsOf[*Unsupported](m)

	require.Len(t, unsupported, 2)
	assert.Equal(t, UnsupportedImportEquals, unsupported[0].Kind)
	assert.Equal(t, "fs", unsupported[0].Source.Value)
	assert.Equal(t, UnsupportedExportAssign, unsupported[1].Kind)
}

func TestParse_DynamicImportsAndImportMeta(t *testing.T) {
	m := mustParse(t, "a.js", `const lazy = await import('./lazy');
const other = import(name);
console.log(import.meta.url);
`)

	require.Len(t, m.DynamicImports, 2)
	assert.Equal(t, "./lazy", m.DynamicImports[0].Source.Value)
	assert.Nil(t, m.DynamicImports[1].Source)
	assert.Len(t, m.ImportMetas, 1)
}

func TestParse_StatementKinds(t *testing.T) {
	m := mustParse(t, "a.ts", `"use strict";
import('./polyfill');
interface Local {}
run();
`)

	stmts := itemsOf[*Stmt](m)

	require.Len(t, stmts, 4)
	assert.Equal(t, StmtLiteral, stmts[0].Kind)
	assert.Equal(t, StmtDynamicImport, stmts[1].Kind)
	assert.Equal(t, StmtTypeDecl, stmts[2].Kind)
	assert.Equal(t, StmtOther, stmts[3].Kind)
}

func TestParse_SourcePhaseImport(t *testing.T) {
	m := mustParse(t, "a.js", "import source wasm from './mod.wasm';\nrun(wasm);\n")

	imports := itemsOf[*ImportDecl](m)

	require.Len(t, imports, 1)
	assert.Equal(t, PhaseSource, imports[0].Phase)
	assert.Equal(t, "wasm", imports[0].Default)
	assert.Equal(t, "./mod.wasm", imports[0].Source.Value)
	assert.Equal(t, "'./mod.wasm'", string(m.Source[imports[0].Source.Span.Start:imports[0].Source.Span.End]))
}

func TestParse_SourcePhaseTextInsideTemplateIsNotAnImport(t *testing.T) {
	m := mustParse(t, "app.ts", "export function help(){ const lazy = import('./lazy'); return `\nimport source x from \"./b\"\n`; }\n")

	assert.Empty(t, itemsOf[*ImportDecl](m))
	require.Len(t, m.DynamicImports, 1)
	assert.Equal(t, "./lazy", m.DynamicImports[0].Source.Value)
}

func TestParse_SourcePhaseTextInsideCommentIsNotAnImport(t *testing.T) {
	m := mustParse(t, "a.js", "/*\nimport source x from './b';\n*/\nexport const a = import('./c');\n")

	assert.Empty(t, itemsOf[*ImportDecl](m))
	require.Len(t, m.DynamicImports, 1)
	assert.Equal(t, "./c", m.DynamicImports[0].Source.Value)
}

func TestParse_DecodesEscapesInSpecifiers(t *testing.T) {
	m := mustParse(t, "a.js", `import a from './\x61.js';
import b from "./\u0062.js";
`)

	imports := itemsOf[*ImportDecl](m)
	require.Len(t, imports, 2)
	assert.Equal(t, "./a.js", imports[0].Source.Value)
	assert.Equal(t, "./b.js", imports[1].Source.Value)
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"plain", "./a.js", "./a.js"},
		{"hex", `\x61`, "a"},
		{"unicode", `\u0041`, "A"},
		{"newline", `a\nb`, "a\nb"},
		{"escaped quote", `it\'s`, "it's"},
		{"double quote", `say "hi"`, `say "hi"`},
		{"backslash", `a\\b`, `a\b`},
		{"identity escape", `\d`, "d"},
		{"nul", `\0`, "\x00"},
		{"line continuation", "a\\\nb", "ab"},
		{"undecodable", `\u{1F600}`, `\u{1F600}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, unescape(tt.body))
		})
	}
}

func TestParse_TSXUsesTSXGrammar(t *testing.T) {
	m := mustParse(t, "view.tsx", `import { Button } from './button';
export const View = () => <Button label="x" />;
`)

	assert.Len(t, itemsOf[*ImportDecl](m), 1)
	assert.Equal(t, []string{"View"}, itemsOf[*ExportDecl](m)[0].Names)
	assert.Empty(t, m.Diagnostics)
}
