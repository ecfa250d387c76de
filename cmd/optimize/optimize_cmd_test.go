package optimize

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestOptimize_PrintsExportMaps(t *testing.T) {
	root := writeProject(t, map[string]string{
		"node_modules/ui/package.json": `{"name":"ui","main":"./index.js"}`,
		"node_modules/ui/index.js":     "export { Button as PrimaryButton } from './button.js';\nexport * from './icons.js';\nexport * as shapes from './shapes.js';\n",
		"node_modules/ui/button.js":    "export function Button() {}\n",
		"node_modules/ui/icons.js":     "export const Star = '*';\n",
		"node_modules/ui/shapes.js":    "export const Circle = 'o';\n",
	})
	cmd := NewCommand()
	cmd.SetArgs([]string{"-p", root, "-b", "ui"})
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})

	require.NoError(t, cmd.Execute())

	assert.JSONEq(t, `{
		"ui": {
			"PrimaryButton": {"definer": "node_modules/ui/button.js", "original": "Button"},
			"Star": {"definer": "node_modules/ui/icons.js", "original": "Star"},
			"shapes": {"definer": "node_modules/ui/shapes.js", "original": "*"}
		}
	}`, stdout.String())
	assert.NoDirExists(t, filepath.Join(root, "dist"))
}

func TestOptimize_ReportsExportCycles(t *testing.T) {
	root := writeProject(t, map[string]string{
		"node_modules/ui/package.json": `{"name":"ui","main":"./index.js"}`,
		"node_modules/ui/index.js":     "export * from './a.js';\n",
		"node_modules/ui/a.js":         "export * from './b.js';\nexport const A = 1;\n",
		"node_modules/ui/b.js":         "export * from './a.js';\nexport const B = 2;\n",
	})
	cmd := NewCommand()
	cmd.SetArgs([]string{"-p", root, "-b", "ui"})
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	require.NoError(t, cmd.Execute())

	assert.JSONEq(t, `{
		"ui": {
			"A": {"definer": "node_modules/ui/a.js", "original": "A"},
			"B": {"definer": "node_modules/ui/b.js", "original": "B"}
		}
	}`, stdout.String())
	assert.Contains(t, stderr.String(),
		"warning: export * cycle: node_modules/ui/a.js -> node_modules/ui/b.js -> node_modules/ui/a.js")
}

func TestOptimize_RequiresBarrelPackages(t *testing.T) {
	cmd := NewCommand()
	cmd.SetArgs([]string{"-p", t.TempDir()})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()

	assert.EqualError(t, err, "no barrel packages configured (use --barrel or barrelPackages in tsout.yaml)")
}
