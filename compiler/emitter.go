package compiler

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

var targets = map[string]api.Target{
	"es3":    api.ES5,
	"es5":    api.ES5,
	"es6":    api.ES2015,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"es2023": api.ESNext,
	"es2024": api.ESNext,
	"esnext": api.ESNext,
}

// Emitter turns rewritten TypeScript or JavaScript into the configured
// language level and module system.
type Emitter struct {
	target    api.Target
	esm       bool
	sourceMap bool
}

// Output is the emitted code of one file. Map is nil unless source maps are
// enabled.
type Output struct {
	Code []byte
	Map  []byte
}

func NewEmitter(target string, esm, sourceMap bool) (*Emitter, error) {
	t, ok := targets[strings.ToLower(target)]
	if !ok {
		return nil, fmt.Errorf("unsupported target %q", target)
	}
	return &Emitter{target: t, esm: esm, sourceMap: sourceMap}, nil
}

// IsESM reports whether the file at path is emitted as an ES module.
// ".mts"/".mjs" and ".cts"/".cjs" files keep their module system.
func (e *Emitter) IsESM(path string) bool {
	switch filepath.Ext(path) {
	case ".mts", ".mjs":
		return true
	case ".cts", ".cjs":
		return false
	}
	return e.esm
}

// Emit transforms source, which was read from path.
func (e *Emitter) Emit(path string, source []byte) (*Output, error) {
	format := api.FormatCommonJS
	if e.IsESM(path) {
		format = api.FormatESModule
	}
	sourceMap := api.SourceMapNone
	if e.sourceMap {
		sourceMap = api.SourceMapExternal
	}

	result := api.Transform(string(source), api.TransformOptions{
		Loader:     loaderFor(path),
		Format:     format,
		Target:     e.target,
		Platform:   api.PlatformNode,
		Sourcefile: path,
		Sourcemap:  sourceMap,
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return nil, messagesError(result.Errors)
	}

	out := &Output{Code: result.Code}
	if e.sourceMap && len(result.Map) > 0 {
		out.Map = result.Map
	}
	return out, nil
}

func loaderFor(path string) api.Loader {
	switch filepath.Ext(path) {
	case ".ts", ".mts", ".cts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	case ".jsx":
		return api.LoaderJSX
	default:
		return api.LoaderJS
	}
}

func messagesError(msgs []api.Message) error {
	errs := make([]error, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			errs = append(errs, fmt.Errorf("%d:%d: %s", m.Location.Line, m.Location.Column, m.Text))
		} else {
			errs = append(errs, errors.New(m.Text))
		}
	}
	return errors.Join(errs...)
}
