package resolver

import "strings"

// nodeBuiltins contains the Node.js core module names. Subpaths such as
// "fs/promises" are matched through their top-level name.
var nodeBuiltins = map[string]bool{
	"assert":              true,
	"async_hooks":         true,
	"buffer":              true,
	"child_process":       true,
	"cluster":             true,
	"console":             true,
	"constants":           true,
	"crypto":              true,
	"dgram":               true,
	"diagnostics_channel": true,
	"dns":                 true,
	"domain":              true,
	"events":              true,
	"fs":                  true,
	"http":                true,
	"http2":               true,
	"https":               true,
	"inspector":           true,
	"module":              true,
	"net":                 true,
	"os":                  true,
	"path":                true,
	"perf_hooks":          true,
	"process":             true,
	"punycode":            true,
	"querystring":         true,
	"readline":            true,
	"repl":                true,
	"stream":              true,
	"string_decoder":      true,
	"sys":                 true,
	"timers":              true,
	"tls":                 true,
	"trace_events":        true,
	"tty":                 true,
	"url":                 true,
	"util":                true,
	"v8":                  true,
	"vm":                  true,
	"wasi":                true,
	"worker_threads":      true,
	"zlib":                true,
}

// IsBuiltin reports whether specifier names a Node.js core module, either
// bare ("fs", "fs/promises") or with the "node:" scheme.
func IsBuiltin(specifier string) bool {
	if strings.HasPrefix(specifier, "node:") {
		return len(specifier) > len("node:")
	}
	name, _, _ := strings.Cut(specifier, "/")
	return nodeBuiltins[name]
}
