// Package resolver maps import specifiers to files on disk following the
// Node.js and TypeScript resolution rules used by the compiler.
package resolver

import (
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Format selects the module system a specifier is resolved for.
type Format int

const (
	// FormatCommonJS resolves the way require() does.
	FormatCommonJS Format = iota
	// FormatESM resolves the way import statements do.
	FormatESM
)

func (f Format) String() string {
	if f == FormatESM {
		return "esm"
	}
	return "cjs"
}

// Conditions returns the package.json export conditions the format accepts.
// "default" is always accepted in addition to these.
func (f Format) Conditions() []string {
	if f == FormatESM {
		return []string{"node", "import", "require"}
	}
	return []string{"node", "require", "import"}
}

// MainFields returns the package.json fields consulted when a package has no
// "exports" entry, in priority order.
func (f Format) MainFields() []string {
	if f == FormatESM {
		return []string{"module", "main"}
	}
	return []string{"main"}
}

// DefaultExtensions are probed, in order, for extensionless specifiers.
var DefaultExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".json"}

// extensionAliases lets "./a.js" find "./a.ts", as TypeScript does.
var extensionAliases = map[string][]string{
	".js":  {".ts", ".tsx"},
	".jsx": {".tsx"},
	".mjs": {".mts"},
	".cjs": {".cts"},
}

const defaultCacheSize = 4096

// Options configures a Resolver.
type Options struct {
	// Externals are specifiers treated as external packages without lookup.
	Externals []string
	// Modules are the directory names searched for packages, walking up from
	// the importer. Defaults to "node_modules".
	Modules []string
	// Extensions overrides DefaultExtensions.
	Extensions []string
	// BaseURL is the tsconfig baseUrl, absolute. Empty disables it.
	BaseURL string
	// Paths is the tsconfig "paths" mapping. Targets are relative to PathsBase.
	Paths     map[string][]string
	PathsBase string
	// CacheSize bounds the result and package.json caches.
	CacheSize int
}

// Resolved is the outcome of resolving one specifier from one context.
type Resolved struct {
	Specifier string
	Context   string
	// AbsPath is the absolute file path, including any query suffix of the
	// specifier. For built-ins it is the module name.
	AbsPath string
	// RelativePath is the specifier itself when it was relative, otherwise
	// the path of AbsPath relative to the context directory.
	RelativePath  string
	BuiltIn       bool
	IsNodeModules bool
	NotFound      bool
}

// Resolver resolves specifiers. It is safe for concurrent use.
type Resolver struct {
	opts       Options
	externals  map[string]bool
	extensions []string
	results    *lru.Cache[string, Resolved]
	packages   *lru.Cache[string, *packageJSON]
}

// New creates a Resolver.
func New(opts Options) (*Resolver, error) {
	if len(opts.Modules) == 0 {
		opts.Modules = []string{"node_modules"}
	}
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	results, err := lru.New[string, Resolved](size)
	if err != nil {
		return nil, err
	}
	packages, err := lru.New[string, *packageJSON](size)
	if err != nil {
		return nil, err
	}

	extensions := opts.Extensions
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	externals := make(map[string]bool, len(opts.Externals))
	for _, e := range opts.Externals {
		externals[e] = true
	}

	return &Resolver{
		opts:       opts,
		externals:  externals,
		extensions: extensions,
		results:    results,
		packages:   packages,
	}, nil
}

// Resolve resolves specifier as imported from context, which is a directory
// or a file. The boolean is false when no existing directory can be found at
// or above context; every other failure yields a NotFound result.
func (r *Resolver) Resolve(specifier, context string, format Format) (*Resolved, bool) {
	dir := findUpDir(context)
	if dir == "" {
		return nil, false
	}

	cacheKey := format.String() + "\x00" + dir + "\x00" + specifier
	if cached, ok := r.results.Get(cacheKey); ok {
		res := cached
		res.Context = context
		return &res, true
	}

	res := r.resolve(specifier, dir, format)
	r.results.Add(cacheKey, res)
	res.Context = context
	return &res, true
}

func (r *Resolver) resolve(specifier, dir string, format Format) Resolved {
	res := Resolved{Specifier: specifier}

	if r.externals[specifier] {
		res.IsNodeModules = true
		return res
	}

	request, query := SplitQuery(specifier)
	if !isPathLike(request) && IsBuiltin(request) {
		res.BuiltIn = true
		res.AbsPath = request
		return res
	}

	path, ok := r.resolvePath(request, dir, format)
	if !ok {
		res.NotFound = true
		return res
	}
	if real, err := filepath.EvalSymlinks(path); err == nil {
		path = real
	}

	res.AbsPath = path + query
	res.IsNodeModules = r.inModules(path)
	if strings.HasPrefix(specifier, ".") {
		res.RelativePath = specifier
	} else if rel, err := filepath.Rel(dir, path); err == nil {
		res.RelativePath = filepath.ToSlash(rel) + query
	}
	return res
}

func (r *Resolver) resolvePath(request, dir string, format Format) (string, bool) {
	switch {
	case request == "":
		return "", false
	case strings.HasPrefix(request, "#"):
		return r.resolvePackageImports(request, dir, format)
	case isPathLike(request):
		p := request
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, filepath.FromSlash(request))
		}
		return r.loadAsFileOrDir(p, format)
	}

	if p, ok := r.resolveTsconfigPaths(request, format); ok {
		return p, true
	}
	if r.opts.BaseURL != "" {
		if p, ok := r.loadAsFileOrDir(filepath.Join(r.opts.BaseURL, filepath.FromSlash(request)), format); ok {
			return p, true
		}
	}
	return r.resolvePackage(request, dir, format)
}

func (r *Resolver) resolveTsconfigPaths(request string, format Format) (string, bool) {
	if len(r.opts.Paths) == 0 {
		return "", false
	}
	bestKey, bestStar := "", ""
	for key := range r.opts.Paths {
		prefix, suffix, hasStar := strings.Cut(key, "*")
		if !hasStar {
			if key == request {
				bestKey, bestStar = key, ""
				break
			}
			continue
		}
		if len(request) < len(prefix)+len(suffix) ||
			!strings.HasPrefix(request, prefix) || !strings.HasSuffix(request, suffix) {
			continue
		}
		if patternKeyLess(bestKey, key) {
			bestKey = key
			bestStar = request[len(prefix) : len(request)-len(suffix)]
		}
	}
	if bestKey == "" {
		return "", false
	}
	base := r.opts.PathsBase
	if base == "" {
		base = r.opts.BaseURL
	}
	for _, target := range r.opts.Paths[bestKey] {
		candidate := filepath.Join(base, filepath.FromSlash(strings.ReplaceAll(target, "*", bestStar)))
		if p, ok := r.loadAsFileOrDir(candidate, format); ok {
			return p, true
		}
	}
	return "", false
}

func (r *Resolver) resolvePackage(request, dir string, format Format) (string, bool) {
	name, subpath := SplitPackageName(request)
	for d := dir; ; {
		for _, modules := range r.opts.Modules {
			pkgDir := filepath.Join(d, modules, filepath.FromSlash(name))
			if isDir(pkgDir) {
				return r.loadPackage(pkgDir, subpath, format)
			}
		}
		parent := filepath.Dir(d)
		if parent == d {
			return "", false
		}
		d = parent
	}
}

func (r *Resolver) loadPackage(pkgDir, subpath string, format Format) (string, bool) {
	pkg := r.readPackageJSON(pkgDir)
	if pkg != nil && pkg.exports != nil {
		key := "."
		if subpath != "" {
			key = "./" + subpath
		}
		target, ok := matchSubpathMap(pkg.exports, key, format.Conditions())
		if !ok {
			return "", false
		}
		return r.loadExact(filepath.Join(pkgDir, filepath.FromSlash(target)))
	}
	if subpath != "" {
		return r.loadAsFileOrDir(filepath.Join(pkgDir, filepath.FromSlash(subpath)), format)
	}
	return r.loadAsDirectory(pkgDir, format)
}

func (r *Resolver) resolvePackageImports(request, dir string, format Format) (string, bool) {
	pkg := r.findPackageJSON(dir)
	if pkg == nil || pkg.imports == nil {
		return "", false
	}
	target, ok := matchSubpathMap(pkg.imports, request, format.Conditions())
	if !ok {
		return "", false
	}
	if strings.HasPrefix(target, "./") || strings.HasPrefix(target, "../") {
		return r.loadExact(filepath.Join(pkg.dir, filepath.FromSlash(target)))
	}
	return r.resolvePackage(target, pkg.dir, format)
}

// loadExact accepts a file named by an exports target, allowing the
// TypeScript extension aliases for sources that have not been compiled yet.
func (r *Resolver) loadExact(p string) (string, bool) {
	if isFile(p) {
		return p, true
	}
	return r.loadAlias(p)
}

func (r *Resolver) loadAsFileOrDir(p string, format Format) (string, bool) {
	if f, ok := r.loadAsFile(p); ok {
		return f, true
	}
	return r.loadAsDirectory(p, format)
}

func (r *Resolver) loadAsFile(p string) (string, bool) {
	if isFile(p) {
		return p, true
	}
	if f, ok := r.loadAlias(p); ok {
		return f, true
	}
	for _, ext := range r.extensions {
		if isFile(p + ext) {
			return p + ext, true
		}
	}
	return "", false
}

func (r *Resolver) loadAlias(p string) (string, bool) {
	ext := filepath.Ext(p)
	aliases, ok := extensionAliases[ext]
	if !ok {
		return "", false
	}
	trimmed := strings.TrimSuffix(p, ext)
	for _, alias := range aliases {
		if isFile(trimmed + alias) {
			return trimmed + alias, true
		}
	}
	return "", false
}

func (r *Resolver) loadAsDirectory(p string, format Format) (string, bool) {
	if !isDir(p) {
		return "", false
	}
	if pkg := r.readPackageJSON(p); pkg != nil {
		for _, field := range format.MainFields() {
			main := pkg.field(field)
			if main == "" {
				continue
			}
			target := filepath.Join(p, filepath.FromSlash(main))
			if f, ok := r.loadAsFile(target); ok {
				return f, true
			}
			if f, ok := r.loadIndex(target); ok {
				return f, true
			}
		}
	}
	return r.loadIndex(p)
}

func (r *Resolver) loadIndex(dir string) (string, bool) {
	for _, ext := range r.extensions {
		candidate := filepath.Join(dir, "index"+ext)
		if isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (r *Resolver) findPackageJSON(dir string) *packageJSON {
	for d := dir; ; {
		if pkg := r.readPackageJSON(d); pkg != nil {
			return pkg
		}
		parent := filepath.Dir(d)
		if parent == d {
			return nil
		}
		d = parent
	}
}

// readPackageJSON returns the parsed package.json in dir, or nil when it is
// missing or malformed.
func (r *Resolver) readPackageJSON(dir string) *packageJSON {
	if pkg, ok := r.packages.Get(dir); ok {
		return pkg
	}
	var pkg *packageJSON
	if data, err := os.ReadFile(filepath.Join(dir, "package.json")); err == nil {
		pkg, _ = parsePackageJSON(dir, data)
	}
	r.packages.Add(dir, pkg)
	return pkg
}

// PackageName returns the name and directory of the nearest package.json at
// or above dir that declares a name. Nested package.json files without a
// name, common for "type" overrides, are skipped.
func (r *Resolver) PackageName(dir string) (name, pkgDir string) {
	for d := dir; ; {
		if pkg := r.readPackageJSON(d); pkg != nil && pkg.name != "" {
			return pkg.name, pkg.dir
		}
		parent := filepath.Dir(d)
		if parent == d {
			return "", ""
		}
		d = parent
	}
}

func (r *Resolver) inModules(path string) bool {
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if segment == "node_modules" {
			return true
		}
		for _, m := range r.opts.Modules {
			if segment == m {
				return true
			}
		}
	}
	return false
}

// SplitQuery separates a trailing "?query" from a specifier.
func SplitQuery(specifier string) (request, query string) {
	if i := strings.IndexByte(specifier, '?'); i >= 0 {
		return specifier[:i], specifier[i:]
	}
	return specifier, ""
}

// SplitPackageName splits a bare specifier into its package name and the
// subpath below it: "@scope/pkg/a/b" becomes ("@scope/pkg", "a/b").
func SplitPackageName(specifier string) (name, subpath string) {
	parts := strings.SplitN(specifier, "/", 3)
	if strings.HasPrefix(specifier, "@") && len(parts) >= 2 {
		name = parts[0] + "/" + parts[1]
		if len(parts) == 3 {
			subpath = parts[2]
		}
		return name, subpath
	}
	name, subpath, _ = strings.Cut(specifier, "/")
	return name, subpath
}

func isPathLike(request string) bool {
	return request == "." || request == ".." ||
		strings.HasPrefix(request, "./") || strings.HasPrefix(request, "../") ||
		strings.HasPrefix(request, "/") || filepath.IsAbs(request)
}

// findUpDir returns the nearest existing directory at or above path.
func findUpDir(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	for d := abs; ; {
		if isDir(d) {
			return d
		}
		parent := filepath.Dir(d)
		if parent == d {
			return ""
		}
		d = parent
	}
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
