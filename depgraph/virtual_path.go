package depgraph

import (
	"path/filepath"
	"strings"
)

// commonPathPrefix returns the longest common path-component prefix of a and b.
func commonPathPrefix(a, b string) string {
	as := splitPath(a)
	bs := splitPath(b)
	n := 0
	for n < len(as) && n < len(bs) && as[n] == bs[n] {
		n++
	}
	if n == 0 {
		return ""
	}
	prefix := strings.Join(as[:n], string(filepath.Separator))
	if filepath.IsAbs(a) && !strings.HasPrefix(prefix, string(filepath.Separator)) && filepath.VolumeName(a) == "" {
		prefix = string(filepath.Separator) + prefix
	}
	return prefix
}

func splitPath(p string) []string {
	p = filepath.Clean(p)
	parts := strings.Split(p, string(filepath.Separator))
	if len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}
	return parts
}

// replaceCommonPrefix strips the prefix path shares with from and joins the
// remainder onto to.
func replaceCommonPrefix(path, from, to string) string {
	prefix := commonPathPrefix(path, from)
	if prefix == "" {
		return filepath.Join(to, path)
	}
	rest, err := filepath.Rel(prefix, path)
	if err != nil {
		return filepath.Join(to, path)
	}
	return filepath.Join(to, rest)
}

// isWithin reports whether path is root or lies below it.
func isWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// relativeSpecifier expresses target relative to fromDir as an import
// specifier: forward slashes, and a leading "./" unless it already starts
// with "./" or "../".
func relativeSpecifier(fromDir, target string) string {
	rel, err := filepath.Rel(fromDir, target)
	if err != nil {
		return ""
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "./") && !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel
}
