package resolver

import (
	"slices"
	"strings"
)

// matchSubpathMap resolves subpath (such as "." or "./feature" for exports,
// "#internal" for imports) against a package.json "exports" or "imports"
// value. It returns the target with any "*" substituted.
func matchSubpathMap(value any, subpath string, conditions []string) (string, bool) {
	m, isMap := value.(*orderedMap)
	if !isMap || !hasSubpathKeys(m) {
		// Sugar: "exports": "./index.js" or a condition object.
		if subpath != "." {
			return "", false
		}
		return resolveTarget(value, "", conditions)
	}

	if target, ok := m.Get(subpath); ok && !strings.Contains(subpath, "*") {
		return resolveTarget(target, "", conditions)
	}

	bestKey, bestStar := "", ""
	for _, key := range m.keys {
		prefix, suffix, hasStar := strings.Cut(key, "*")
		switch {
		case hasStar:
			if strings.Contains(suffix, "*") {
				continue
			}
			if !strings.HasPrefix(subpath, prefix) || !strings.HasSuffix(subpath, suffix) {
				continue
			}
			if len(subpath) < len(prefix)+len(suffix) {
				continue
			}
			if patternKeyLess(bestKey, key) {
				bestKey = key
				bestStar = subpath[len(prefix) : len(subpath)-len(suffix)]
			}
		case strings.HasSuffix(key, "/") && strings.HasPrefix(subpath, key):
			// Deprecated folder mapping: "./dir/": "./lib/dir/".
			if patternKeyLess(bestKey, key) {
				bestKey = key
				bestStar = subpath[len(key):]
			}
		}
	}
	if bestKey == "" {
		return "", false
	}
	target, _ := m.Get(bestKey)
	if strings.HasSuffix(bestKey, "/") && !strings.Contains(bestKey, "*") {
		base, ok := resolveTarget(target, "", conditions)
		if !ok {
			return "", false
		}
		return base + bestStar, true
	}
	return resolveTarget(target, bestStar, conditions)
}

func hasSubpathKeys(m *orderedMap) bool {
	for _, key := range m.keys {
		if strings.HasPrefix(key, ".") || strings.HasPrefix(key, "#") {
			return true
		}
	}
	return false
}

// patternKeyLess reports whether candidate is more specific than current,
// preferring the longer prefix before the "*" and then the longer key.
func patternKeyLess(current, candidate string) bool {
	if current == "" {
		return true
	}
	curPrefix, _, _ := strings.Cut(current, "*")
	candPrefix, _, _ := strings.Cut(candidate, "*")
	if len(candPrefix) != len(curPrefix) {
		return len(candPrefix) > len(curPrefix)
	}
	return len(candidate) > len(current)
}

// resolveTarget walks a target value. Strings are substituted, arrays are
// tried in order, and condition objects are matched in key order where
// "default" always applies.
func resolveTarget(target any, star string, conditions []string) (string, bool) {
	switch t := target.(type) {
	case string:
		return strings.ReplaceAll(t, "*", star), true
	case []any:
		for _, item := range t {
			if s, ok := resolveTarget(item, star, conditions); ok {
				return s, true
			}
		}
	case *orderedMap:
		for _, key := range t.keys {
			if key != "default" && !slices.Contains(conditions, key) {
				continue
			}
			if s, ok := resolveTarget(t.values[key], star, conditions); ok {
				return s, true
			}
		}
	}
	return "", false
}
