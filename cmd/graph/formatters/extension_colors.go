package formatters

import (
	"path"
	"sort"
)

var availableColors = []string{
	"lightblue", "lightyellow", "mistyrose", "lightsalmon",
	"lightpink", "lavender", "peachpuff", "plum", "powderblue", "khaki",
	"palegoldenrod", "thistle",
}

// nodeColors assigns a fill color per node. Nodes with the most common
// extension stay white so that the odd ones out stand out.
func nodeColors(nodes []string) map[string]string {
	counts := make(map[string]int)
	for _, n := range nodes {
		counts[path.Ext(n)]++
	}

	extensions := make([]string, 0, len(counts))
	for ext := range counts {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)

	majority, maxCount := "", 0
	for _, ext := range extensions {
		if counts[ext] > maxCount {
			majority, maxCount = ext, counts[ext]
		}
	}

	extensionColors := make(map[string]string)
	i := 0
	for _, ext := range extensions {
		if ext == majority || ext == "" {
			extensionColors[ext] = "white"
			continue
		}
		extensionColors[ext] = availableColors[i%len(availableColors)]
		i++
	}

	colors := make(map[string]string, len(nodes))
	for _, n := range nodes {
		colors[n] = extensionColors[path.Ext(n)]
	}
	return colors
}
