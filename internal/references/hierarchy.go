package references

import "sort"

// HierarchyStats summarizes a loaded reference tree.
type HierarchyStats struct {
	TotalDocuments int      `json:"total_documents"`
	MaxDepth       int      `json:"max_depth"`
	Namespaces     []string `json:"namespaces"`
}

// FlattenHierarchy lists node paths depth-first, each node before its
// children and children left to right.
func FlattenHierarchy(nodes []*HierarchicalContent) []string {
	out := make([]string, 0, len(nodes))
	walk(nodes, func(n *HierarchicalContent) {
		out = append(out, n.Path)
	})
	return out
}

// GetHierarchyStats counts nodes, records the deepest Depth seen and
// collects the distinct namespaces in sorted order.
func GetHierarchyStats(nodes []*HierarchicalContent) HierarchyStats {
	stats := HierarchyStats{Namespaces: []string{}}
	seen := make(map[string]bool)
	walk(nodes, func(n *HierarchicalContent) {
		stats.TotalDocuments++
		if n.Depth > stats.MaxDepth {
			stats.MaxDepth = n.Depth
		}
		if !seen[n.Namespace] {
			seen[n.Namespace] = true
			stats.Namespaces = append(stats.Namespaces, n.Namespace)
		}
	})
	sort.Strings(stats.Namespaces)
	return stats
}

func walk(nodes []*HierarchicalContent, visit func(*HierarchicalContent)) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		visit(n)
		walk(n.Children, visit)
	}
}
