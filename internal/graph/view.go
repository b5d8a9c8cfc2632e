package graph

// View is a bounded neighborhood ready to render.
type View struct {
	Nodes     []Node `json:"nodes"`
	Edges     []Edge `json:"edges"`
	Truncated bool   `json:"truncated"`
}

// Truncate keeps the first maxNodes nodes and drops every edge that lost an
// endpoint. The caller puts the requested company first, so it survives.
// truncated is true only when nodes were removed.
func Truncate(nodes []Node, edges []Edge, maxNodes int) ([]Node, []Edge, bool) {
	if maxNodes < 0 {
		maxNodes = 0
	}
	if len(nodes) <= maxNodes {
		return nodes, edges, false
	}
	kept := nodes[:maxNodes:maxNodes]
	keep := make(map[string]bool, maxNodes)
	for _, n := range kept {
		keep[n.ID] = true
	}
	return kept, retainedEdges(edges, keep), true
}

// Bounded applies Truncate and wraps the result.
func Bounded(nodes []Node, edges []Edge, maxNodes int) View {
	n, e, truncated := Truncate(nodes, edges, maxNodes)
	return View{Nodes: n, Edges: e, Truncated: truncated}
}
