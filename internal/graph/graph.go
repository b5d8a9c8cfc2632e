// Package graph builds the corporate relationship graph: companies and the
// partners that link them.
package graph

import (
	"sort"

	"radar/internal/domain"
	id "radar/pkg/domain"
)

type NodeKind string

const (
	NodeCompany NodeKind = "company"
	NodePartner NodeKind = "partner"
)

type Node struct {
	ID    string   `json:"id"`
	Kind  NodeKind `json:"kind"`
	Label string   `json:"label"`
}

// Edge levels.
const (
	LevelMembership    = 0 // partner -> company
	LevelSharedPartner = 1 // company -> company, lower identifier first
)

type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Level  int    `json:"level"`
	Label  string `json:"label,omitempty"`
}

// Graph is the batch-built relationship graph. Capped is set when the node
// cap removed nodes.
type Graph struct {
	Nodes  []Node
	Edges  []Edge
	Capped bool
}

func CompanyNodeID(cnpj id.CNPJ) string {
	return "PJ:" + cnpj.String()
}

func PartnerNodeID(p domain.Partner) string {
	return "PF:" + p.PersonKey()
}

// Build creates the graph over companies and partners. Companies with no
// partner rows are left out, they have no edges. maxNodes <= 0 disables the
// cap.
func Build(companies []domain.Company, partners []domain.Partner, maxNodes int) Graph {
	byRoot := make(map[string][]domain.Company)
	for _, c := range companies {
		byRoot[c.CNPJ.Root()] = append(byRoot[c.CNPJ.Root()], c)
	}

	companyNodes := make(map[string]Node)
	partnerNodes := make(map[string]Node)
	membership := make(map[[2]string]bool)
	personCompanies := make(map[string]map[string]domain.Company)
	personLabel := make(map[string]string)

	var edges []Edge
	for _, p := range partners {
		members := byRoot[p.CompanyRoot]
		if len(members) == 0 {
			continue
		}
		pid := PartnerNodeID(p)
		if _, ok := partnerNodes[pid]; !ok {
			partnerNodes[pid] = Node{ID: pid, Kind: NodePartner, Label: p.NormalizedName()}
			personCompanies[pid] = make(map[string]domain.Company)
			personLabel[pid] = p.NormalizedName()
		}
		for _, c := range members {
			cid := CompanyNodeID(c.CNPJ)
			companyNodes[cid] = Node{ID: cid, Kind: NodeCompany, Label: c.LegalName}
			personCompanies[pid][cid] = c
			if membership[[2]string{pid, cid}] {
				continue
			}
			membership[[2]string{pid, cid}] = true
			edges = append(edges, Edge{Source: pid, Target: cid, Level: LevelMembership, Label: p.Role})
		}
	}

	shared := make(map[[2]string]string)
	for pid, cs := range personCompanies {
		ids := make([]string, 0, len(cs))
		for cid := range cs {
			ids = append(ids, cid)
		}
		sort.Strings(ids)
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				if cs[ids[i]].CNPJ.Root() == cs[ids[j]].CNPJ.Root() {
					continue
				}
				key := [2]string{ids[i], ids[j]}
				if label, ok := shared[key]; !ok || personLabel[pid] < label {
					shared[key] = personLabel[pid]
				}
			}
		}
	}
	for key, label := range shared {
		edges = append(edges, Edge{Source: key[0], Target: key[1], Level: LevelSharedPartner, Label: label})
	}
	sortEdges(edges)

	nodes := make([]Node, 0, len(companyNodes)+len(partnerNodes))
	for _, n := range companyNodes {
		nodes = append(nodes, n)
	}
	for _, n := range partnerNodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	g := Graph{Nodes: nodes, Edges: edges}
	if maxNodes > 0 && len(nodes) > maxNodes {
		g = capByDegree(g, maxNodes)
	}
	return g
}

// capByDegree keeps the maxNodes nodes with the most edges (ties by ID) and
// drops edges with a removed endpoint. Node order is preserved.
func capByDegree(g Graph, maxNodes int) Graph {
	degree := make(map[string]int, len(g.Nodes))
	for _, e := range g.Edges {
		degree[e.Source]++
		degree[e.Target]++
	}
	ranked := make([]Node, len(g.Nodes))
	copy(ranked, g.Nodes)
	sort.SliceStable(ranked, func(i, j int) bool {
		di, dj := degree[ranked[i].ID], degree[ranked[j].ID]
		if di != dj {
			return di > dj
		}
		return ranked[i].ID < ranked[j].ID
	})
	keep := make(map[string]bool, maxNodes)
	for _, n := range ranked[:maxNodes] {
		keep[n.ID] = true
	}

	out := Graph{Capped: true}
	for _, n := range g.Nodes {
		if keep[n.ID] {
			out.Nodes = append(out.Nodes, n)
		}
	}
	out.Edges = retainedEdges(g.Edges, keep)
	return out
}

func retainedEdges(edges []Edge, keep map[string]bool) []Edge {
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if keep[e.Source] && keep[e.Target] {
			out = append(out, e)
		}
	}
	return out
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.Level != b.Level {
			return a.Level < b.Level
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Target < b.Target
	})
}
