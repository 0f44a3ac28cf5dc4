package domain

// NodeTypeProduct marks diagram nodes that mirror a registered lot.
const NodeTypeProduct = "product"

// A diagram node. Data is opaque to the service except for product nodes.
type Node struct {
	ID       string         `json:"id"`
	Type     string         `json:"type,omitempty"`
	Position Position       `json:"position"`
	Data     map[string]any `json:"data,omitempty"`
}

type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
	Type         string `json:"type,omitempty"`
	Animated     bool   `json:"animated,omitempty"`
}

// The process flow diagram as persisted in the graph file.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NewGraph returns an empty graph whose collections encode as [] rather than null.
func NewGraph() *Graph {
	return &Graph{Nodes: []Node{}, Edges: []Edge{}}
}

// NodeIndex returns the index of the node with the given id or -1.
func (g *Graph) NodeIndex(id string) int {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// RemoveNode drops the node and reports whether it existed.
func (g *Graph) RemoveNode(id string) bool {
	i := g.NodeIndex(id)
	if i < 0 {
		return false
	}
	g.Nodes = append(g.Nodes[:i], g.Nodes[i+1:]...)
	return true
}

// UpsertNode replaces the node with the same id or appends it.
func (g *Graph) UpsertNode(n Node) {
	if i := g.NodeIndex(n.ID); i >= 0 {
		g.Nodes[i] = n
		return
	}
	g.Nodes = append(g.Nodes, n)
}

// ProductNode builds the diagram node mirroring a lot.
func ProductNode(l *Lot) Node {
	return Node{
		ID:       l.ID,
		Type:     NodeTypeProduct,
		Position: l.Position,
		Data:     ProductNodeData(l),
	}
}

// ProductNodeData is the data payload the diagram renders for a lot.
func ProductNodeData(l *Lot) map[string]any {
	data := map[string]any{
		"id":              l.ID,
		"label":           l.ModelName,
		"modelName":       l.ModelName,
		"lotNo":           l.LotNumber,
		"quantity":        l.Quantity,
		"route":           l.Route,
		"currentPosition": l.Lane,
		"status":          string(l.Status),
		"registeredAt":    l.RegisteredAt,
		"isHolding":       l.IsHolding,
		"holdingMemo":     nil,
	}
	if l.HoldingMemo != nil {
		data["holdingMemo"] = *l.HoldingMemo
	}
	if l.Afvi != nil {
		data["afviStatus"] = l.Afvi.Clone()
	}
	return data
}
