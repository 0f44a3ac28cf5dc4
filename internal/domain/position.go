package domain

// Diagram coordinates of a node.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
