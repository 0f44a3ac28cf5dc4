package domain

// Represents a process station in the manufacturing flow.
// Lots waiting in a lane are stacked vertically below its anchor, one slot
// every Spacing units starting StartOffset below the anchor.
type Lane struct {
	Name        string  `json:"name" yaml:"name"`
	X           float64 `json:"x" yaml:"x"`
	Y           float64 `json:"y" yaml:"y"`
	StartOffset float64 `json:"startOffset" yaml:"startOffset"`
	Spacing     float64 `json:"spacing" yaml:"spacing"`
	XShift      float64 `json:"xShift" yaml:"xShift"`
}

// SlotY returns the vertical coordinate of slot k.
func (l Lane) SlotY(k int) float64 {
	return l.Y + l.StartOffset + float64(k)*l.Spacing
}

// SlotX is the horizontal coordinate shared by every lot in the lane.
func (l Lane) SlotX() float64 { return l.X + l.XShift }
