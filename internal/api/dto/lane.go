package dto

type LaneResponse struct {
	Name        string    `json:"name"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	StartOffset float64   `json:"startOffset"`
	Spacing     float64   `json:"spacing"`
	XShift      float64   `json:"xShift"`
	Occupied    []float64 `json:"occupied"`
}

type ListLanesResponse struct {
	Lanes []LaneResponse `json:"lanes"`
}

type RepackResponse struct {
	Lane  string        `json:"lane"`
	Moved []LotResponse `json:"moved"`
}
