package dto

type NodePositionRequest struct {
	ID       string           `json:"id"`
	Position PositionResponse `json:"position"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}
