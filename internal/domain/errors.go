package domain

import "errors"

var (
	ErrLotNotFound  = errors.New("lot not found")
	ErrLotShipped   = errors.New("lot already shipped")
	ErrUnknownLane  = errors.New("unknown lane")
	ErrInvalidLot   = errors.New("invalid lot")
	ErrNodeNotFound = errors.New("node not found")
)
