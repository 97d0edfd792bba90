package service

import "errors"

var (
	ErrGameNotFound  = errors.New("game not found")
	ErrGameStarted   = errors.New("game already started")
	ErrGameNotActive = errors.New("game is not running")
	ErrInvalidSeat   = errors.New("invalid human seat")
	ErrEmptyName     = errors.New("player name must not be empty")

	// 夜晚行动与玩家当前的身份、存活状态或游戏阶段不符
	ErrActionNotAllowed = errors.New("night action not allowed")
)
