package game

import "errors"

var (
	// 开局人数不足，致命错误
	ErrInsufficientPlayers = errors.New("insufficient players")
	// 投票者或被投票者不存在或已死亡，原有投票保持不变
	ErrInvalidVote = errors.New("invalid vote")
	// 夜晚子阶段没有可选目标，跳过该子阶段
	ErrNoEligibleTarget = errors.New("no eligible target")

	ErrVotingClosed  = errors.New("voting is closed")
	ErrUnknownPlayer = errors.New("unknown player")
)
