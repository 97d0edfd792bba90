package game

import (
	"go.uber.org/zap"
)

// 展示事件类型
const (
	EVENT_PHASE_CHANGE   = "PhaseChange"
	EVENT_ROLE_ASSIGNED  = "RoleAssigned"
	EVENT_AWAIT_ACTION   = "AwaitAction"
	EVENT_SKIPPED        = "Skipped"
	EVENT_DEATH          = "Death"
	EVENT_SAVED          = "Saved"
	EVENT_REVEAL         = "Reveal"
	EVENT_VOTE           = "Vote"
	EVENT_INVALID_VOTE   = "InvalidVote"
	EVENT_VOTE_COUNTS    = "VoteCounts"
	EVENT_COUNTDOWN      = "Countdown"
	EVENT_VOTED_OUT      = "VotedOut"
	EVENT_NO_ELIMINATION = "NoElimination"
	EVENT_WIN            = "Win"
	EVENT_ABORTED        = "Aborted"
)

// Event 是核心向外输出的结构化事件，不包含任何展示格式。
// Audience 为空表示公开事件，否则只应展示给对应玩家。
type Event struct {
	Phase    string `json:"phase"`
	Kind     string `json:"kind"`
	Subject  string `json:"subject,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Audience string `json:"audience,omitempty"`
	Round    int    `json:"round"`
}

func (e Event) VisibleTo(playerID string) bool {
	return e.Audience == "" || e.Audience == playerID
}

type DisplaySink interface {
	Emit(event Event)
}

// LogDisplay 把事件写入日志，用于无界面运行
type LogDisplay struct {
	GameID string
}

func (ld LogDisplay) Emit(event Event) {
	zap.L().Info(
		event.Detail,
		zap.String("game_id", ld.GameID),
		zap.String("phase", event.Phase),
		zap.String("kind", event.Kind),
		zap.String("subject", event.Subject),
		zap.String("audience", event.Audience),
		zap.Int("round", event.Round),
	)
}

type MultiDisplay []DisplaySink

func (md MultiDisplay) Emit(event Event) {
	for _, sink := range md {
		if sink != nil {
			sink.Emit(event)
		}
	}
}
