package game

import (
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// 胜利方
type Winner string

const (
	WINNER_NONE      Winner = ""
	WINNER_TOWN      Winner = "Town"
	WINNER_ASSASSINS Winner = "Assassins"
	WINNER_JESTER    Winner = "Jester"
)

// Rules 是一局游戏的可调规则
type Rules struct {
	AssignJester      bool
	TieBreaker        TieBreaker
	VoteTimeout       time.Duration
	TickInterval      time.Duration
	CloseWhenAllVoted bool
}

func DefaultRules(rng *rand.Rand) Rules {
	return Rules{
		TieBreaker:        NewRandomTieBreaker(rng),
		VoteTimeout:       30 * time.Second,
		TickInterval:      time.Second,
		CloseWhenAllVoted: true,
	}
}

// tieBreaker 返回平票策略，未设置时默认随机淘汰
func (gc *GameContext) tieBreaker() TieBreaker {
	if gc.Rules.TieBreaker == nil {
		if gc.Rng == nil {
			gc.Rng = NewRand(time.Now().UnixNano())
		}
		gc.Rules.TieBreaker = NewRandomTieBreaker(gc.Rng)
	}

	return gc.Rules.TieBreaker
}

// Ballot 是人类玩家在白天提交的一张票，Reply 非空时会收到处理结果。
// Round 为 0 时不校验轮次，否则只在同一轮的白天有效。
type Ballot struct {
	Round    int
	VoterID  string
	TargetID string
	Reply    chan<- error
}

func (b Ballot) answer(err error) {
	if b.Reply == nil {
		return
	}

	select {
	case b.Reply <- err:
	default:
		zap.L().Warn("投票回执发送失败：回执通道已满", zap.String("voter_id", b.VoterID))
	}
}

// GameContext 由当前阶段独占，阶段进行中不允许外部修改
type GameContext struct {
	GameID    string
	GameStage string
	Round     int

	Roster *Roster
	Rules  Rules
	Rng    *rand.Rand

	Display DisplaySink
	Clock   Clock

	// 每个玩家的决策来源，未配置的玩家使用 DefaultDecider
	Deciders       map[string]DecisionSource
	DefaultDecider DecisionSource
	// 人类玩家白天通过 Ballots 投票，不会被自动代投
	Humans  map[string]bool
	Ballots <-chan Ballot

	Winner    Winner
	LastNight NightOutcome
	LastDay   DayOutcome
}

func (gc *GameContext) DeciderFor(playerID string) DecisionSource {
	if d, ok := gc.Deciders[playerID]; ok && d != nil {
		return d
	}

	return gc.DefaultDecider
}

func (gc *GameContext) IsHuman(playerID string) bool {
	return gc.Humans[playerID]
}

func (gc *GameContext) Emit(kind, subject, detail string) {
	gc.EmitTo("", kind, subject, detail)
}

func (gc *GameContext) EmitTo(audience, kind, subject, detail string) {
	if gc.Display == nil {
		return
	}

	gc.Display.Emit(Event{
		Phase:    gc.GameStage,
		Kind:     kind,
		Subject:  subject,
		Detail:   detail,
		Audience: audience,
		Round:    gc.Round,
	})
}

func (gc *GameContext) nameOf(playerID string) string {
	if p, ok := gc.Roster.Get(playerID); ok {
		return p.Name
	}

	return playerID
}
