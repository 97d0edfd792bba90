package game

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
)

// 决策动作类型
type Action string

const (
	ACTION_ASSASSIN_KILL   Action = "AssassinKill"
	ACTION_ALCHEMIST_SAVE  Action = "AlchemistSave"
	ACTION_ALCHEMIST_KILL  Action = "AlchemistKill"
	ACTION_PROPHET_INSPECT Action = "ProphetInspect"
	ACTION_VOTE            Action = "Vote"
)

// NightRole 返回执行该夜晚行动的身份，白天投票等非夜晚行动返回 false
func (a Action) NightRole() (Role, bool) {
	switch a {
	case ACTION_ASSASSIN_KILL:
		return ROLE_ASSASSIN, true
	case ACTION_ALCHEMIST_SAVE, ACTION_ALCHEMIST_KILL:
		return ROLE_ALCHEMIST, true
	case ACTION_PROPHET_INSPECT:
		return ROLE_PROPHET, true
	default:
		return "", false
	}
}

type DecisionRequest struct {
	Round      int
	Action     Action
	ActorID    string
	Candidates []string
}

// DecisionSource 在候选玩家中选出一个，返回 false 表示放弃（包括超时）。
// 返回的 ID 不在候选集合内时按放弃处理。
type DecisionSource interface {
	Decide(ctx context.Context, req DecisionRequest) (string, bool)
}

// RandomDecider 在候选中均匀随机选择
type RandomDecider struct {
	rng *rand.Rand
}

func NewRandomDecider(rng *rand.Rand) *RandomDecider {
	return &RandomDecider{rng: rng}
}

func (rd *RandomDecider) Decide(ctx context.Context, req DecisionRequest) (string, bool) {
	if len(req.Candidates) == 0 || ctx.Err() != nil {
		return "", false
	}

	return pickOne(rd.rng, req.Candidates), true
}

type choice struct {
	round    int
	action   Action
	targetID string
}

// ChannelDecider 等待外部输入（人类玩家），超时视为放弃。
// 每种动作只保留最近一次提交的选择，不同动作之间互不影响。
type ChannelDecider struct {
	mu      sync.Mutex
	pending map[Action]choice
	notify  chan struct{}
	clock   Clock
	timeout time.Duration
}

func NewChannelDecider(clock Clock, timeout time.Duration) *ChannelDecider {
	return &ChannelDecider{
		pending: make(map[Action]choice),
		notify:  make(chan struct{}, 1),
		clock:   clock,
		timeout: timeout,
	}
}

// Offer 提交一次选择，targetID 为空表示放弃本次行动。
// round 为 0 时不校验轮次，否则只会被同一轮的请求采纳。
// 同一动作的新选择覆盖尚未被采纳的旧选择。
func (cd *ChannelDecider) Offer(round int, action Action, targetID string) {
	cd.mu.Lock()
	cd.pending[action] = choice{round: round, action: action, targetID: targetID}
	cd.mu.Unlock()

	select {
	case cd.notify <- struct{}{}:
	default:
	}
}

// take 取出与请求匹配的选择，过期轮次的选择直接丢弃，后续轮次的选择继续保留
func (cd *ChannelDecider) take(req DecisionRequest) (choice, bool) {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	c, ok := cd.pending[req.Action]
	if !ok {
		return choice{}, false
	}

	if c.round != 0 && c.round > req.Round {
		return choice{}, false
	}

	delete(cd.pending, req.Action)

	if c.round != 0 && c.round < req.Round {
		zap.L().Debug(
			"丢弃过期轮次的选择",
			zap.String("action", string(c.action)),
			zap.Int("round", c.round),
		)
		return choice{}, false
	}

	return c, true
}

func (cd *ChannelDecider) Decide(ctx context.Context, req DecisionRequest) (string, bool) {
	var deadline <-chan time.Time
	if cd.timeout > 0 {
		deadline = cd.clock.After(cd.timeout)
	}

	for {
		if ctx.Err() != nil {
			return "", false
		}

		if c, ok := cd.take(req); ok {
			if c.targetID == "" {
				return "", false
			}

			if contains(req.Candidates, c.targetID) {
				return c.targetID, true
			}

			zap.L().Debug(
				"忽略不在候选中的选择",
				zap.String("action", string(req.Action)),
				zap.String("target_id", c.targetID),
			)
		}

		select {
		case <-cd.notify:
		case <-deadline:
			return "", false
		case <-ctx.Done():
			return "", false
		}
	}
}

// ScriptedDecider 按预设脚本依次作答，用于回放和测试
type ScriptedDecider struct {
	mu     sync.Mutex
	script map[Action][]string
}

func NewScriptedDecider() *ScriptedDecider {
	return &ScriptedDecider{script: make(map[Action][]string)}
}

// Then 为某个动作追加一个答案，空字符串表示放弃
func (sd *ScriptedDecider) Then(action Action, targetID string) *ScriptedDecider {
	sd.mu.Lock()
	defer sd.mu.Unlock()

	sd.script[action] = append(sd.script[action], targetID)
	return sd
}

func (sd *ScriptedDecider) Decide(ctx context.Context, req DecisionRequest) (string, bool) {
	sd.mu.Lock()
	defer sd.mu.Unlock()

	queue := sd.script[req.Action]
	if len(queue) == 0 {
		return "", false
	}

	targetID := queue[0]
	sd.script[req.Action] = queue[1:]

	if targetID == "" || !contains(req.Candidates, targetID) {
		return "", false
	}

	return targetID, true
}
