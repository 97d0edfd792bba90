package game

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// 游戏总体分为 4 个阶段，分别是：
// 1. 初始阶段（Init）：分配身份
// 2. 夜晚阶段（Night）：刺客、炼金术士、先知依次行动，最后统一结算
// 3. 白天阶段（Day）：所有存活玩家投票，票数最多者出局
// 4. 结束阶段（Finished）：宣布胜利方
// 夜晚与白天交替进行，每个阶段结束后判定胜负。
const (
	STAGE_INIT     = "Init"
	STAGE_NIGHT    = "Night"
	STAGE_DAY      = "Day"
	STAGE_FINISHED = "Finished"
)

type StageHandler interface {
	Stage() string

	OnEnter(gc *GameContext)
	OnHandle(ctx context.Context, gc *GameContext) error
	OnExit(gc *GameContext)

	SetOnSwitch(func(nextStage string))
}

// 初始阶段负责分配身份
type initStageHandler struct {
	onSwitch func(string)
}

func NewInitStageHandler() *initStageHandler {
	return &initStageHandler{}
}

func (ish *initStageHandler) Stage() string {
	return STAGE_INIT
}

func (ish *initStageHandler) OnEnter(gc *GameContext) {
	gc.GameStage = STAGE_INIT
	gc.Round = 0
	gc.Winner = WINNER_NONE
}

func (ish *initStageHandler) OnHandle(ctx context.Context, gc *GameContext) error {
	if err := AssignRoles(gc.Roster, gc.Rng, WithJester(gc.Rules.AssignJester)); err != nil {
		return err
	}

	// 每位玩家只会收到自己的身份
	for _, p := range gc.Roster.Players() {
		gc.EmitTo(p.ID, EVENT_ROLE_ASSIGNED, p.ID, string(p.Role))
	}

	gc.Emit(EVENT_PHASE_CHANGE, "", "Roles assigned! Game starts...")

	ish.onSwitch(STAGE_NIGHT)

	return nil
}

func (ish *initStageHandler) OnExit(gc *GameContext) {
}

func (ish *initStageHandler) SetOnSwitch(onSwitch func(string)) {
	ish.onSwitch = onSwitch
}

// 夜晚阶段处理器
type nightStageHandler struct {
	onSwitch func(string)
}

func NewNightStageHandler() *nightStageHandler {
	return &nightStageHandler{}
}

func (nsh *nightStageHandler) Stage() string {
	return STAGE_NIGHT
}

func (nsh *nightStageHandler) OnEnter(gc *GameContext) {
	gc.Round++
	gc.LastNight = NightOutcome{}

	gc.Emit(EVENT_PHASE_CHANGE, "", "Night falls. Shadows creep over the village...")
}

func (nsh *nightStageHandler) OnHandle(ctx context.Context, gc *GameContext) error {
	outcome, err := NewNightResolver(gc).Resolve(ctx)
	if err != nil {
		return err
	}

	gc.LastNight = outcome

	// 夜晚结束后判定胜负
	if winner := EvaluateWin(gc.Roster); winner != WINNER_NONE {
		gc.Winner = winner
		nsh.onSwitch(STAGE_FINISHED)
		return nil
	}

	nsh.onSwitch(STAGE_DAY)

	return nil
}

func (nsh *nightStageHandler) OnExit(gc *GameContext) {
}

func (nsh *nightStageHandler) SetOnSwitch(onSwitch func(string)) {
	nsh.onSwitch = onSwitch
}

// 白天阶段处理器
type dayStageHandler struct {
	onSwitch func(string)
}

func NewDayStageHandler() *dayStageHandler {
	return &dayStageHandler{}
}

func (dsh *dayStageHandler) Stage() string {
	return STAGE_DAY
}

func (dsh *dayStageHandler) OnEnter(gc *GameContext) {
	gc.LastDay = DayOutcome{}

	gc.Emit(EVENT_PHASE_CHANGE, "", "Day Phase: Vote for a player!")
}

func (dsh *dayStageHandler) OnHandle(ctx context.Context, gc *GameContext) error {
	outcome, err := NewDayPhase(gc).Run(ctx)
	if err != nil {
		return err
	}

	gc.LastDay = outcome

	// 小丑被投出时直接获胜，优先于常规胜负判定
	if outcome.JesterWin {
		gc.Winner = WINNER_JESTER
		dsh.onSwitch(STAGE_FINISHED)
		return nil
	}

	if winner := EvaluateWin(gc.Roster); winner != WINNER_NONE {
		gc.Winner = winner
		dsh.onSwitch(STAGE_FINISHED)
		return nil
	}

	dsh.onSwitch(STAGE_NIGHT)

	return nil
}

func (dsh *dayStageHandler) OnExit(gc *GameContext) {
}

func (dsh *dayStageHandler) SetOnSwitch(onSwitch func(string)) {
	dsh.onSwitch = onSwitch
}

// 结束阶段处理器
type finishStageHandler struct {
	onSwitch func(string)
}

func NewFinishStageHandler() *finishStageHandler {
	return &finishStageHandler{}
}

func (fsh *finishStageHandler) Stage() string {
	return STAGE_FINISHED
}

func (fsh *finishStageHandler) OnEnter(gc *GameContext) {
	var detail string

	switch gc.Winner {
	case WINNER_TOWN:
		detail = "Town wins!"
	case WINNER_ASSASSINS:
		detail = "Assassins win!"
	case WINNER_JESTER:
		jester := ""
		if gc.LastDay.VotedOut != "" {
			jester = gc.nameOf(gc.LastDay.VotedOut)
		}
		detail = fmt.Sprintf("Jester (%s) wins immediately!", jester)
	default:
		detail = "Game Over!"
	}

	gc.Emit(EVENT_WIN, string(gc.Winner), detail)

	zap.L().Info(
		"游戏结束",
		zap.String("game_id", gc.GameID),
		zap.String("winner", string(gc.Winner)),
		zap.Int("rounds", gc.Round),
	)
}

func (fsh *finishStageHandler) OnHandle(ctx context.Context, gc *GameContext) error {
	return nil
}

func (fsh *finishStageHandler) OnExit(gc *GameContext) {
	// 强制确定为 FINISHED 阶段，防止出现异常状态
	gc.GameStage = STAGE_FINISHED
}

func (fsh *finishStageHandler) SetOnSwitch(onSwitch func(string)) {
	fsh.onSwitch = onSwitch
}
