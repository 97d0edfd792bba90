package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Outcome 是一局游戏的最终结果
type Outcome struct {
	Winner  Winner   `json:"winner"`
	Rounds  int      `json:"rounds"`
	Aborted bool     `json:"aborted"`
	Players []Player `json:"players"`
}

// Snapshot 是对外公开的游戏状态，存活玩家的身份不会出现在其中
type Snapshot struct {
	GameID   string       `json:"game_id"`
	Stage    string       `json:"stage"`
	Round    int          `json:"round"`
	Winner   Winner       `json:"winner,omitempty"`
	Aborted  bool         `json:"aborted"`
	Players  []PublicView `json:"players"`
	Finished bool         `json:"finished"`
}

// GameMachine 是游戏状态机，负责按阶段推进游戏直到产生胜利方或被取消
type GameMachine struct {
	gc      *GameContext
	handler StageHandler

	mu       sync.RWMutex
	snapshot Snapshot
	seats    map[string]Seat
}

// Seat 是玩家本人可见的状态，不对其他玩家公开
type Seat struct {
	Role      Role
	IsAlive   bool
	HasSaved  bool
	HasKilled bool
}

// NewGameMachine 校验人数并补全缺省的协作者，人数不足时拒绝创建
func NewGameMachine(gc *GameContext) (*GameMachine, error) {
	if gc.Roster == nil || gc.Roster.Len() < MIN_PLAYERS {
		n := 0
		if gc.Roster != nil {
			n = gc.Roster.Len()
		}
		return nil, fmt.Errorf("%w: need at least %d, got %d", ErrInsufficientPlayers, MIN_PLAYERS, n)
	}

	if gc.GameID == "" {
		gc.GameID = GenID()
	}
	if gc.Rng == nil {
		gc.Rng = NewRand(time.Now().UnixNano())
	}
	if gc.Clock == nil {
		gc.Clock = RealClock{}
	}
	if gc.Display == nil {
		gc.Display = LogDisplay{GameID: gc.GameID}
	}
	if gc.DefaultDecider == nil {
		gc.DefaultDecider = NewRandomDecider(gc.Rng)
	}
	gc.tieBreaker()

	gc.GameStage = STAGE_INIT

	gm := &GameMachine{
		gc:      gc,
		handler: NewInitStageHandler(),
	}

	gm.handler.SetOnSwitch(gm.onSwitch)
	gm.publish(false)

	return gm, nil
}

func (gm *GameMachine) onSwitch(nextStage string) {
	gm.gc.GameStage = nextStage
}

// Start 运行整局游戏，阻塞直到结束。
// ctx 被取消时当前阶段整体作废，游戏以无胜利方结束。
func (gm *GameMachine) Start(ctx context.Context) Outcome {
	gc := gm.gc

	// 执行初始 handler 的 OnEnter
	gm.handler.OnEnter(gc)
	gm.publish(false)

	aborted := false

	for {
		if ctx.Err() != nil {
			aborted = true
			break
		}

		err := gm.handler.OnHandle(ctx, gc)
		if err != nil {
			if ctx.Err() == nil {
				zap.L().Error(
					"处理阶段失败",
					zap.String("game_id", gc.GameID),
					zap.String("stage", gm.handler.Stage()),
					zap.Error(err),
				)
			}
			aborted = true
			break
		}

		gm.publish(false)

		// 阶段没有变化说明处理器未完成切换
		if gc.GameStage == gm.handler.Stage() {
			zap.L().Error(
				"阶段处理器没有切换阶段",
				zap.String("game_id", gc.GameID),
				zap.String("stage", gc.GameStage),
			)
			aborted = true
			break
		}

		gm.switchStage()

		// 执行新阶段的 OnEnter
		gm.handler.OnEnter(gc)
		gm.publish(false)

		if gc.GameStage == STAGE_FINISHED {
			break
		}
	}

	if aborted {
		gm.abort()
	}

	gm.handler.OnExit(gc)
	gm.publish(aborted)

	zap.L().Info(
		"游戏状态机已结束",
		zap.String("game_id", gc.GameID),
		zap.Bool("aborted", aborted),
	)

	players := make([]Player, 0, gc.Roster.Len())
	for _, p := range gc.Roster.Players() {
		players = append(players, *p)
	}

	return Outcome{
		Winner:  gc.Winner,
		Rounds:  gc.Round,
		Aborted: aborted,
		Players: players,
	}
}

func (gm *GameMachine) abort() {
	gc := gm.gc

	zap.L().Info(
		"收到退出信号，结束游戏状态机",
		zap.String("game_id", gc.GameID),
		zap.String("stage", gc.GameStage),
	)

	gc.Winner = WINNER_NONE
	gc.Emit(EVENT_ABORTED, "", "Game aborted.")
	gc.GameStage = STAGE_FINISHED
}

func (gm *GameMachine) switchStage() {
	// 执行当前 handler 的 OnExit
	gm.handler.OnExit(gm.gc)

	// 根据新状态创建对应的 handler
	var newHandler StageHandler

	switch gm.gc.GameStage {
	case STAGE_INIT:
		newHandler = NewInitStageHandler()
	case STAGE_NIGHT:
		newHandler = NewNightStageHandler()
	case STAGE_DAY:
		newHandler = NewDayStageHandler()
	case STAGE_FINISHED:
		newHandler = NewFinishStageHandler()
	default:
		zap.L().Error(
			"未知的游戏阶段",
			zap.String("stage", gm.gc.GameStage),
		)
		newHandler = NewFinishStageHandler()
		gm.gc.GameStage = STAGE_FINISHED
	}

	newHandler.SetOnSwitch(gm.onSwitch)

	// 更新当前 handler
	gm.handler = newHandler
}

func (gm *GameMachine) publish(aborted bool) {
	gc := gm.gc

	snap := Snapshot{
		GameID:   gc.GameID,
		Stage:    gc.GameStage,
		Round:    gc.Round,
		Winner:   gc.Winner,
		Aborted:  aborted,
		Players:  gc.Roster.PublicViews(),
		Finished: gc.GameStage == STAGE_FINISHED,
	}

	seats := make(map[string]Seat, gc.Roster.Len())
	for _, p := range gc.Roster.Players() {
		seats[p.ID] = Seat{
			Role:      p.Role,
			IsAlive:   p.IsAlive,
			HasSaved:  p.HasSaved,
			HasKilled: p.HasKilled,
		}
	}

	gm.mu.Lock()
	gm.snapshot = snap
	gm.seats = seats
	gm.mu.Unlock()
}

func (gm *GameMachine) Snapshot() Snapshot {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	return gm.snapshot
}

// Seat 返回最近一次发布时该玩家的身份和存活状态
func (gm *GameMachine) Seat(playerID string) (Seat, bool) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	seat, ok := gm.seats[playerID]
	return seat, ok
}

func (gm *GameMachine) IsFinished() bool {
	return gm.Snapshot().Finished
}
