package game

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// 夜晚按固定顺序分为若干子阶段，每个子阶段完整结束后才进入下一个
type NightStage string

const (
	NIGHT_ASSASSIN  NightStage = "AssassinSelect"
	NIGHT_ALCHEMIST NightStage = "AlchemistSelect"
	NIGHT_PROPHET   NightStage = "ProphetSelect"
	NIGHT_APPLY     NightStage = "ApplyResults"
	NIGHT_DONE      NightStage = "Done"
)

func (ns NightStage) next() NightStage {
	switch ns {
	case NIGHT_ASSASSIN:
		return NIGHT_ALCHEMIST
	case NIGHT_ALCHEMIST:
		return NIGHT_PROPHET
	case NIGHT_PROPHET:
		return NIGHT_APPLY
	default:
		return NIGHT_DONE
	}
}

// NightTargets 只在一个夜晚内有效
type NightTargets struct {
	AssassinTarget string
	SaveTarget     string
	AlchemistKill  string
	ProphetTarget  string

	alchemist *Player
	prophet   *Player
}

type NightOutcome struct {
	Targets  NightTargets
	Deaths   []string
	Saved    string
	Revealed string
}

type NightResolver struct {
	gc      *GameContext
	stage   NightStage
	targets NightTargets
}

func NewNightResolver(gc *GameContext) *NightResolver {
	return &NightResolver{
		gc:    gc,
		stage: NIGHT_ASSASSIN,
	}
}

func (nr *NightResolver) Stage() NightStage {
	return nr.stage
}

// Resolve 依次执行所有子阶段。
// 选择阶段被取消时整晚作废：不死人，炼金术士的能力也不消耗。
func (nr *NightResolver) Resolve(ctx context.Context) (NightOutcome, error) {
	for nr.stage != NIGHT_DONE {
		if err := ctx.Err(); err != nil {
			zap.L().Info(
				"夜晚被取消，整晚结果作废",
				zap.String("game_id", nr.gc.GameID),
				zap.String("night_stage", string(nr.stage)),
			)
			return NightOutcome{}, err
		}

		if nr.stage == NIGHT_APPLY {
			outcome := nr.apply()
			nr.stage = nr.stage.next()
			return outcome, nil
		}

		nr.step(ctx)
		nr.stage = nr.stage.next()
	}

	return NightOutcome{Targets: nr.targets}, nil
}

func (nr *NightResolver) step(ctx context.Context) {
	roster := nr.gc.Roster

	switch nr.stage {
	case NIGHT_ASSASSIN:
		assassin := roster.FindAliveByRole(ROLE_ASSASSIN)
		if assassin == nil {
			return
		}

		nr.gc.Emit(EVENT_AWAIT_ACTION, string(ROLE_ASSASSIN), "Assassin, choose your victim from the shadows...")
		nr.targets.AssassinTarget = nr.selectTarget(ctx, assassin, ACTION_ASSASSIN_KILL, roster.Candidates(assassin))

	case NIGHT_ALCHEMIST:
		alchemist := roster.FindAliveByRole(ROLE_ALCHEMIST)
		if alchemist == nil || (alchemist.HasSaved && alchemist.HasKilled) {
			return
		}

		nr.targets.alchemist = alchemist
		nr.gc.Emit(EVENT_AWAIT_ACTION, string(ROLE_ALCHEMIST), "Alchemist, choose someone to protect or eliminate...")

		if !alchemist.HasSaved {
			// 救人可以选择自己
			nr.targets.SaveTarget = nr.selectTarget(ctx, alchemist, ACTION_ALCHEMIST_SAVE, roster.Candidates(nil))
		}

		if !alchemist.HasKilled && ctx.Err() == nil {
			nr.targets.AlchemistKill = nr.selectTarget(ctx, alchemist, ACTION_ALCHEMIST_KILL, roster.Candidates(alchemist))
		}

	case NIGHT_PROPHET:
		prophet := roster.FindAliveByRole(ROLE_PROPHET)
		if prophet == nil {
			return
		}

		nr.targets.prophet = prophet
		nr.gc.Emit(EVENT_AWAIT_ACTION, string(ROLE_PROPHET), "Prophet, choose a player to investigate...")
		nr.targets.ProphetTarget = nr.selectTarget(ctx, prophet, ACTION_PROPHET_INSPECT, roster.Candidates(prophet))
	}
}

// selectTarget 向行动者的决策来源请求目标，没有候选时跳过该行动
func (nr *NightResolver) selectTarget(ctx context.Context, actor *Player, action Action, candidates []string) string {
	targetID, err := nr.decide(ctx, actor, action, candidates)
	if errors.Is(err, ErrNoEligibleTarget) {
		zap.L().Debug(
			"子阶段没有可选目标，跳过",
			zap.String("game_id", nr.gc.GameID),
			zap.String("action", string(action)),
		)
		nr.gc.Emit(EVENT_SKIPPED, string(action), err.Error())
		return ""
	}

	return targetID
}

func (nr *NightResolver) decide(ctx context.Context, actor *Player, action Action, candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w for %s", ErrNoEligibleTarget, action)
	}

	decider := nr.gc.DeciderFor(actor.ID)
	if decider == nil {
		return "", nil
	}

	targetID, ok := decider.Decide(ctx, DecisionRequest{
		Round:      nr.gc.Round,
		Action:     action,
		ActorID:    actor.ID,
		Candidates: candidates,
	})
	if !ok {
		zap.L().Debug(
			"行动者放弃了本次行动",
			zap.String("game_id", nr.gc.GameID),
			zap.String("action", string(action)),
			zap.String("player_id", actor.ID),
		)
		return "", nil
	}

	// 无效目标按放弃处理，并告知行动者本人
	if !contains(candidates, targetID) {
		zap.L().Warn(
			"行动者选择了无效目标，跳过本次行动",
			zap.String("game_id", nr.gc.GameID),
			zap.String("action", string(action)),
			zap.String("player_id", actor.ID),
			zap.String("target_id", targetID),
		)
		nr.gc.EmitTo(
			actor.ID,
			EVENT_SKIPPED,
			string(action),
			fmt.Sprintf("%s is not a valid target, action skipped.", targetID),
		)
		return "", nil
	}

	return targetID, nil
}

// apply 一次性结算整晚的结果，所有目标都基于入夜时的存活快照选出
func (nr *NightResolver) apply() NightOutcome {
	roster := nr.gc.Roster
	t := nr.targets
	outcome := NightOutcome{Targets: t}

	// 刺杀与救人必须在其他死亡之前判定
	if t.AssassinTarget != "" {
		if t.AssassinTarget == t.SaveTarget {
			outcome.Saved = t.AssassinTarget
			nr.gc.Emit(
				EVENT_SAVED,
				t.AssassinTarget,
				fmt.Sprintf("%s was saved by the Alchemist!", nr.gc.nameOf(t.AssassinTarget)),
			)
		} else if nr.kill(t.AssassinTarget, "Night kill") {
			outcome.Deaths = append(outcome.Deaths, t.AssassinTarget)
		}
	}

	// 炼金术士的毒杀无法被救
	if t.AlchemistKill != "" && nr.kill(t.AlchemistKill, "Alchemist eliminated") {
		outcome.Deaths = append(outcome.Deaths, t.AlchemistKill)
	}

	if t.alchemist != nil {
		if t.SaveTarget != "" {
			t.alchemist.HasSaved = true
		}
		if t.AlchemistKill != "" {
			t.alchemist.HasKilled = true
		}
	}

	// 先知的查验只展示给先知本人，不改变任何状态
	if t.prophet != nil && t.ProphetTarget != "" {
		if target, ok := roster.Get(t.ProphetTarget); ok {
			outcome.Revealed = target.ID
			nr.gc.EmitTo(
				t.prophet.ID,
				EVENT_REVEAL,
				target.ID,
				fmt.Sprintf("Prophet sees that %s is a %s.", target.Name, target.Role),
			)
		}
	}

	nr.gc.Emit(EVENT_PHASE_CHANGE, "", "Night ends...")

	zap.L().Info(
		"夜晚结算完成",
		zap.String("game_id", nr.gc.GameID),
		zap.Int("round", nr.gc.Round),
		zap.Strings("deaths", outcome.Deaths),
		zap.String("saved", outcome.Saved),
	)

	return outcome
}

func (nr *NightResolver) kill(playerID, cause string) bool {
	if !nr.gc.Roster.Kill(playerID) {
		return false
	}

	p, _ := nr.gc.Roster.Get(playerID)
	nr.gc.Emit(EVENT_DEATH, p.ID, fmt.Sprintf("%s: %s (%s)", cause, p.Name, p.Role))
	return true
}
