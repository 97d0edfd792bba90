package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// VoteLedger 记录一个白天内每个投票者的最新投票，由当前白天阶段独占
type VoteLedger struct {
	votes map[string]string
}

func NewVoteLedger() *VoteLedger {
	return &VoteLedger{votes: make(map[string]string)}
}

// Cast 记录投票，重复投票会覆盖之前的选择。
// 投票者或被投票者不存在或已死亡时返回 ErrInvalidVote，原有投票保持不变。
func (vl *VoteLedger) Cast(roster *Roster, voterID, targetID string) error {
	voter, ok := roster.Get(voterID)
	if !ok {
		return fmt.Errorf("%w: unknown voter %q", ErrInvalidVote, voterID)
	}
	if !voter.IsAlive {
		return fmt.Errorf("%w: voter %q is dead", ErrInvalidVote, voterID)
	}

	target, ok := roster.Get(targetID)
	if !ok {
		return fmt.Errorf("%w: unknown target %q", ErrInvalidVote, targetID)
	}
	if !target.IsAlive {
		return fmt.Errorf("%w: target %q is dead", ErrInvalidVote, targetID)
	}

	vl.votes[voterID] = targetID
	return nil
}

func (vl *VoteLedger) VoteOf(voterID string) (string, bool) {
	targetID, ok := vl.votes[voterID]
	return targetID, ok
}

func (vl *VoteLedger) Len() int {
	return len(vl.votes)
}

func (vl *VoteLedger) Tally() map[string]int {
	counts := make(map[string]int)
	for _, targetID := range vl.votes {
		counts[targetID]++
	}

	return counts
}

// TieSet 返回得票严格最多的玩家，按座位顺序排列
func (vl *VoteLedger) TieSet(roster *Roster) []string {
	counts := vl.Tally()

	maxVotes := 0
	for _, count := range counts {
		if count > maxVotes {
			maxVotes = count
		}
	}

	if maxVotes == 0 {
		return nil
	}

	tied := make([]string, 0)
	for _, p := range roster.Players() {
		if counts[p.ID] == maxVotes {
			tied = append(tied, p.ID)
		}
	}

	return tied
}

// AllVoted 判断是否每个存活玩家都已投票
func (vl *VoteLedger) AllVoted(roster *Roster) bool {
	for _, p := range roster.Alive() {
		if _, ok := vl.votes[p.ID]; !ok {
			return false
		}
	}

	return true
}

// TieBreaker 决定平票时谁出局，返回 false 表示无人出局
type TieBreaker interface {
	Break(tied []string) (string, bool)
}

// RandomTieBreaker 在平票者中均匀随机选择一人出局
type RandomTieBreaker struct {
	rng *rand.Rand
}

func NewRandomTieBreaker(rng *rand.Rand) *RandomTieBreaker {
	return &RandomTieBreaker{rng: rng}
}

func (rtb *RandomTieBreaker) Break(tied []string) (string, bool) {
	if len(tied) == 0 {
		return "", false
	}

	return pickOne(rtb.rng, tied), true
}

// NoEliminationTieBreaker 平票时无人出局
type NoEliminationTieBreaker struct{}

func (NoEliminationTieBreaker) Break(tied []string) (string, bool) {
	if len(tied) == 1 {
		return tied[0], true
	}

	return "", false
}

// ResolveVotes 计票并决定出局者，零票时无人出局
func ResolveVotes(ledger *VoteLedger, roster *Roster, tb TieBreaker) (string, bool) {
	tied := ledger.TieSet(roster)

	switch len(tied) {
	case 0:
		return "", false
	case 1:
		return tied[0], true
	default:
		return tb.Break(tied)
	}
}

type DayOutcome struct {
	Tally     map[string]int
	VotedOut  string
	JesterWin bool
}

// DayPhase 负责一个白天的投票窗口
type DayPhase struct {
	gc     *GameContext
	ledger *VoteLedger
}

func NewDayPhase(gc *GameContext) *DayPhase {
	return &DayPhase{
		gc:     gc,
		ledger: NewVoteLedger(),
	}
}

func (dp *DayPhase) Ledger() *VoteLedger {
	return dp.ledger
}

// Run 打开投票窗口，直到超时或所有存活玩家都已投票，然后计票。
// 投票窗口内被取消时整个白天作废，不会有人出局。
func (dp *DayPhase) Run(ctx context.Context) (DayOutcome, error) {
	gc := dp.gc

	dp.collectAutomatedVotes(ctx)

	remaining := gc.Rules.VoteTimeout
	interval := gc.Rules.TickInterval
	if interval <= 0 {
		interval = time.Second
	}

	if remaining > 0 && !dp.windowDone() {
		ticker := gc.Clock.NewTicker(interval)
		defer ticker.Stop()

		ballots := gc.Ballots

	window:
		for {
			select {
			case b, ok := <-ballots:
				if !ok {
					ballots = nil
					continue
				}

				dp.accept(b)
				if dp.windowDone() {
					break window
				}

			case <-ticker.C():
				remaining -= interval
				if remaining <= 0 {
					break window
				}

				gc.Emit(
					EVENT_COUNTDOWN,
					"",
					fmt.Sprintf("Day Phase: Vote for a player! Time left: %.0fs", remaining.Seconds()),
				)

			case <-ctx.Done():
				zap.L().Info(
					"白天被取消，投票作废",
					zap.String("game_id", gc.GameID),
					zap.Int("round", gc.Round),
				)
				return DayOutcome{}, ctx.Err()
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return DayOutcome{}, err
	}

	return dp.resolve(), nil
}

// collectAutomatedVotes 让非人类玩家通过各自的决策来源投票
func (dp *DayPhase) collectAutomatedVotes(ctx context.Context) {
	gc := dp.gc

	for _, p := range gc.Roster.Alive() {
		if gc.IsHuman(p.ID) {
			continue
		}

		decider := gc.DeciderFor(p.ID)
		if decider == nil {
			continue
		}

		targetID, ok := decider.Decide(ctx, DecisionRequest{
			Round:      gc.Round,
			Action:     ACTION_VOTE,
			ActorID:    p.ID,
			Candidates: gc.Roster.Candidates(p),
		})
		if !ok {
			continue
		}

		dp.accept(Ballot{VoterID: p.ID, TargetID: targetID})
	}
}

func (dp *DayPhase) accept(b Ballot) {
	gc := dp.gc

	if b.Round != 0 && b.Round != gc.Round {
		b.answer(fmt.Errorf("%w: ballot for round %d", ErrVotingClosed, b.Round))
		return
	}

	if err := dp.ledger.Cast(gc.Roster, b.VoterID, b.TargetID); err != nil {
		zap.L().Debug(
			"拒绝无效投票",
			zap.String("game_id", gc.GameID),
			zap.String("voter_id", b.VoterID),
			zap.String("target_id", b.TargetID),
			zap.Error(err),
		)
		gc.EmitTo(b.VoterID, EVENT_INVALID_VOTE, b.VoterID, err.Error())
		b.answer(err)
		return
	}

	b.answer(nil)

	gc.Emit(EVENT_VOTE, b.VoterID, b.TargetID)
	gc.Emit(EVENT_VOTE_COUNTS, "", string(mustMarshal(dp.ledger.Tally())))
}

func (dp *DayPhase) windowDone() bool {
	return dp.gc.Rules.CloseWhenAllVoted && dp.ledger.AllVoted(dp.gc.Roster)
}

func (dp *DayPhase) resolve() DayOutcome {
	gc := dp.gc

	tieBreaker := gc.tieBreaker()

	outcome := DayOutcome{Tally: dp.ledger.Tally()}

	victimID, ok := ResolveVotes(dp.ledger, gc.Roster, tieBreaker)
	if !ok || !gc.Roster.Kill(victimID) {
		gc.Emit(EVENT_NO_ELIMINATION, "", "No one was voted out!")
		return outcome
	}

	victim, _ := gc.Roster.Get(victimID)
	outcome.VotedOut = victim.ID
	gc.Emit(EVENT_VOTED_OUT, victim.ID, fmt.Sprintf("Voted out: %s (Role: %s)", victim.Name, victim.Role))

	if victim.Role == ROLE_JESTER {
		outcome.JesterWin = true
	}

	zap.L().Info(
		"白天投票结算完成",
		zap.String("game_id", gc.GameID),
		zap.Int("round", gc.Round),
		zap.String("voted_out", victim.ID),
		zap.Bool("jester_win", outcome.JesterWin),
	)

	return outcome
}
