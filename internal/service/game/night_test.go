package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNightFivePlayerExample(t *testing.T) {
	roster := fixedRoster(ROLE_ASSASSIN, ROLE_TOWNFOLK, ROLE_ALCHEMIST, ROLE_TOWNFOLK, ROLE_PROPHET)
	gc, rec, _ := newTestContext(roster)

	gc.Deciders["p1"] = NewScriptedDecider().Then(ACTION_ASSASSIN_KILL, "p2")
	gc.Deciders["p3"] = NewScriptedDecider().
		Then(ACTION_ALCHEMIST_SAVE, "p2").
		Then(ACTION_ALCHEMIST_KILL, "p4")
	gc.Deciders["p5"] = NewScriptedDecider().Then(ACTION_PROPHET_INSPECT, "p1")

	outcome, err := NewNightResolver(gc).Resolve(context.Background())
	require.NoError(t, err)

	assert.True(t, alive(roster, "p2"))
	assert.False(t, alive(roster, "p4"))
	assert.Equal(t, []string{"p4"}, outcome.Deaths)
	assert.Equal(t, "p2", outcome.Saved)
	assert.Equal(t, "p1", outcome.Revealed)

	alchemist, _ := roster.Get("p3")
	assert.True(t, alchemist.HasSaved)
	assert.True(t, alchemist.HasKilled)

	saved := rec.ofKind(EVENT_SAVED)
	require.Len(t, saved, 1)
	assert.Equal(t, "P2 was saved by the Alchemist!", saved[0].Detail)

	// 查验结果只展示给先知
	reveals := rec.ofKind(EVENT_REVEAL)
	require.Len(t, reveals, 1)
	assert.Equal(t, "p5", reveals[0].Audience)
	assert.Equal(t, "Prophet sees that P1 is a Assassin.", reveals[0].Detail)
	assert.False(t, reveals[0].VisibleTo("p1"))

	assert.Equal(t, []string{"p1", "p2", "p3", "p5"}, roster.Candidates(nil))
	assert.Equal(t, STAGE_NIGHT, rec.ofKind(EVENT_DEATH)[0].Phase)
}

func TestNightSaveNegatesAssassinKill(t *testing.T) {
	roster := fixedRoster(ROLE_ASSASSIN, ROLE_TOWNFOLK, ROLE_ALCHEMIST, ROLE_PROPHET)
	gc, rec, _ := newTestContext(roster)

	gc.Deciders["p1"] = NewScriptedDecider().Then(ACTION_ASSASSIN_KILL, "p3")
	gc.Deciders["p3"] = NewScriptedDecider().Then(ACTION_ALCHEMIST_SAVE, "p3")

	outcome, err := NewNightResolver(gc).Resolve(context.Background())
	require.NoError(t, err)

	assert.Empty(t, outcome.Deaths)
	assert.True(t, alive(roster, "p3"))
	assert.Empty(t, rec.ofKind(EVENT_DEATH))

	alchemist, _ := roster.Get("p3")
	assert.True(t, alchemist.HasSaved)
	assert.False(t, alchemist.HasKilled)
}

func TestNightAlchemistKillCannotBeSaved(t *testing.T) {
	roster := fixedRoster(ROLE_ASSASSIN, ROLE_TOWNFOLK, ROLE_ALCHEMIST, ROLE_PROPHET)
	gc, _, _ := newTestContext(roster)

	gc.Deciders["p1"] = NewScriptedDecider().Then(ACTION_ASSASSIN_KILL, "p2")
	gc.Deciders["p3"] = NewScriptedDecider().
		Then(ACTION_ALCHEMIST_SAVE, "p2").
		Then(ACTION_ALCHEMIST_KILL, "p2")

	outcome, err := NewNightResolver(gc).Resolve(context.Background())
	require.NoError(t, err)

	assert.False(t, alive(roster, "p2"))
	assert.Equal(t, []string{"p2"}, outcome.Deaths)
	assert.Equal(t, "p2", outcome.Saved)
}

func TestNightSameTargetDiesOnce(t *testing.T) {
	roster := fixedRoster(ROLE_ASSASSIN, ROLE_TOWNFOLK, ROLE_ALCHEMIST, ROLE_PROPHET)
	gc, rec, _ := newTestContext(roster)

	gc.Deciders["p1"] = NewScriptedDecider().Then(ACTION_ASSASSIN_KILL, "p4")
	gc.Deciders["p3"] = NewScriptedDecider().
		Then(ACTION_ALCHEMIST_SAVE, "").
		Then(ACTION_ALCHEMIST_KILL, "p4")

	outcome, err := NewNightResolver(gc).Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"p4"}, outcome.Deaths)
	assert.Len(t, rec.ofKind(EVENT_DEATH), 1)

	// 放弃救人不消耗能力
	alchemist, _ := roster.Get("p3")
	assert.False(t, alchemist.HasSaved)
	assert.True(t, alchemist.HasKilled)
}

func TestNightAlchemistAbilitiesUsedOnce(t *testing.T) {
	roster := fixedRoster(ROLE_ASSASSIN, ROLE_TOWNFOLK, ROLE_ALCHEMIST, ROLE_TOWNFOLK, ROLE_PROPHET, ROLE_TOWNFOLK)
	gc, rec, _ := newTestContext(roster)

	var asked []Action
	script := NewScriptedDecider().
		Then(ACTION_ALCHEMIST_SAVE, "p2").
		Then(ACTION_ALCHEMIST_KILL, "p4").
		Then(ACTION_ALCHEMIST_SAVE, "p6").
		Then(ACTION_ALCHEMIST_KILL, "p6")
	gc.Deciders["p3"] = decideFunc(func(ctx context.Context, req DecisionRequest) (string, bool) {
		asked = append(asked, req.Action)
		return script.Decide(ctx, req)
	})

	_, err := NewNightResolver(gc).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Action{ACTION_ALCHEMIST_SAVE, ACTION_ALCHEMIST_KILL}, asked)

	gc.Round++
	outcome, err := NewNightResolver(gc).Resolve(context.Background())
	require.NoError(t, err)

	// 两种能力都已用完，第二晚不再询问炼金术士
	assert.Len(t, asked, 2)
	assert.Empty(t, outcome.Targets.SaveTarget)
	assert.Empty(t, outcome.Targets.AlchemistKill)
	assert.True(t, alive(roster, "p6"))

	prompts := 0
	for _, e := range rec.ofKind(EVENT_AWAIT_ACTION) {
		if e.Subject == string(ROLE_ALCHEMIST) {
			prompts++
		}
	}
	assert.Equal(t, 1, prompts)
}

func TestNightAlchemistPartialAbilities(t *testing.T) {
	roster := fixedRoster(ROLE_ASSASSIN, ROLE_TOWNFOLK, ROLE_ALCHEMIST, ROLE_TOWNFOLK, ROLE_PROPHET)
	gc, _, _ := newTestContext(roster)

	alchemist, _ := roster.Get("p3")
	alchemist.HasSaved = true

	var asked []Action
	gc.Deciders["p3"] = decideFunc(func(ctx context.Context, req DecisionRequest) (string, bool) {
		asked = append(asked, req.Action)
		return "", false
	})

	_, err := NewNightResolver(gc).Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Action{ACTION_ALCHEMIST_KILL}, asked)
}

func TestNightSkipsDeadHolders(t *testing.T) {
	roster := fixedRoster(ROLE_ASSASSIN, ROLE_TOWNFOLK, ROLE_ALCHEMIST, ROLE_TOWNFOLK, ROLE_PROPHET)
	gc, rec, _ := newTestContext(roster)

	roster.Kill("p3")
	roster.Kill("p5")

	consulted := make(map[string]bool)
	for _, id := range []string{"p3", "p5"} {
		gc.Deciders[id] = decideFunc(func(ctx context.Context, req DecisionRequest) (string, bool) {
			consulted[id] = true
			return "", false
		})
	}
	gc.Deciders["p1"] = NewScriptedDecider().Then(ACTION_ASSASSIN_KILL, "p2")

	outcome, err := NewNightResolver(gc).Resolve(context.Background())
	require.NoError(t, err)

	assert.Empty(t, consulted)
	assert.Equal(t, []string{"p2"}, outcome.Deaths)
	assert.Empty(t, rec.ofKind(EVENT_REVEAL))

	prompts := rec.ofKind(EVENT_AWAIT_ACTION)
	require.Len(t, prompts, 1)
	assert.Equal(t, string(ROLE_ASSASSIN), prompts[0].Subject)
}

func TestNightCandidatesExcludeDead(t *testing.T) {
	roster := fixedRoster(ROLE_ASSASSIN, ROLE_TOWNFOLK, ROLE_ALCHEMIST, ROLE_TOWNFOLK, ROLE_PROPHET)
	gc, _, _ := newTestContext(roster)

	roster.Kill("p2")

	seen := make(map[Action][]string)
	record := decideFunc(func(ctx context.Context, req DecisionRequest) (string, bool) {
		seen[req.Action] = req.Candidates
		return "", false
	})
	for _, id := range []string{"p1", "p3", "p5"} {
		gc.Deciders[id] = record
	}

	_, err := NewNightResolver(gc).Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"p3", "p4", "p5"}, seen[ACTION_ASSASSIN_KILL])
	assert.Equal(t, []string{"p1", "p3", "p4", "p5"}, seen[ACTION_ALCHEMIST_SAVE])
	assert.Equal(t, []string{"p1", "p4", "p5"}, seen[ACTION_ALCHEMIST_KILL])
	assert.Equal(t, []string{"p1", "p3", "p4"}, seen[ACTION_PROPHET_INSPECT])

	for _, candidates := range seen {
		assert.NotContains(t, candidates, "p2")
	}
}

func TestNightInvalidChoiceIsAbstain(t *testing.T) {
	roster := fixedRoster(ROLE_ASSASSIN, ROLE_TOWNFOLK, ROLE_ALCHEMIST, ROLE_PROPHET)
	gc, rec, _ := newTestContext(roster)

	roster.Kill("p2")
	gc.Deciders["p1"] = decideFunc(func(ctx context.Context, req DecisionRequest) (string, bool) {
		return "p2", true
	})

	outcome, err := NewNightResolver(gc).Resolve(context.Background())
	require.NoError(t, err)

	assert.Empty(t, outcome.Targets.AssassinTarget)
	assert.Empty(t, outcome.Deaths)

	// 跳过只通知行动者本人
	skipped := rec.ofKind(EVENT_SKIPPED)
	require.Len(t, skipped, 1)
	assert.Equal(t, "p1", skipped[0].Audience)
	assert.Equal(t, string(ACTION_ASSASSIN_KILL), skipped[0].Subject)
	assert.False(t, skipped[0].VisibleTo("p2"))
}

func TestNightHumanAlchemistChoicesOutOfOrder(t *testing.T) {
	roster := fixedRoster(ROLE_ASSASSIN, ROLE_TOWNFOLK, ROLE_ALCHEMIST, ROLE_TOWNFOLK, ROLE_PROPHET)
	gc, _, clock := newTestContext(roster)

	gc.Deciders["p1"] = NewScriptedDecider().Then(ACTION_ASSASSIN_KILL, "p2")

	// 先提交毒杀再提交救人，两者都应被采纳
	human := NewChannelDecider(clock, 0)
	human.Offer(1, ACTION_ALCHEMIST_KILL, "p4")
	human.Offer(1, ACTION_ALCHEMIST_SAVE, "p2")
	gc.Deciders["p3"] = human

	outcome, err := NewNightResolver(gc).Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "p2", outcome.Targets.SaveTarget)
	assert.Equal(t, "p4", outcome.Targets.AlchemistKill)
	assert.Equal(t, "p2", outcome.Saved)
	assert.Equal(t, []string{"p4"}, outcome.Deaths)
	assert.True(t, alive(roster, "p2"))
	assert.False(t, alive(roster, "p4"))
}

func TestNightCancelledDiscardsResults(t *testing.T) {
	roster := fixedRoster(ROLE_ASSASSIN, ROLE_TOWNFOLK, ROLE_ALCHEMIST, ROLE_TOWNFOLK, ROLE_PROPHET)
	gc, rec, _ := newTestContext(roster)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gc.Deciders["p1"] = NewScriptedDecider().Then(ACTION_ASSASSIN_KILL, "p2")
	gc.Deciders["p3"] = NewScriptedDecider().
		Then(ACTION_ALCHEMIST_SAVE, "p4").
		Then(ACTION_ALCHEMIST_KILL, "p4")
	gc.Deciders["p5"] = decideFunc(func(ctx context.Context, req DecisionRequest) (string, bool) {
		cancel()
		return "p1", true
	})

	resolver := NewNightResolver(gc)
	outcome, err := resolver.Resolve(ctx)
	require.ErrorIs(t, err, context.Canceled)

	assert.Empty(t, outcome.Deaths)
	assert.Equal(t, NIGHT_APPLY, resolver.Stage())
	assert.Equal(t, 5, roster.CountAlive())
	assert.Empty(t, rec.ofKind(EVENT_DEATH))
	assert.Empty(t, rec.ofKind(EVENT_REVEAL))

	alchemist, _ := roster.Get("p3")
	assert.False(t, alchemist.HasSaved)
	assert.False(t, alchemist.HasKilled)
}

func TestNightNoEligibleTargetSkips(t *testing.T) {
	roster := fixedRoster(ROLE_ASSASSIN, ROLE_TOWNFOLK, ROLE_TOWNFOLK, ROLE_TOWNFOLK)
	gc, rec, _ := newTestContext(roster)

	roster.Kill("p2")
	roster.Kill("p3")
	roster.Kill("p4")

	outcome, err := NewNightResolver(gc).Resolve(context.Background())
	require.NoError(t, err)

	assert.Empty(t, outcome.Deaths)
	skipped := rec.ofKind(EVENT_SKIPPED)
	require.Len(t, skipped, 1)
	assert.Equal(t, string(ACTION_ASSASSIN_KILL), skipped[0].Subject)
}
