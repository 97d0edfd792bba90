package game

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// recorder 记录所有展示事件
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Emit(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) ofKind(kind string) []Event {
	out := make([]Event, 0)
	for _, e := range r.all() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// manualClock 只有测试主动触发时才会超时或计时
type manualClock struct {
	afters  chan chan time.Time
	tickers chan *manualTicker
}

func newManualClock() *manualClock {
	return &manualClock{
		afters:  make(chan chan time.Time, 16),
		tickers: make(chan *manualTicker, 16),
	}
}

func (mc *manualClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	mc.afters <- ch
	return ch
}

func (mc *manualClock) NewTicker(d time.Duration) Ticker {
	t := &manualTicker{c: make(chan time.Time)}
	mc.tickers <- t
	return t
}

type manualTicker struct {
	c chan time.Time
}

func (mt *manualTicker) C() <-chan time.Time {
	return mt.c
}

func (mt *manualTicker) Stop() {}

// tick 阻塞直到白天循环收到这一次计时
func (mt *manualTicker) tick() {
	mt.c <- time.Time{}
}

type decideFunc func(ctx context.Context, req DecisionRequest) (string, bool)

func (f decideFunc) Decide(ctx context.Context, req DecisionRequest) (string, bool) {
	return f(ctx, req)
}

// fixedRoster 按给定身份依次创建 p1、p2……
func fixedRoster(roles ...Role) *Roster {
	players := make([]*Player, 0, len(roles))
	for i, role := range roles {
		players = append(players, &Player{
			ID:      fmt.Sprintf("p%d", i+1),
			Name:    fmt.Sprintf("P%d", i+1),
			Role:    role,
			Team:    TeamOf(role),
			IsAlive: true,
		})
	}

	return NewRoster(players...)
}

func newTestContext(roster *Roster) (*GameContext, *recorder, *manualClock) {
	rec := &recorder{}
	clock := newManualClock()

	gc := &GameContext{
		GameID:    "test",
		GameStage: STAGE_NIGHT,
		Round:     1,
		Roster:    roster,
		Rules: Rules{
			TieBreaker:        NoEliminationTieBreaker{},
			TickInterval:      time.Second,
			CloseWhenAllVoted: true,
		},
		Rng:            NewRand(1),
		Display:        rec,
		Clock:          clock,
		Deciders:       make(map[string]DecisionSource),
		DefaultDecider: NewScriptedDecider(),
		Humans:         make(map[string]bool),
	}

	return gc, rec, clock
}

func alive(roster *Roster, id string) bool {
	p, ok := roster.Get(id)
	return ok && p.IsAlive
}
