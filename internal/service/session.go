package service

import (
	"context"
	"sync"
	"time"

	"shadow-court-be/internal/service/game"
)

// BALLOT_BUFFER 是每局投票通道的容量
const BALLOT_BUFFER = 16

// session 是一局正在进行或已经结束的游戏，状态机运行在独立的协程中
type session struct {
	id      string
	machine *game.GameMachine
	players []*game.Player
	humans  map[string]*game.ChannelDecider
	ballots chan game.Ballot
	display *fanout
	seed    int64

	mu         sync.Mutex
	started    bool
	cancel     context.CancelFunc
	done       chan struct{}
	outcome    game.Outcome
	createdAt  time.Time
	finishedAt time.Time
}

func (s *session) start(parent context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return false
	}

	ctx, cancel := context.WithCancel(parent)
	s.started = true
	s.cancel = cancel

	go func() {
		defer close(s.done)

		outcome := s.machine.Start(ctx)

		s.mu.Lock()
		s.outcome = outcome
		s.finishedAt = time.Now()
		s.mu.Unlock()

		// 对局结束后关闭所有订阅，之后的订阅者只会收到历史事件
		s.display.close()
		cancel()
	}()

	return true
}

func (s *session) abort() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.cancel == nil || !s.finishedAt.IsZero() {
		return false
	}

	s.cancel()
	return true
}

func (s *session) isStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.started
}

func (s *session) result() (game.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.outcome, !s.finishedAt.IsZero()
}

// expired 判断房间是否可以被清理：已结束超过 ttl，或创建后超过 ttl 仍未开始
func (s *session) expired(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.finishedAt.IsZero() {
		return now.Sub(s.finishedAt) > ttl
	}

	return !s.started && now.Sub(s.createdAt) > ttl
}

func (s *session) hasPlayer(playerID string) bool {
	for _, p := range s.players {
		if p.ID == playerID {
			return true
		}
	}

	return false
}
