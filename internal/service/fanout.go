package service

import (
	"sync"

	"shadow-court-be/internal/service/game"

	"go.uber.org/zap"
)

const SUBSCRIBER_BUFFER = 64

type subscriber struct {
	playerID string
	ch       chan game.ResponseWrapper
}

// fanout 把展示事件分发给订阅的连接，按 Audience 过滤，发送不阻塞状态机
type fanout struct {
	mu      sync.Mutex
	gameID  string
	history []game.Event
	subs    map[int]*subscriber
	nextID  int
	closed  bool
}

func newFanout(gameID string) *fanout {
	return &fanout{
		gameID: gameID,
		subs:   make(map[int]*subscriber),
	}
}

func (f *fanout) Emit(event game.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}

	f.history = append(f.history, event)

	resp := game.WrapResponse(game.RESP_EVENT, event)
	for _, sub := range f.subs {
		if !event.VisibleTo(sub.playerID) {
			continue
		}

		select {
		case sub.ch <- resp:
		default:
			zap.L().Warn(
				"发送事件失败：订阅者通道已满",
				zap.String("game_id", f.gameID),
				zap.String("player_id", sub.playerID),
			)
		}
	}
}

// subscribe 先回放该玩家可见的历史事件，再接收后续事件。playerID 为空表示旁观者。
func (f *fanout) subscribe(playerID string) (<-chan game.ResponseWrapper, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	visible := make([]game.Event, 0, len(f.history))
	for _, e := range f.history {
		if e.VisibleTo(playerID) {
			visible = append(visible, e)
		}
	}

	sub := &subscriber{
		playerID: playerID,
		ch:       make(chan game.ResponseWrapper, len(visible)+SUBSCRIBER_BUFFER),
	}

	for _, e := range visible {
		sub.ch <- game.WrapResponse(game.RESP_EVENT, e)
	}

	if f.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}

	id := f.nextID
	f.nextID++
	f.subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()

			if s, ok := f.subs[id]; ok {
				delete(f.subs, id)
				close(s.ch)
			}
		})
	}

	return sub.ch, cancel
}

// close 关闭所有订阅者的通道，通知写协程退出
func (f *fanout) close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}

	f.closed = true
	for id, sub := range f.subs {
		close(sub.ch)
		delete(f.subs, id)
	}
}
