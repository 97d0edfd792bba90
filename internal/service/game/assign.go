package game

import (
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"
)

// 开局所需的最少玩家数
const MIN_PLAYERS = 4

type AssignOption func(*assignOptions)

type assignOptions struct {
	withJester bool
}

// WithJester 在剩余座位中额外抽选一名小丑
func WithJester(enabled bool) AssignOption {
	return func(o *assignOptions) {
		o.withJester = enabled
	}
}

// AssignRoles 为所有玩家重新分配身份：
// 刺客、先知、炼金术士各一名，不放回地从存活座位中均匀抽取，其余为平民。
// 重复调用会先重置所有身份，因此是幂等的。
func AssignRoles(roster *Roster, rng *rand.Rand, opts ...AssignOption) error {
	var o assignOptions
	for _, opt := range opts {
		opt(&o)
	}

	if roster.Len() < MIN_PLAYERS {
		return fmt.Errorf("%w: need at least %d, got %d", ErrInsufficientPlayers, MIN_PLAYERS, roster.Len())
	}

	players := roster.Players()

	// 重置
	for _, p := range players {
		setRole(p, ROLE_TOWNFOLK)
		p.HasSaved = false
		p.HasKilled = false
	}

	pool := make([]int, 0, len(players))
	for i, p := range players {
		if p.IsAlive {
			pool = append(pool, i)
		}
	}

	specials := []Role{ROLE_ASSASSIN, ROLE_PROPHET, ROLE_ALCHEMIST}
	if len(pool) < len(specials) {
		return fmt.Errorf("%w: only %d living seats", ErrInsufficientPlayers, len(pool))
	}

	if o.withJester && len(pool) > len(specials) {
		specials = append(specials, ROLE_JESTER)
	}

	for _, role := range specials {
		// 抽出后从池中移除，保证一人只有一个特殊身份
		k := rng.IntN(len(pool))
		setRole(players[pool[k]], role)
		pool = append(pool[:k], pool[k+1:]...)
	}

	zap.L().Debug(
		"身份分配完成",
		zap.Int("players", len(players)),
		zap.Bool("with_jester", o.withJester),
	)

	return nil
}

func setRole(p *Player, role Role) {
	p.Role = role
	p.Team = TeamOf(role)
}
