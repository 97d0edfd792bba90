package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateWin(t *testing.T) {
	tests := []struct {
		name   string
		roles  []Role
		dead   []string
		winner Winner
	}{
		{
			name:   "game continues",
			roles:  []Role{ROLE_ASSASSIN, ROLE_PROPHET, ROLE_ALCHEMIST, ROLE_TOWNFOLK},
			winner: WINNER_NONE,
		},
		{
			name:   "assassin dead",
			roles:  []Role{ROLE_ASSASSIN, ROLE_PROPHET, ROLE_ALCHEMIST, ROLE_TOWNFOLK},
			dead:   []string{"p1"},
			winner: WINNER_TOWN,
		},
		{
			name:   "parity",
			roles:  []Role{ROLE_ASSASSIN, ROLE_PROPHET, ROLE_ALCHEMIST, ROLE_TOWNFOLK},
			dead:   []string{"p2", "p3"},
			winner: WINNER_ASSASSINS,
		},
		{
			name:   "jester does not count for town",
			roles:  []Role{ROLE_ASSASSIN, ROLE_JESTER, ROLE_PROPHET, ROLE_ALCHEMIST},
			dead:   []string{"p3"},
			winner: WINNER_ASSASSINS,
		},
		{
			name:   "town outnumbers assassins",
			roles:  []Role{ROLE_ASSASSIN, ROLE_JESTER, ROLE_PROPHET, ROLE_ALCHEMIST},
			winner: WINNER_NONE,
		},
		{
			name:   "everyone dead",
			roles:  []Role{ROLE_ASSASSIN, ROLE_PROPHET, ROLE_ALCHEMIST, ROLE_TOWNFOLK},
			dead:   []string{"p1", "p2", "p3", "p4"},
			winner: WINNER_TOWN,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roster := fixedRoster(tt.roles...)
			for _, id := range tt.dead {
				roster.Kill(id)
			}

			assert.Equal(t, tt.winner, EvaluateWin(roster))
		})
	}
}
