package game

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countRoles(roster *Roster) map[Role]int {
	counts := make(map[Role]int)
	for _, p := range roster.Players() {
		counts[p.Role]++
	}
	return counts
}

func TestAssignRolesCounts(t *testing.T) {
	f := func(seed int64, extra uint8) bool {
		n := MIN_PLAYERS + int(extra%9)
		roster := NewRosterFromNames(make([]string, n))
		rng := NewRand(seed)

		// 重复分配的结果必须满足同样的约束
		for range 2 {
			if err := AssignRoles(roster, rng); err != nil {
				return false
			}

			counts := countRoles(roster)
			if counts[ROLE_ASSASSIN] != 1 || counts[ROLE_PROPHET] != 1 || counts[ROLE_ALCHEMIST] != 1 {
				return false
			}
			if counts[ROLE_TOWNFOLK] != n-3 || counts[ROLE_JESTER] != 0 {
				return false
			}

			for _, p := range roster.Players() {
				if p.Team != TeamOf(p.Role) || p.HasSaved || p.HasKilled {
					return false
				}
			}
		}

		return true
	}

	if err := quick.Check(f, &quick.Config{MaxCount: 200}); err != nil {
		t.Error(err)
	}
}

func TestAssignRolesResetsAlchemistFlags(t *testing.T) {
	roster := fixedRoster(ROLE_ALCHEMIST, ROLE_ASSASSIN, ROLE_PROPHET, ROLE_TOWNFOLK)
	p1, _ := roster.Get("p1")
	p1.HasSaved = true
	p1.HasKilled = true

	require.NoError(t, AssignRoles(roster, NewRand(3)))

	for _, p := range roster.Players() {
		assert.False(t, p.HasSaved)
		assert.False(t, p.HasKilled)
	}
}

func TestAssignRolesWithJester(t *testing.T) {
	roster := NewRosterFromNames([]string{"a", "b", "c", "d"})

	require.NoError(t, AssignRoles(roster, NewRand(7), WithJester(true)))

	counts := countRoles(roster)
	assert.Equal(t, 1, counts[ROLE_JESTER])
	assert.Equal(t, 0, counts[ROLE_TOWNFOLK])

	jester := roster.FindAliveByRole(ROLE_JESTER)
	require.NotNil(t, jester)
	assert.Equal(t, TEAM_NEUTRAL, jester.Team)
}

func TestAssignRolesInsufficientPlayers(t *testing.T) {
	roster := NewRosterFromNames([]string{"a", "b", "c"})

	err := AssignRoles(roster, NewRand(1))
	assert.ErrorIs(t, err, ErrInsufficientPlayers)
}

func TestAssignRolesUniform(t *testing.T) {
	const trials = 4000

	roster := NewRosterFromNames([]string{"a", "b", "c", "d"})
	rng := NewRand(11)

	seats := make(map[string]int)
	for range trials {
		require.NoError(t, AssignRoles(roster, rng))
		seats[roster.FindAliveByRole(ROLE_ASSASSIN).ID]++
	}

	require.Len(t, seats, 4)
	for id, count := range seats {
		assert.InDelta(t, trials/4, count, 200, "seat %s", id)
	}
}
