package game

// EvaluateWin 统计存活的城镇阵营和刺客阵营人数：
// 刺客全部出局时城镇胜利；刺客人数不少于城镇时刺客胜利。中立玩家不计入。
func EvaluateWin(roster *Roster) Winner {
	assassins := roster.CountAliveByTeam(TEAM_ASSASSIN)
	town := roster.CountAliveByTeam(TEAM_TOWN)

	if assassins == 0 {
		return WINNER_TOWN
	}

	if assassins >= town {
		return WINNER_ASSASSINS
	}

	return WINNER_NONE
}
