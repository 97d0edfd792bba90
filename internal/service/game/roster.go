package game

// Roster 按座位顺序保存本局所有玩家，开局后不再增删
type Roster struct {
	players []*Player
	index   map[string]*Player
}

func NewRoster(players ...*Player) *Roster {
	r := &Roster{
		players: make([]*Player, 0, len(players)),
		index:   make(map[string]*Player, len(players)),
	}

	for _, p := range players {
		r.players = append(r.players, p)
		r.index[p.ID] = p
	}

	return r
}

// NewRosterFromNames 按名字创建玩家，名字允许重复
func NewRosterFromNames(names []string) *Roster {
	players := make([]*Player, 0, len(names))
	for _, name := range names {
		players = append(players, NewPlayer(name))
	}

	return NewRoster(players...)
}

func (r *Roster) Len() int {
	return len(r.players)
}

// Players 返回座位顺序的副本
func (r *Roster) Players() []*Player {
	out := make([]*Player, len(r.players))
	copy(out, r.players)
	return out
}

func (r *Roster) Get(id string) (*Player, bool) {
	p, ok := r.index[id]
	return p, ok
}

func (r *Roster) Alive() []*Player {
	alive := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		if p.IsAlive {
			alive = append(alive, p)
		}
	}

	return alive
}

func (r *Roster) CountAlive() int {
	count := 0
	for _, p := range r.players {
		if p.IsAlive {
			count++
		}
	}

	return count
}

// CountAliveByTeam 统计某阵营的存活人数
func (r *Roster) CountAliveByTeam(team Team) int {
	count := 0
	for _, p := range r.players {
		if p.IsAlive && p.Team == team {
			count++
		}
	}

	return count
}

// FindAliveByRole 返回第一个持有该身份的存活玩家
func (r *Roster) FindAliveByRole(role Role) *Player {
	for _, p := range r.players {
		if p.IsAlive && p.Role == role {
			return p
		}
	}

	return nil
}

// Candidates 返回存活玩家的 ID，exclude 为空时不排除任何人
func (r *Roster) Candidates(exclude *Player) []string {
	ids := make([]string, 0, len(r.players))
	for _, p := range r.players {
		if !p.IsAlive || p == exclude {
			continue
		}
		ids = append(ids, p.ID)
	}

	return ids
}

// Kill 将玩家标记为死亡，死亡不可逆
func (r *Roster) Kill(id string) bool {
	p, ok := r.index[id]
	if !ok || !p.IsAlive {
		return false
	}

	p.IsAlive = false
	return true
}

func (r *Roster) PublicViews() []PublicView {
	views := make([]PublicView, 0, len(r.players))
	for _, p := range r.players {
		views = append(views, p.Public())
	}

	return views
}
