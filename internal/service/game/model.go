package game

// 玩家身份
type Role string

const (
	ROLE_TOWNFOLK  Role = "Townfolk"
	ROLE_ASSASSIN  Role = "Assassin"
	ROLE_PROPHET   Role = "Prophet"
	ROLE_ALCHEMIST Role = "Alchemist"
	ROLE_JESTER    Role = "Jester"
)

// 阵营
type Team string

const (
	TEAM_TOWN     Team = "Town"
	TEAM_ASSASSIN Team = "Assassin"
	TEAM_NEUTRAL  Team = "Neutral"
)

// TeamOf 返回身份所属的阵营，阵营完全由身份决定
func TeamOf(role Role) Team {
	switch role {
	case ROLE_ASSASSIN:
		return TEAM_ASSASSIN
	case ROLE_JESTER:
		return TEAM_NEUTRAL
	default:
		return TEAM_TOWN
	}
}

type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Role    Role   `json:"role"`
	Team    Team   `json:"team"`
	IsAlive bool   `json:"is_alive"`

	// 仅炼金术士使用，每局各自最多翻转一次
	HasSaved  bool `json:"-"`
	HasKilled bool `json:"-"`
}

func NewPlayer(name string) *Player {
	return &Player{
		ID:      GenID(),
		Name:    name,
		Role:    ROLE_TOWNFOLK,
		Team:    TEAM_TOWN,
		IsAlive: true,
	}
}

// PublicView 隐藏存活玩家的身份，死亡玩家的身份公开
type PublicView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsAlive bool   `json:"is_alive"`
	Role    Role   `json:"role,omitempty"`
}

func (p *Player) Public() PublicView {
	view := PublicView{
		ID:      p.ID,
		Name:    p.Name,
		IsAlive: p.IsAlive,
	}

	if !p.IsAlive {
		view.Role = p.Role
	}

	return view
}
