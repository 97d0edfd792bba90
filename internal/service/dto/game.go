package dto

// 创建对局的请求，HumanSeats 为由真人操控的座位序号（从 0 开始），其余座位由机器人随机行动
type CreateGameRequest struct {
	PlayerNames []string `json:"player_names"`
	HumanSeats  []int    `json:"human_seats"`
}

type CreateGameResponse struct {
	GameID  string   `json:"game_id"`
	Players []Player `json:"players"`
}

type StartGameResponse struct {
	GameID string `json:"game_id"`
	Stage  string `json:"stage"`
}

type AbortGameResponse struct {
	GameID  string `json:"game_id"`
	Aborted bool   `json:"aborted"`
}
