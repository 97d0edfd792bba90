package dto

// 对局中的座位信息，身份不会通过 HTTP 返回
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Seat  int    `json:"seat"`
	Human bool   `json:"human"`
}
