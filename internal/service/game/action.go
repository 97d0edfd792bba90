package game

type VoteRequest struct {
	TargetID string `json:"target_id"`
}

type VoteResponse struct {
	VoterID  string `json:"voter_id"`
	TargetID string `json:"target_id"`
}

// TargetID 为空表示放弃本次行动
type NightActionRequest struct {
	Action   Action `json:"action"`
	TargetID string `json:"target_id"`
}

// Queued 表示选择已排队，等到对应的夜晚子阶段才会被采纳
type NightActionResponse struct {
	Action   Action `json:"action"`
	TargetID string `json:"target_id"`
	Queued   bool   `json:"queued"`
}
