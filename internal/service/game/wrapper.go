package game

import (
	"encoding/json"

	"go.uber.org/zap"
)

// 请求类型
const (
	REQ_VOTE         = "Vote"
	REQ_NIGHT_ACTION = "NightAction"
	REQ_SNAPSHOT     = "Snapshot"
)

type RequestWrapper struct {
	ReqType string          `json:"request_type"`
	Data    json.RawMessage `json:"data"`
}

func TryUnwrapVoteRequest(wrapper RequestWrapper) *VoteRequest {
	if wrapper.ReqType != REQ_VOTE {
		return nil
	}

	var voteRequest VoteRequest

	err := json.Unmarshal(wrapper.Data, &voteRequest)
	if err != nil {
		zap.L().Error(
			"Failed to unwrap VoteRequest",
			zap.Error(err),
			zap.Any("wrapper", wrapper),
		)
		return nil
	}

	return &voteRequest
}

func TryUnwrapNightActionRequest(wrapper RequestWrapper) *NightActionRequest {
	if wrapper.ReqType != REQ_NIGHT_ACTION {
		return nil
	}

	var nightActionRequest NightActionRequest

	err := json.Unmarshal(wrapper.Data, &nightActionRequest)
	if err != nil {
		zap.L().Error(
			"Failed to unwrap NightActionRequest",
			zap.Error(err),
			zap.Any("wrapper", wrapper),
		)
		return nil
	}

	return &nightActionRequest
}

func IsSnapshotRequest(wrapper RequestWrapper) bool {
	return wrapper.ReqType == REQ_SNAPSHOT
}

// 响应类型
const (
	RESP_ERROR = "Error"

	RESP_EVENT        = "Event"
	RESP_SNAPSHOT     = "Snapshot"
	RESP_VOTE         = "Vote"
	RESP_NIGHT_ACTION = "NightAction"
)

type ResponseWrapper struct {
	RespType string `json:"response_type"`
	Data     any    `json:"data"`
	ErrMsg   string `json:"error_message,omitempty"`
}

func WrapResponse(respType string, data any) ResponseWrapper {
	return ResponseWrapper{
		RespType: respType,
		Data:     data,
	}
}

func WrapErrResponse(errMsg string) ResponseWrapper {
	return ResponseWrapper{
		RespType: RESP_ERROR,
		ErrMsg:   errMsg,
	}
}
