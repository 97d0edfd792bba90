package websocket

import (
	"encoding/json"
	"errors"
	"time"

	"shadow-court-be/internal/service"
	"shadow-court-be/internal/service/game"
	"shadow-court-be/internal/state"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// PlayGame 把一名玩家（或 player_id 为空的旁观者）接入对局：
// 推送该玩家可见的展示事件，并接收投票、夜晚行动和快照请求
func PlayGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		gameID := ctx.URLParam("game_id")
		playerID := ctx.URLParam("player_id")

		events, unsubscribe, err := appState.GameSvc.Subscribe(gameID, playerID)
		if err != nil {
			status := iris.StatusBadRequest
			if errors.Is(err, service.ErrGameNotFound) {
				status = iris.StatusNotFound
			}

			ctx.StatusCode(status)
			ctx.JSON(iris.Map{
				"error": err.Error(),
			})
			return
		}
		defer unsubscribe()

		pc, err := upgrade(ctx)
		if err != nil {
			zap.L().Error("升级到WebSocket失败", zap.Error(err))
			return
		}

		defer pc.close()

		zap.L().Info(
			"玩家接入对局",
			zap.String("client_ip", pc.clientIP),
			zap.String("game_id", gameID),
			zap.String("player_id", playerID),
		)

		// 对请求的直接回复，只由写协程发送
		respCh := make(chan game.ResponseWrapper, 16)

		// 写协程的退出信号
		writeDoneCh := make(chan struct{})

		go func() {
			defer close(writeDoneCh)
			// 关闭连接以唤醒阻塞中的读循环
			defer pc.close()

			writeLoop(pc, appState, gameID, events, respCh)
		}()

		reply := func(resp game.ResponseWrapper) {
			select {
			case respCh <- resp:
			case <-writeDoneCh:
			}
		}

		// 读取协程（主协程）
		for {
			msg, err := pc.read()
			if err != nil {
				if unexpectedClose(err) {
					zap.L().Error(
						"读取消息失败",
						zap.String("client_ip", pc.clientIP),
						zap.Error(err),
					)
				}

				break
			}

			var wrapper game.RequestWrapper

			if err := json.Unmarshal(msg, &wrapper); err != nil {
				zap.L().Error(
					"解析消息失败",
					zap.String("client_ip", pc.clientIP),
					zap.Error(err),
				)

				reply(game.WrapErrResponse("无效的请求格式"))
				continue
			}

			reply(handleRequest(ctx, appState, gameID, playerID, wrapper))
		}

		zap.L().Info(
			"WebSocket连接处理完成",
			zap.String("client_ip", pc.clientIP),
			zap.String("game_id", gameID),
			zap.String("player_id", playerID),
		)
	}
}

// writeLoop 推送展示事件和请求回复，并定期发送心跳。
// 对局结束后事件通道关闭，此时发送最终快照并断开连接。
func writeLoop(
	pc *playerConn,
	appState *state.AppState,
	gameID string,
	events <-chan game.ResponseWrapper,
	respCh <-chan game.ResponseWrapper,
) {
	ticker := time.NewTicker(HEARTBEAT_INTERVAL)
	defer ticker.Stop()

	write := func(resp game.ResponseWrapper) bool {
		if err := pc.send(resp); err != nil {
			zap.L().Error(
				"发送消息失败",
				zap.String("client_ip", pc.clientIP),
				zap.Error(err),
			)
			return false
		}
		return true
	}

	for {
		select {
		case <-ticker.C:
			if err := pc.ping(); err != nil {
				zap.L().Error(
					"发送心跳失败",
					zap.String("client_ip", pc.clientIP),
					zap.Error(err),
				)
				return
			}

		case resp, ok := <-events:
			if !ok {
				if snap, err := appState.GameSvc.Snapshot(gameID); err == nil {
					write(game.WrapResponse(game.RESP_SNAPSHOT, snap))
				}

				pc.finish("game over")

				zap.L().Info(
					"事件通道已关闭，退出写协程",
					zap.String("client_ip", pc.clientIP),
				)
				return
			}

			if !write(resp) {
				return
			}

		case resp := <-respCh:
			if !write(resp) {
				return
			}
		}
	}
}

func handleRequest(
	ctx iris.Context,
	appState *state.AppState,
	gameID, playerID string,
	wrapper game.RequestWrapper,
) game.ResponseWrapper {
	if game.IsSnapshotRequest(wrapper) {
		snap, err := appState.GameSvc.Snapshot(gameID)
		if err != nil {
			return game.WrapErrResponse(err.Error())
		}

		return game.WrapResponse(game.RESP_SNAPSHOT, snap)
	}

	if req := game.TryUnwrapVoteRequest(wrapper); req != nil {
		err := appState.GameSvc.SubmitVote(ctx.Request().Context(), gameID, playerID, req.TargetID)
		if err != nil {
			return game.WrapErrResponse(err.Error())
		}

		return game.WrapResponse(game.RESP_VOTE, game.VoteResponse{
			VoterID:  playerID,
			TargetID: req.TargetID,
		})
	}

	if req := game.TryUnwrapNightActionRequest(wrapper); req != nil {
		err := appState.GameSvc.SubmitNightAction(gameID, playerID, req.Action, req.TargetID)
		if err != nil {
			return game.WrapErrResponse(err.Error())
		}

		return game.WrapResponse(game.RESP_NIGHT_ACTION, game.NightActionResponse{
			Action:   req.Action,
			TargetID: req.TargetID,
			Queued:   true,
		})
	}

	zap.L().Warn(
		"未知的请求类型",
		zap.String("game_id", gameID),
		zap.String("request_type", wrapper.ReqType),
	)

	return game.WrapErrResponse("未知的请求类型")
}
