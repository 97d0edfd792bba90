package http

import (
	"errors"

	"shadow-court-be/internal/service"
	"shadow-court-be/internal/service/dto"
	"shadow-court-be/internal/service/game"
	"shadow-court-be/internal/state"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// statusOf 把服务层错误映射为 HTTP 状态码
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return iris.StatusNotFound
	case errors.Is(err, service.ErrGameStarted),
		errors.Is(err, service.ErrGameNotActive),
		errors.Is(err, game.ErrVotingClosed):
		return iris.StatusConflict
	default:
		return iris.StatusBadRequest
	}
}

func writeError(ctx iris.Context, err error) {
	status := statusOf(err)

	zap.L().Debug(
		"请求处理失败",
		zap.String("path", ctx.Path()),
		zap.Int("status", status),
		zap.Error(err),
	)

	ctx.StatusCode(status)
	ctx.JSON(iris.Map{
		"error": err.Error(),
	})
}

func CreateGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.CreateGameRequest

		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StatusCode(iris.StatusBadRequest)
			ctx.JSON(iris.Map{
				"error": "请求参数无效",
			})
			return
		}

		resp, err := appState.GameSvc.CreateGame(req)
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(resp)
	}
}

func StartGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		resp, err := appState.GameSvc.StartGame(ctx.Params().Get("id"))
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(resp)
	}
}

func GetGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		snap, err := appState.GameSvc.Snapshot(ctx.Params().Get("id"))
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(snap)
	}
}

func AbortGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		resp, err := appState.GameSvc.AbortGame(ctx.Params().Get("id"))
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(resp)
	}
}
