package http

import (
	"fmt"

	"shadow-court-be/internal/api/http/websocket"
	"shadow-court-be/internal/state"

	"github.com/kataras/iris/v12"
)

// NewApp 注册所有路由
func NewApp(appState *state.AppState) *iris.Application {
	app := iris.Default()

	api := app.Party("/api/v1")

	games := api.Party("/games")
	games.Post("/create", CreateGame(appState))
	games.Post("/{id:string}/start", StartGame(appState))
	games.Get("/{id:string}", GetGame(appState))
	games.Post("/{id:string}/abort", AbortGame(appState))

	api.Get("/ws/play", websocket.PlayGame(appState))

	return app
}

func RunServer(appState *state.AppState) error {
	app := NewApp(appState)

	addr := fmt.Sprintf(
		"%s:%d",
		appState.Cfg.Host,
		appState.Cfg.Port,
	)

	return app.Listen(addr)
}
