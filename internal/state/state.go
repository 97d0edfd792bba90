package state

import (
	"shadow-court-be/internal/config"
	"shadow-court-be/internal/service"
)

type AppState struct {
	Cfg     *config.AppConfig
	GameSvc *service.GameService
}

func NewAppState(
	cfg *config.AppConfig,
	gameSvc *service.GameService,
) *AppState {
	return &AppState{
		Cfg:     cfg,
		GameSvc: gameSvc,
	}
}
