package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"shadow-court-be/internal/api/http"
	"shadow-court-be/internal/config"
	"shadow-court-be/internal/logger"
	"shadow-court-be/internal/service"
	"shadow-court-be/internal/state"

	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg := config.InitConfig()

	// 初始化日志器
	logger.InitLogger(cfg.LogLevel, cfg.LogEncoding)
	defer zap.L().Sync()

	gameSvc := service.NewGameService(service.OptionsFromConfig(cfg))
	defer gameSvc.Close()

	if cfg.Mode == config.MODE_SIMULATE {
		runSimulation(gameSvc, cfg.Simulate.Players)
		return
	}

	// 组装应用状态
	appState := state.NewAppState(cfg, gameSvc)

	// 启动服务器
	if err := http.RunServer(appState); err != nil {
		zap.L().Error("服务器退出", zap.Error(err))
	}
}

// runSimulation 运行一局全部由机器人操控的对局，事件通过日志输出，收到中断信号时中止对局
func runSimulation(gameSvc *service.GameService, players []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome, err := gameSvc.RunSimulation(ctx, players)
	if err != nil {
		zap.L().Error("模拟对局失败", zap.Error(err))
		return
	}

	zap.L().Info(
		"模拟对局结束",
		zap.String("winner", string(outcome.Winner)),
		zap.Int("rounds", outcome.Rounds),
		zap.Bool("aborted", outcome.Aborted),
	)

	for _, p := range outcome.Players {
		zap.L().Info(
			"玩家身份",
			zap.String("name", p.Name),
			zap.String("role", string(p.Role)),
			zap.Bool("alive", p.IsAlive),
		)
	}
}
