package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"shadow-court-be/internal/config"
	"shadow-court-be/internal/random"
	"shadow-court-be/internal/service/dto"
	"shadow-court-be/internal/service/game"

	"go.uber.org/zap"
)

// SUBMIT_TIMEOUT 是提交投票时等待对局协程处理的最长时间
const SUBMIT_TIMEOUT = 5 * time.Second

type Options struct {
	// 为 0 时每局使用随机种子，否则第 n 局（从 0 开始）使用 Seed+n
	Seed            int64
	Rules           config.RulesConfig
	GameTTL         time.Duration
	CleanupInterval time.Duration
	// 为空时使用真实时钟
	Clock game.Clock
}

func OptionsFromConfig(cfg *config.AppConfig) Options {
	return Options{
		Seed:            cfg.Seed,
		Rules:           cfg.Rules,
		GameTTL:         cfg.Service.GameTTL,
		CleanupInterval: cfg.Service.CleanupInterval,
	}
}

type GameService struct {
	opts  Options
	state *gameServiceState
}

type gameServiceState struct {
	mu sync.RWMutex

	// 从对局 ID 到对局的映射
	sessions map[string]*session

	baseCtx     context.Context
	cancelAll   context.CancelFunc
	cleanUpDone chan struct{}
	closeOnce   sync.Once

	// 已创建的对局数，用于推导每局的种子
	created atomic.Int64
}

func NewGameService(opts Options) *GameService {
	if opts.GameTTL <= 0 {
		opts.GameTTL = 30 * time.Minute
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = game.RealClock{}
	}

	baseCtx, cancelAll := context.WithCancel(context.Background())

	state := &gameServiceState{
		sessions:    make(map[string]*session),
		baseCtx:     baseCtx,
		cancelAll:   cancelAll,
		cleanUpDone: make(chan struct{}),
	}

	// 启动一个 goroutine 定期清理过期的对局
	go startCleanupLoop(state, opts.CleanupInterval, opts.GameTTL)

	return &GameService{
		opts:  opts,
		state: state,
	}
}

func startCleanupLoop(state *gameServiceState, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-state.cleanUpDone:
			return

		case now := <-ticker.C:
			state.cleanup(now, ttl)
		}
	}
}

func (state *gameServiceState) cleanup(now time.Time, ttl time.Duration) int {
	state.mu.Lock()
	defer state.mu.Unlock()

	removed := 0
	for gameID, s := range state.sessions {
		if !s.expired(now, ttl) {
			continue
		}

		zap.S().Infof("对局 %s 已过期，开始清理", gameID)

		s.abort()
		s.display.close()
		delete(state.sessions, gameID)
		removed++
	}

	return removed
}

// Close 取消所有进行中的对局并停止清理协程
func (gs *GameService) Close() {
	gs.state.closeOnce.Do(func() {
		close(gs.state.cleanUpDone)
		gs.state.cancelAll()

		gs.state.mu.Lock()
		defer gs.state.mu.Unlock()

		for _, s := range gs.state.sessions {
			if s.isStarted() {
				<-s.done
			}
			s.display.close()
		}
	})
}

func (gs *GameService) newRules(rng *rand.Rand) game.Rules {
	rules := game.DefaultRules(rng)

	rules.AssignJester = gs.opts.Rules.AssignJester
	rules.VoteTimeout = gs.opts.Rules.VoteTimeout
	rules.CloseWhenAllVoted = gs.opts.Rules.CloseWhenAllVoted
	if gs.opts.Rules.TickInterval > 0 {
		rules.TickInterval = gs.opts.Rules.TickInterval
	}
	rules.TieBreaker = TieBreakerFor(gs.opts.Rules.TiePolicy, rng)

	return rules
}

// TieBreakerFor 把配置中的平票策略映射为对应实现，未知策略按随机处理
func TieBreakerFor(policy string, rng *rand.Rand) game.TieBreaker {
	if policy == config.TIE_POLICY_NO_ELIMINATION {
		return game.NoEliminationTieBreaker{}
	}

	return game.NewRandomTieBreaker(rng)
}

func (gs *GameService) CreateGame(req dto.CreateGameRequest) (dto.CreateGameResponse, error) {
	if len(req.PlayerNames) < game.MIN_PLAYERS {
		return dto.CreateGameResponse{}, fmt.Errorf(
			"%w: need at least %d, got %d",
			game.ErrInsufficientPlayers, game.MIN_PLAYERS, len(req.PlayerNames),
		)
	}

	names := make([]string, 0, len(req.PlayerNames))
	for _, name := range req.PlayerNames {
		name = strings.TrimSpace(name)
		if name == "" {
			return dto.CreateGameResponse{}, ErrEmptyName
		}
		names = append(names, name)
	}

	humanSeats := make(map[int]bool, len(req.HumanSeats))
	for _, seat := range req.HumanSeats {
		if seat < 0 || seat >= len(names) {
			return dto.CreateGameResponse{}, fmt.Errorf("%w: %d", ErrInvalidSeat, seat)
		}
		humanSeats[seat] = true
	}

	// 配置了种子时每局依次偏移，避免所有对局完全相同
	seed, err := random.SeedFor(gs.opts.Seed, gs.state.created.Add(1)-1)
	if err != nil {
		return dto.CreateGameResponse{}, err
	}

	rng := game.NewRand(seed)
	roster := game.NewRosterFromNames(names)
	players := roster.Players()

	gameID := game.GenID()
	display := newFanout(gameID)
	ballots := make(chan game.Ballot, BALLOT_BUFFER)

	gc := &game.GameContext{
		GameID:   gameID,
		Roster:   roster,
		Rules:    gs.newRules(rng),
		Rng:      rng,
		Clock:    gs.opts.Clock,
		Display:  game.MultiDisplay{display, game.LogDisplay{GameID: gameID}},
		Deciders: make(map[string]game.DecisionSource),
		Humans:   make(map[string]bool),
		Ballots:  ballots,
	}

	humans := make(map[string]*game.ChannelDecider)
	resp := dto.CreateGameResponse{
		GameID:  gameID,
		Players: make([]dto.Player, 0, len(players)),
	}

	for seat, p := range players {
		human := humanSeats[seat]
		if human {
			decider := game.NewChannelDecider(gs.opts.Clock, gs.opts.Rules.ActionTimeout)
			humans[p.ID] = decider
			gc.Deciders[p.ID] = decider
			gc.Humans[p.ID] = true
		}

		resp.Players = append(resp.Players, dto.Player{
			ID:    p.ID,
			Name:  p.Name,
			Seat:  seat,
			Human: human,
		})
	}

	machine, err := game.NewGameMachine(gc)
	if err != nil {
		return dto.CreateGameResponse{}, err
	}

	s := &session{
		id:        gameID,
		machine:   machine,
		players:   players,
		humans:    humans,
		ballots:   ballots,
		display:   display,
		seed:      seed,
		done:      make(chan struct{}),
		createdAt: time.Now(),
	}

	gs.state.mu.Lock()
	gs.state.sessions[gameID] = s
	gs.state.mu.Unlock()

	zap.S().Infof("对局 %s 已创建，共 %d 名玩家，其中 %d 名真人，种子 %d", gameID, len(names), len(humans), seed)

	return resp, nil
}

func (gs *GameService) getSession(gameID string) (*session, error) {
	gs.state.mu.RLock()
	defer gs.state.mu.RUnlock()

	s, ok := gs.state.sessions[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}

	return s, nil
}

func (gs *GameService) StartGame(gameID string) (dto.StartGameResponse, error) {
	s, err := gs.getSession(gameID)
	if err != nil {
		return dto.StartGameResponse{}, err
	}

	if !s.start(gs.state.baseCtx) {
		return dto.StartGameResponse{}, fmt.Errorf("%w: %s", ErrGameStarted, gameID)
	}

	zap.S().Infof("对局 %s 开始", gameID)

	return dto.StartGameResponse{
		GameID: gameID,
		Stage:  s.machine.Snapshot().Stage,
	}, nil
}

func (gs *GameService) Snapshot(gameID string) (game.Snapshot, error) {
	s, err := gs.getSession(gameID)
	if err != nil {
		return game.Snapshot{}, err
	}

	return s.machine.Snapshot(), nil
}

// Outcome 返回已结束对局的结果，对局尚未结束时 ok 为 false
func (gs *GameService) Outcome(gameID string) (game.Outcome, bool, error) {
	s, err := gs.getSession(gameID)
	if err != nil {
		return game.Outcome{}, false, err
	}

	outcome, ok := s.result()
	return outcome, ok, nil
}

// Wait 阻塞直到对局结束或 ctx 被取消
func (gs *GameService) Wait(ctx context.Context, gameID string) (game.Outcome, error) {
	s, err := gs.getSession(gameID)
	if err != nil {
		return game.Outcome{}, err
	}

	if !s.isStarted() {
		return game.Outcome{}, fmt.Errorf("%w: %s", ErrGameNotActive, gameID)
	}

	select {
	case <-s.done:
		outcome, _ := s.result()
		return outcome, nil
	case <-ctx.Done():
		return game.Outcome{}, ctx.Err()
	}
}

// Subscribe 订阅对局事件，playerID 为空表示旁观者，只能收到公开事件
func (gs *GameService) Subscribe(gameID, playerID string) (<-chan game.ResponseWrapper, func(), error) {
	s, err := gs.getSession(gameID)
	if err != nil {
		return nil, nil, err
	}

	if playerID != "" && !s.hasPlayer(playerID) {
		return nil, nil, fmt.Errorf("%w: %s", game.ErrUnknownPlayer, playerID)
	}

	ch, cancel := s.display.subscribe(playerID)
	return ch, cancel, nil
}

func (gs *GameService) AbortGame(gameID string) (dto.AbortGameResponse, error) {
	s, err := gs.getSession(gameID)
	if err != nil {
		return dto.AbortGameResponse{}, err
	}

	if !s.abort() {
		return dto.AbortGameResponse{}, fmt.Errorf("%w: %s", ErrGameNotActive, gameID)
	}

	<-s.done

	zap.S().Infof("对局 %s 已被中止", gameID)

	outcome, _ := s.result()
	return dto.AbortGameResponse{
		GameID:  gameID,
		Aborted: outcome.Aborted,
	}, nil
}

// SubmitVote 由真人玩家在白天投票，阻塞直到对局协程处理完这张票
func (gs *GameService) SubmitVote(ctx context.Context, gameID, voterID, targetID string) error {
	s, err := gs.getSession(gameID)
	if err != nil {
		return err
	}

	if _, ok := s.humans[voterID]; !ok {
		return fmt.Errorf("%w: %s", game.ErrUnknownPlayer, voterID)
	}

	snap := s.machine.Snapshot()
	if !s.isStarted() || snap.Stage != game.STAGE_DAY {
		return fmt.Errorf("%w: stage %s", game.ErrVotingClosed, snap.Stage)
	}

	reply := make(chan error, 1)
	ballot := game.Ballot{
		Round:    snap.Round,
		VoterID:  voterID,
		TargetID: targetID,
		Reply:    reply,
	}

	timer := time.NewTimer(SUBMIT_TIMEOUT)
	defer timer.Stop()

	select {
	case s.ballots <- ballot:
	case <-timer.C:
		zap.S().Warnf("对局 %s 无法及时接收 %s 的投票", gameID, voterID)
		return game.ErrVotingClosed
	case <-s.done:
		return fmt.Errorf("%w: %s", ErrGameNotActive, gameID)
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-timer.C:
		// 投票窗口在这张票被处理前关闭
		return game.ErrVotingClosed
	case <-s.done:
		return fmt.Errorf("%w: %s", ErrGameNotActive, gameID)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitNightAction 在夜晚提交真人玩家的行动。
// 返回 nil 只表示选择已排队，轮到对应子阶段时才会被采纳，同一动作重复提交时以最后一次为准。
func (gs *GameService) SubmitNightAction(gameID, playerID string, action game.Action, targetID string) error {
	s, err := gs.getSession(gameID)
	if err != nil {
		return err
	}

	decider, ok := s.humans[playerID]
	if !ok {
		return fmt.Errorf("%w: %s", game.ErrUnknownPlayer, playerID)
	}

	role, ok := action.NightRole()
	if !ok {
		return fmt.Errorf("%w: unknown night action %q", ErrActionNotAllowed, action)
	}

	snap := s.machine.Snapshot()
	if !s.isStarted() || snap.Finished {
		return fmt.Errorf("%w: %s", ErrGameNotActive, gameID)
	}

	if snap.Stage != game.STAGE_NIGHT || snap.Round < 1 {
		return fmt.Errorf("%w: stage %s", ErrActionNotAllowed, snap.Stage)
	}

	seat, ok := s.machine.Seat(playerID)
	if !ok || !seat.IsAlive {
		return fmt.Errorf("%w: player %s is not alive", ErrActionNotAllowed, playerID)
	}

	if seat.Role != role {
		return fmt.Errorf("%w: %s cannot %s", ErrActionNotAllowed, seat.Role, action)
	}

	if (action == game.ACTION_ALCHEMIST_SAVE && seat.HasSaved) ||
		(action == game.ACTION_ALCHEMIST_KILL && seat.HasKilled) {
		return fmt.Errorf("%w: %s already used", ErrActionNotAllowed, action)
	}

	decider.Offer(snap.Round, action, targetID)

	return nil
}

// RunSimulation 运行一局全部由机器人操控的对局并阻塞到结束
func (gs *GameService) RunSimulation(ctx context.Context, names []string) (game.Outcome, error) {
	resp, err := gs.CreateGame(dto.CreateGameRequest{PlayerNames: names})
	if err != nil {
		return game.Outcome{}, err
	}

	if _, err := gs.StartGame(resp.GameID); err != nil {
		return game.Outcome{}, err
	}

	outcome, err := gs.Wait(ctx, resp.GameID)
	if err != nil {
		_, _ = gs.AbortGame(resp.GameID)
		return game.Outcome{}, err
	}

	return outcome, nil
}
