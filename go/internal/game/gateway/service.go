package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"github.com/mcdev12/binaryquiz/go/internal/game"
	"github.com/mcdev12/binaryquiz/go/internal/models"
	"github.com/mcdev12/binaryquiz/go/internal/results"
)

const GameServiceName = "binaryquiz.game.v1.GameService"

const (
	GameServiceStartGameProcedure      = "/" + GameServiceName + "/StartGame"
	GameServiceSubmitGuessProcedure    = "/" + GameServiceName + "/SubmitGuess"
	GameServiceAdvanceToNextProcedure  = "/" + GameServiceName + "/AdvanceToNext"
	GameServiceResetGameProcedure      = "/" + GameServiceName + "/ResetGame"
	GameServiceGetSessionProcedure     = "/" + GameServiceName + "/GetSession"
	GameServiceListQuizzesProcedure    = "/" + GameServiceName + "/ListQuizzes"
	GameServiceGetLabelsProcedure      = "/" + GameServiceName + "/GetLabels"
	GameServiceGetLeaderboardProcedure = "/" + GameServiceName + "/GetLeaderboard"
)

type StartGameRequest struct {
	QuizID string `json:"quiz_id"`
	// Optional, the configured defaults apply when absent
	RoundCount   *int  `json:"round_count,omitempty"`
	TimerSeconds *uint `json:"timer_seconds,omitempty"`
}

type SubmitGuessRequest struct {
	Guess string `json:"guess"`
}

type Empty struct{}

type SessionResponse struct {
	Session SessionView `json:"session"`
}

type ListQuizzesResponse struct {
	Quizzes []models.Quiz `json:"quizzes"`
}

type GetLabelsRequest struct {
	QuizID string `json:"quiz_id"`
}

type GetLabelsResponse struct {
	Labels *models.QuizLabels `json:"labels"`
}

type GetLeaderboardRequest struct {
	QuizID string `json:"quiz_id"`
	Limit  int    `json:"limit"`
}

type GetLeaderboardResponse struct {
	Scores []results.TopScore `json:"scores"`
}

// Leaderboard reads the completed-game ledger
type Leaderboard interface {
	Leaderboard(ctx context.Context, quizID string, limit int) ([]results.TopScore, error)
}

// Defaults fill in StartGame requests that leave options out
type Defaults struct {
	Rounds       int
	TimerSeconds uint
}

// Service implements the GameService connect interface
type Service struct {
	engine      GameEngine
	leaderboard Leaderboard
	defaults    Defaults
}

// NewService creates the game service. leaderboard may be nil.
func NewService(engine GameEngine, leaderboard Leaderboard, defaults Defaults) *Service {
	return &Service{
		engine:      engine,
		leaderboard: leaderboard,
		defaults:    defaults,
	}
}

// NewGameServiceHandler builds an HTTP handler serving every GameService
// procedure. It returns the path to mount it on.
func NewGameServiceHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(GameServiceStartGameProcedure, connect.NewUnaryHandler(GameServiceStartGameProcedure, svc.StartGame, opts...))
	mux.Handle(GameServiceSubmitGuessProcedure, connect.NewUnaryHandler(GameServiceSubmitGuessProcedure, svc.SubmitGuess, opts...))
	mux.Handle(GameServiceAdvanceToNextProcedure, connect.NewUnaryHandler(GameServiceAdvanceToNextProcedure, svc.AdvanceToNext, opts...))
	mux.Handle(GameServiceResetGameProcedure, connect.NewUnaryHandler(GameServiceResetGameProcedure, svc.ResetGame, opts...))
	mux.Handle(GameServiceGetSessionProcedure, connect.NewUnaryHandler(GameServiceGetSessionProcedure, svc.GetSession, opts...))
	mux.Handle(GameServiceListQuizzesProcedure, connect.NewUnaryHandler(GameServiceListQuizzesProcedure, svc.ListQuizzes, opts...))
	mux.Handle(GameServiceGetLabelsProcedure, connect.NewUnaryHandler(GameServiceGetLabelsProcedure, svc.GetLabels, opts...))
	mux.Handle(GameServiceGetLeaderboardProcedure, connect.NewUnaryHandler(GameServiceGetLeaderboardProcedure, svc.GetLeaderboard, opts...))
	return "/" + GameServiceName + "/", mux
}

// StartGame starts a new session, replacing any session in progress
func (s *Service) StartGame(ctx context.Context, req *connect.Request[StartGameRequest]) (*connect.Response[SessionResponse], error) {
	quizID := strings.TrimSpace(req.Msg.QuizID)
	if quizID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("quiz_id is required"))
	}

	rounds := s.defaults.Rounds
	if req.Msg.RoundCount != nil {
		rounds = *req.Msg.RoundCount
	}
	timer := s.defaults.TimerSeconds
	if req.Msg.TimerSeconds != nil {
		timer = *req.Msg.TimerSeconds
	}

	if err := s.engine.StartGame(ctx, quizID, rounds, timer); err != nil {
		return nil, toConnectError(err)
	}
	return s.session(), nil
}

// SubmitGuess answers the current round. Outside of play it changes nothing.
func (s *Service) SubmitGuess(ctx context.Context, req *connect.Request[SubmitGuessRequest]) (*connect.Response[SessionResponse], error) {
	if err := s.engine.SubmitGuess(ctx, game.Guess(req.Msg.Guess)); err != nil {
		return nil, toConnectError(err)
	}
	return s.session(), nil
}

// AdvanceToNext moves past a scored round
func (s *Service) AdvanceToNext(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[SessionResponse], error) {
	if err := s.engine.AdvanceToNext(ctx); err != nil {
		return nil, toConnectError(err)
	}
	return s.session(), nil
}

// ResetGame abandons the current session
func (s *Service) ResetGame(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[SessionResponse], error) {
	if err := s.engine.ResetGame(ctx); err != nil {
		return nil, toConnectError(err)
	}
	return s.session(), nil
}

// GetSession returns the latest snapshot
func (s *Service) GetSession(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[SessionResponse], error) {
	return s.session(), nil
}

// ListQuizzes refreshes the quiz list from the catalog
func (s *Service) ListQuizzes(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ListQuizzesResponse], error) {
	quizzes, err := s.engine.FetchQuizzes(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListQuizzesResponse{Quizzes: quizzes}), nil
}

// GetLabels returns the category names of a listed quiz
func (s *Service) GetLabels(ctx context.Context, req *connect.Request[GetLabelsRequest]) (*connect.Response[GetLabelsResponse], error) {
	labels := s.engine.GetLabelsFor(req.Msg.QuizID)
	if labels == nil {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("unknown quiz, list quizzes first"))
	}
	return connect.NewResponse(&GetLabelsResponse{Labels: labels}), nil
}

// GetLeaderboard returns the best recorded games of a quiz
func (s *Service) GetLeaderboard(ctx context.Context, req *connect.Request[GetLeaderboardRequest]) (*connect.Response[GetLeaderboardResponse], error) {
	if s.leaderboard == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, errors.New("no results store configured"))
	}
	scores, err := s.leaderboard.Leaderboard(ctx, req.Msg.QuizID, req.Msg.Limit)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetLeaderboardResponse{Scores: scores}), nil
}

func (s *Service) session() *connect.Response[SessionResponse] {
	state := s.engine.State()
	return connect.NewResponse(&SessionResponse{
		Session: newSessionView(state, s.engine.GetLabelsFor(state.QuizID)),
	})
}

// toConnectError maps domain errors to connect codes
func toConnectError(err error) error {
	switch {
	case errors.Is(err, game.ErrInvalidGuess),
		errors.Is(err, game.ErrInvalidRounds),
		errors.Is(err, results.ErrInvalidGame),
		errors.Is(err, results.ErrInvalidLimit):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, game.ErrCatalogUnavailable),
		errors.Is(err, game.ErrEngineStopped):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, game.ErrStartSuperseded):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
