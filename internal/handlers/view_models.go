package handlers

import (
	"time"

	"millionaire/internal/game"
	"millionaire/internal/models"
)

const timeFormat = time.RFC3339

// UserView is the public part of an account
type UserView struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

func newUserView(u *models.User) UserView {
	return UserView{ID: u.ID, Name: u.Name, Balance: u.Balance}
}

// ProfileView is a player's page with their game history
type ProfileView struct {
	UserView
	Games []GameSummaryView `json:"games"`
}

// GameSummaryView is one history row
type GameSummaryView struct {
	ID           int64   `json:"id"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at"`
	FinishedAt   *string `json:"finished_at,omitempty"`
	QuestionsHit int     `json:"questions_answered"`
	Prize        int64   `json:"prize"`
	FiftyFifty   bool    `json:"fifty_fifty_used"`
	AudienceHelp bool    `json:"audience_help_used"`
	FriendCall   bool    `json:"friend_call_used"`
}

func newProfileView(p *models.Profile) ProfileView {
	view := ProfileView{UserView: newUserView(&p.User), Games: []GameSummaryView{}}
	for _, g := range p.Games {
		view.Games = append(view.Games, GameSummaryView{
			ID:           g.GameID,
			Status:       g.Status,
			CreatedAt:    g.CreatedAt.UTC().Format(timeFormat),
			FinishedAt:   formatTime(g.FinishedAt),
			QuestionsHit: g.CurrentLevel,
			Prize:        g.Prize,
			FiftyFifty:   g.FiftyFifty,
			AudienceHelp: g.AudienceHelp,
			FriendCall:   g.FriendCall,
		})
	}
	return view
}

// GameView is what a player sees of their game. The correct answer of the
// current question stays hidden while the game is in progress.
type GameView struct {
	ID              int64            `json:"id"`
	Status          game.Status      `json:"status"`
	CurrentLevel    int              `json:"current_level"`
	Prize           int64            `json:"prize"`
	CreatedAt       string           `json:"created_at"`
	FinishedAt      *string          `json:"finished_at,omitempty"`
	TimeLeftSeconds int              `json:"time_left_seconds"`
	Question        *QuestionView    `json:"question,omitempty"`
	HintsUsed       map[string]bool  `json:"hints_used"`
	Ladder          []PrizeLevelView `json:"ladder"`
	Result          *ResultView      `json:"result,omitempty"`
}

// QuestionView is the rung being played
type QuestionView struct {
	Level   int                         `json:"level"`
	Text    string                      `json:"text"`
	Answers map[string]string           `json:"answers"`
	Hints   map[game.HintType]game.Hint `json:"hints,omitempty"`
}

// PrizeLevelView is one step of the prize ladder
type PrizeLevelView struct {
	Level     int   `json:"level"`
	Amount    int64 `json:"amount"`
	Fireproof bool  `json:"fireproof"`
	Current   bool  `json:"current"`
}

// ResultView reveals the last question of a finished game
type ResultView struct {
	Level         int    `json:"level"`
	Text          string `json:"text"`
	CorrectAnswer string `json:"correct_answer"`
}

func newGameView(g *game.Game) GameView {
	state := g.State()
	view := GameView{
		ID:              state.ID,
		Status:          g.Status(),
		CurrentLevel:    state.CurrentLevel,
		Prize:           state.Prize,
		CreatedAt:       state.CreatedAt.UTC().Format(timeFormat),
		FinishedAt:      formatTime(state.FinishedAt),
		TimeLeftSeconds: int(g.TimeLeft().Seconds()),
		HintsUsed:       make(map[string]bool, len(game.HintTypes)),
	}
	for _, t := range game.HintTypes {
		view.HintsUsed[string(t)] = g.HintUsed(t)
	}
	for _, lvl := range g.PrizeTable().Levels() {
		view.Ladder = append(view.Ladder, PrizeLevelView{
			Level:     lvl.Level,
			Amount:    lvl.Amount,
			Fireproof: lvl.Fireproof,
			Current:   lvl.Level == state.CurrentLevel,
		})
	}

	if state.FinishedAt == nil {
		if gq, err := g.CurrentQuestion(); err == nil {
			view.Question = &QuestionView{
				Level:   gq.Level,
				Text:    gq.Question.Text,
				Answers: gq.Question.Answers,
				Hints:   gq.Hints,
			}
		}
		return view
	}

	view.TimeLeftSeconds = 0
	// a won game has no current question; reveal the last one answered
	last, err := g.CurrentQuestion()
	if err != nil {
		last, err = g.PreviousQuestion()
	}
	if err == nil {
		view.Result = &ResultView{
			Level:         last.Level,
			Text:          last.Question.Text,
			CorrectAnswer: last.CorrectAnswer(),
		}
	}
	return view
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(timeFormat)
	return &s
}
