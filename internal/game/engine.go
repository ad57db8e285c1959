// internal/game/engine.go
package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	MinPlayers        = 2
	MaxPlayersLimit   = 10
	DefaultMaxPlayers = 4
)

// EngineConfig carries the collaborators and tunables of an Engine. Zero values fall
// back to defaults.
type EngineConfig struct {
	RNG               RNG
	Recorder          ActionRecorder
	Logger            logrus.FieldLogger
	HandSize          int
	DefaultMaxPlayers int
}

// Engine applies actions to games. It validates every action before mutating anything
// and runs each one inside a single store transaction. Callers must serialize actions
// per game, normally through a Dispatcher.
type Engine struct {
	store    Store
	deck     *DeckManager
	rng      RNG
	recorder ActionRecorder
	log      logrus.FieldLogger

	handSize          int
	defaultMaxPlayers int
}

// NewEngine builds an engine on top of the given store.
func NewEngine(store Store, cfg EngineConfig) *Engine {
	if cfg.RNG == nil {
		cfg.RNG = stdRNG{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.HandSize <= 0 {
		cfg.HandSize = HandSize
	}
	if cfg.DefaultMaxPlayers <= 0 {
		cfg.DefaultMaxPlayers = DefaultMaxPlayers
	}
	return &Engine{
		store:             store,
		deck:              NewDeckManager(cfg.RNG),
		rng:               cfg.RNG,
		recorder:          cfg.Recorder,
		log:               cfg.Logger,
		handSize:          cfg.HandSize,
		defaultMaxPlayers: cfg.DefaultMaxPlayers,
	}
}

// CreateGame opens a lobby with the creator in the first seat. A blank name is replaced
// by a generated one and maxPlayers <= 0 uses the default.
func (e *Engine) CreateGame(ctx context.Context, creatorID uuid.UUID, name string, maxPlayers int) (*models.Game, error) {
	if maxPlayers <= 0 {
		maxPlayers = e.defaultMaxPlayers
	}
	if maxPlayers < MinPlayers || maxPlayers > MaxPlayersLimit {
		return nil, fmt.Errorf("%w: max_players must be between %d and %d", ErrInvalidSettings, MinPlayers, MaxPlayersLimit)
	}
	if name == "" {
		name = GenerateName(e.rng)
	}

	g := &models.Game{
		ID:         uuid.New(),
		Name:       name,
		CreatedBy:  creatorID,
		MaxPlayers: maxPlayers,
		State:      models.GameStateLobby,
		Players:    []uuid.UUID{creatorID},
		Direction:  models.Clockwise,
		CreatedAt:  time.Now().UTC(),
	}
	if err := e.store.CreateGame(ctx, g); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	e.log.WithFields(logrus.Fields{"game_id": g.ID, "user_id": creatorID}).Infof("created game %q", g.Name)
	return g, nil
}

// ListGames returns the newest games, optionally filtered by state.
func (e *Engine) ListGames(ctx context.Context, state models.GameState, limit int) ([]models.GameSummary, error) {
	return e.store.ListGames(ctx, state, limit)
}

// Snapshot reads the current state of a game. It does not wait for in-flight actions.
func (e *Engine) Snapshot(ctx context.Context, gameID uuid.UUID) (*Snapshot, error) {
	g, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	cards, err := e.store.GameCards(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("load cards: %w", err)
	}
	return buildSnapshot(g, cards), nil
}

// Apply runs one action for userID and reports the outcome. Rejections are logged at
// debug level and storage failures at error level.
func (e *Engine) Apply(ctx context.Context, gameID, userID uuid.UUID, action Action) Outcome {
	var (
		snap *Snapshot
		err  error
	)
	switch a := action.(type) {
	case JoinAction:
		snap, err = e.JoinGame(ctx, gameID, userID)
	case StartAction:
		snap, err = e.Start(ctx, gameID, userID)
	case PlayCardAction:
		snap, err = e.PlayCard(ctx, gameID, userID, a.CardID, a.ChosenColor)
	case DrawCardAction:
		snap, err = e.DrawCard(ctx, gameID, userID)
	default:
		err = fmt.Errorf("unsupported action %T", action)
	}

	if err != nil {
		entry := e.log.WithFields(logrus.Fields{"game_id": gameID, "user_id": userID, "action": actionName(action)})
		if IsRejection(err) {
			entry.WithError(err).Debug("action rejected")
		} else {
			entry.WithError(err).Error("action failed")
		}
		return rejected(err)
	}
	return applied(snap)
}

func actionName(a Action) string {
	if a == nil {
		return "<nil>"
	}
	return string(a.Type())
}

// JoinGame seats userID at the end of the turn order of a lobby game.
func (e *Engine) JoinGame(ctx context.Context, gameID, userID uuid.UUID) (*Snapshot, error) {
	var g *models.Game
	snap, err := e.inTx(ctx, gameID, func(tx Tx, game *models.Game) error {
		g = game
		if g.State != models.GameStateLobby {
			return ErrGameNotInLobby
		}
		if g.HasPlayer(userID) {
			return ErrAlreadyJoined
		}
		if len(g.Players) >= g.MaxPlayers {
			return ErrGameFull
		}
		if err := tx.AddPlayer(ctx, gameID, userID); err != nil {
			return fmt.Errorf("add player: %w", err)
		}
		g.Players = append(g.Players, userID)
		g.ActionCount++
		return tx.UpdateGame(ctx, g)
	})
	if err != nil {
		return nil, err
	}
	e.logAction(g, userID, JoinAction{})
	return snap, nil
}

// Start deals the game: shuffled deck, one hand per player, one face-up discard. The
// first player in turn order moves first and play runs clockwise.
func (e *Engine) Start(ctx context.Context, gameID, userID uuid.UUID) (*Snapshot, error) {
	var g *models.Game
	snap, err := e.inTx(ctx, gameID, func(tx Tx, game *models.Game) error {
		g = game
		if g.State != models.GameStateLobby {
			return ErrGameNotInLobby
		}
		if !g.HasPlayer(userID) {
			return ErrNotAPlayer
		}
		if len(g.Players) < MinPlayers {
			return ErrNotEnoughPlayers
		}

		if _, err := e.deck.CreateDeck(ctx, tx, gameID); err != nil {
			return err
		}
		if _, err := e.deck.DealInitialHands(ctx, tx, gameID, g.Players, e.handSize); err != nil {
			return err
		}
		if _, err := e.deck.SetInitialDiscard(ctx, tx, gameID); err != nil {
			return err
		}

		g.State = models.GameStateActive
		g.CurrentPlayerID = g.Players[0]
		g.Direction = models.Clockwise
		g.ActiveColor = nil
		g.PendingDrawCount = 0
		g.ActionCount++
		return tx.UpdateGame(ctx, g)
	})
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{"game_id": gameID, "players": len(g.Players)}).Info("game started")
	e.logAction(g, userID, StartAction{})
	return snap, nil
}

// PlayCard plays one card instance from the user's hand.
//
// Checks run in this order and all of them happen before anything is written: game
// over, not started, not your turn, card not in hand, illegal play, missing color.
// Emptying the hand wins the game and leaves the current player unchanged.
func (e *Engine) PlayCard(ctx context.Context, gameID, userID, cardID uuid.UUID, chosen *models.Color) (*Snapshot, error) {
	var g *models.Game
	action := PlayCardAction{CardID: cardID, ChosenColor: chosen}
	snap, err := e.inTx(ctx, gameID, func(tx Tx, game *models.Game) error {
		g = game
		if err := checkTurn(g, userID); err != nil {
			return err
		}

		cards, err := tx.GameCards(ctx, gameID)
		if err != nil {
			return fmt.Errorf("load cards: %w", err)
		}
		var (
			played    *models.CardInstance
			handCount int
		)
		for i := range cards {
			if !cards[i].Owner.IsPlayer(userID) {
				continue
			}
			handCount++
			if cards[i].ID == cardID {
				played = &cards[i]
			}
		}
		if played == nil {
			return ErrCardNotInHand
		}

		top, err := tx.TopDiscard(ctx, gameID)
		if err != nil {
			return fmt.Errorf("load top discard: %w", err)
		}
		if top == nil {
			return fmt.Errorf("active game %s has no discard", gameID)
		}
		if !IsLegalPlay(played.Card, top.Card, g.ActiveColor, g.PendingDrawCount) {
			return ErrInvalidPlay
		}
		eff, err := ResolveEffects(played.Card.Symbol, played.Card.Color, chosen, g.PendingDrawCount)
		if err != nil {
			return err
		}

		if err := e.deck.MoveToDiscard(ctx, tx, gameID, played.ID); err != nil {
			return err
		}
		activeColor := eff.ActiveColor
		g.ActiveColor = &activeColor
		g.PendingDrawCount = eff.PendingDrawCount
		g.ActionCount++

		if handCount == 1 {
			winner := userID
			g.WinnerID = &winner
			g.State = models.GameStateCompleted
			return tx.UpdateGame(ctx, g)
		}

		direction, skip := turnStep(g.Direction, played.Card.Symbol, eff, len(g.Players))
		g.Direction = direction
		next := NextPlayerIndex(g.SeatOf(userID), len(g.Players), direction, skip)
		g.CurrentPlayerID = g.Players[next]
		return tx.UpdateGame(ctx, g)
	})
	if err != nil {
		return nil, err
	}
	if g.State == models.GameStateCompleted {
		e.log.WithFields(logrus.Fields{"game_id": gameID, "user_id": userID}).Info("game won")
	}
	e.logAction(g, userID, action)
	return snap, nil
}

// DrawCard gives the user the pending draw count, or one card when nothing is pending,
// clears the pending count and passes the turn one seat on. Drawing never skips.
func (e *Engine) DrawCard(ctx context.Context, gameID, userID uuid.UUID) (*Snapshot, error) {
	var g *models.Game
	snap, err := e.inTx(ctx, gameID, func(tx Tx, game *models.Game) error {
		g = game
		if err := checkTurn(g, userID); err != nil {
			return err
		}

		count := 1
		if g.PendingDrawCount > 0 {
			count = g.PendingDrawCount
		}
		drawn, err := e.deck.DrawCards(ctx, tx, gameID, count)
		if err != nil {
			return err
		}
		if err := e.deck.AssignToPlayer(ctx, tx, gameID, userID, drawn); err != nil {
			return err
		}

		g.PendingDrawCount = 0
		next := NextPlayerIndex(g.SeatOf(userID), len(g.Players), g.Direction, 0)
		g.CurrentPlayerID = g.Players[next]
		g.ActionCount++
		return tx.UpdateGame(ctx, g)
	})
	if err != nil {
		return nil, err
	}
	e.logAction(g, userID, DrawCardAction{})
	return snap, nil
}

func checkTurn(g *models.Game, userID uuid.UUID) error {
	if g.WinnerID != nil || g.State == models.GameStateCompleted {
		return ErrGameOver
	}
	if g.State != models.GameStateActive {
		return ErrGameNotActive
	}
	if g.CurrentPlayerID != userID {
		return ErrNotYourTurn
	}
	return nil
}

// inTx loads the game inside one transaction, runs fn and returns the snapshot as of
// the end of that transaction.
func (e *Engine) inTx(ctx context.Context, gameID uuid.UUID, fn func(tx Tx, g *models.Game) error) (*Snapshot, error) {
	var snap *Snapshot
	err := e.store.RunInTx(ctx, func(tx Tx) error {
		g, err := tx.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		if err := fn(tx, g); err != nil {
			return err
		}
		cards, err := tx.GameCards(ctx, gameID)
		if err != nil {
			return fmt.Errorf("load cards: %w", err)
		}
		snap = buildSnapshot(g, cards)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
