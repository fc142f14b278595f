// Package driver runs the interaction protocol: it is the only writer of
// stage transitions. Engines stay pure; everything about persistence,
// concurrency and delivery lives here.
package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/macabreb0b/interpunctbot/engine"
	"github.com/macabreb0b/interpunctbot/internal/guard"
	"github.com/macabreb0b/interpunctbot/internal/store"
)

// Notice is a private message to one user: text plus optional live buttons.
type Notice struct {
	Text string
	Rows []engine.Row
}

// Surface is the chat platform seen from the driver: a shared message per
// game that gets replaced wholesale, and private notices.
type Surface interface {
	// Post publishes the initial shared message of a game.
	Post(ctx context.Context, id engine.GameID, msg engine.Message) error
	// Update replaces the shared message of a game.
	Update(ctx context.Context, id engine.GameID, msg engine.Message) error
	// Notify delivers a private notice to one user.
	Notify(ctx context.Context, user engine.UserID, n Notice) error
}

const (
	noticeBusy     = "Hold on, your last press is still being processed."
	noticeNotFound = "That game no longer exists."
	noticeStale    = "This button is no longer active."
)

// Driver wires a Store, a Guard and a Surface together.
type Driver struct {
	store   store.Store
	guard   guard.Guard
	surface Surface
	log     *log.Entry
}

func New(st store.Store, g guard.Guard, s Surface, logger *log.Logger) *Driver {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Driver{store: st, guard: g, surface: s, log: logger.WithField("component", "driver")}
}

// Create starts a new game of kind hosted by host: persists the stage-zero
// state and posts its first render.
func (d *Driver) Create(ctx context.Context, kind engine.Kind, host engine.UserID) (engine.GameID, error) {
	g, ok := engine.ByKind(kind)
	if !ok {
		return 0, fmt.Errorf("unknown game kind %q", kind)
	}
	st := g.NewState(host)
	raw, err := json.Marshal(st)
	if err != nil {
		return 0, fmt.Errorf("encode %s state: %w", kind, err)
	}
	id, err := d.store.Create(ctx, kind, raw)
	if err != nil {
		return 0, fmt.Errorf("create %s game: %w", kind, err)
	}
	msg := g.Render(st, engine.Key{GameID: id, Kind: kind, Stage: 0})
	if err := d.surface.Post(ctx, id, msg); err != nil {
		return 0, fmt.Errorf("post game %d: %w", id, err)
	}
	d.log.WithFields(log.Fields{"kind": kind, "game": id, "user": host}).Info("game created")
	return id, nil
}

// Press handles one button press. The token is untrusted input: any codec
// violation is a hard error, while well-formed-but-stale presses resolve to
// a private notice without ever reaching an engine.
func (d *Driver) Press(ctx context.Context, token string, actor engine.UserID) error {
	pk, err := engine.ParseKey(token)
	if err != nil {
		return fmt.Errorf("press by %s: %w", actor, err)
	}
	plog := d.log.WithFields(log.Fields{
		"kind":   pk.Kind,
		"game":   pk.GameID,
		"stage":  pk.Stage,
		"action": pk.Name,
		"user":   actor,
	})

	release, ok, err := d.guard.Acquire(ctx, pk.GameID, actor)
	if err != nil {
		return fmt.Errorf("acquire press marker: %w", err)
	}
	if !ok {
		plog.Debug("press marker busy")
		return d.surface.Notify(ctx, actor, Notice{Text: noticeBusy})
	}
	defer release()

	rec, err := d.store.Load(ctx, pk.GameID)
	if errors.Is(err, store.ErrNotFound) {
		plog.Debug("press on missing game")
		return d.surface.Notify(ctx, actor, Notice{Text: noticeNotFound})
	}
	if err != nil {
		return fmt.Errorf("load game %d: %w", pk.GameID, err)
	}
	if rec.Stage != pk.Stage {
		// A concurrent press already advanced the game. First committer
		// wins; this one gets a notice and the refreshed shared message
		// speaks for itself.
		plog.WithField("current_stage", rec.Stage).Debug("stale press")
		return d.surface.Notify(ctx, actor, Notice{Text: noticeStale})
	}

	g, ok := engine.ByKind(rec.Kind)
	if !ok {
		return fmt.Errorf("game %d has unknown kind %q", rec.ID, rec.Kind)
	}
	st, err := g.DecodeState(rec.State)
	if err != nil {
		plog.WithField("state", string(rec.State)).Error("corrupt game state")
		return fmt.Errorf("decode game %d: %w", rec.ID, err)
	}

	key := engine.Key{GameID: rec.ID, Kind: rec.Kind, Stage: rec.Stage}
	out := g.Handle(st, pk.Name, actor, key)
	switch out.Type {
	case engine.OutcomeAdvance:
		next := key
		next.Stage++
		raw, err := json.Marshal(out.Next)
		if err != nil {
			return fmt.Errorf("encode game %d: %w", rec.ID, err)
		}
		msg := g.Render(out.Next, next)
		if err := msg.Validate(); err != nil {
			return fmt.Errorf("render game %d: %w", rec.ID, err)
		}
		if err := d.surface.Update(ctx, rec.ID, msg); err != nil {
			return fmt.Errorf("update game %d: %w", rec.ID, err)
		}
		if err := d.store.Update(ctx, rec.ID, next.Stage, raw); err != nil {
			// The new render is already live; failing to persist it means
			// the shown buttons can never be honored.
			plog.WithField("error", err).Error("persist failed after render was delivered")
			return fmt.Errorf("persist game %d stage %d: %w", rec.ID, next.Stage, err)
		}
		plog.Info("stage advanced")
		return nil
	case engine.OutcomeReject:
		plog.WithField("notice", out.Notice).Debug("press rejected")
		return d.surface.Notify(ctx, actor, Notice{Text: out.Notice})
	case engine.OutcomeHandled:
		return d.surface.Notify(ctx, actor, Notice{Text: out.Notice, Rows: out.Rows})
	default:
		return fmt.Errorf("engine %s returned unknown outcome %d", rec.Kind, out.Type)
	}
}
