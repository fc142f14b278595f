// Package guard provides per-(game, user) markers so one user's press on one
// game is processed at a time. It is a politeness mechanism for the private
// notice flow, not a correctness one: racing presses that slip past it are
// still resolved by the driver's stage check.
package guard

import (
	"context"

	"github.com/macabreb0b/interpunctbot/engine"
)

// Guard hands out scoped markers. Acquire returns ok=false when the same
// (game, user) pair already holds one; release must be called on every exit
// path when ok is true.
type Guard interface {
	Acquire(ctx context.Context, gameID engine.GameID, userID engine.UserID) (release func(), ok bool, err error)
}
