package engine

// Mode tags the variant of a game state. Transitions are one-directional
// except playing → playing.
type Mode string

const (
	ModeJoining  Mode = "joining"
	ModePlaying  Mode = "playing"
	ModeWon      Mode = "won"
	ModeCanceled Mode = "canceled"
)

// Shared action names. All well under the key length bound.
const (
	actJoin       = "join"
	actJoinAnyway = "join_anyway"
	actCancel     = "end"
	actGiveUp     = "give_up"
	actRules      = "rules"
)

// renderLobby renders the joining screen common to the two-player games.
func renderLobby(content string, k Key, withRules bool) Message {
	row := NewRow(
		Btn(k.Action(actJoin), "Join Game", StyleAccept),
		Btn(k.Action(actCancel), "Cancel", StyleDeny),
	)
	if withRules {
		row.Buttons = append(row.Buttons, Btn(k.Action(actRules), "Rules", StyleSecondary))
	}
	return Message{Content: content, Rows: []Row{row}}
}

// handleLobby runs the shared joining flow. start builds the playing state
// once an opponent is known; cancel builds the canceled state. The second
// return is false when the action is not a lobby action.
//
// The initiator pressing Join does not start a self-game outright: they get
// a private "play against yourself" prompt whose button carries
// actJoinAnyway, and only that explicit confirmation pairs them with
// themselves.
func handleLobby(initiator UserID, action string, actor UserID, k Key,
	start func(opponent UserID) State, cancel func() State) (Outcome, bool) {
	switch action {
	case actJoin, actJoinAnyway:
		if action != actJoinAnyway && actor == initiator {
			return Handled("You are already in the game.", NewRow(
				Btn(k.Action(actJoinAnyway), "Play against yourself", StyleSecondary),
			)), true
		}
		return Advance(start(actor)), true
	case actCancel:
		if actor != initiator {
			return Reject("Only " + Mention(initiator) + " can cancel."), true
		}
		return Advance(cancel()), true
	default:
		return Outcome{}, false
	}
}

// unsupportedState is the visible fallback for a state variant Render does
// not recognize. Render must never fail, so corrupt variants surface here.
func unsupportedState(mode Mode) Message {
	return Message{Content: "Unsupported " + string(mode)}
}

// canceledMessage is the terminal render of a canceled game.
func canceledMessage() Message {
	return Message{Content: "Canceled game."}
}
