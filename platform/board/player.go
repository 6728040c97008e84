package board

import "fmt"

// Player is one participant of a simulated game.
type Player struct {
	Name     string
	Cash     int
	Position int

	// CanMove is cleared when the player is sent to jail and restored by
	// the skipped turn.
	CanMove bool
}

func NewPlayer(name string, cash int) (*Player, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: player name is required", ErrIllegalAction)
	}
	return &Player{Name: name, Cash: cash, CanMove: true}, nil
}
