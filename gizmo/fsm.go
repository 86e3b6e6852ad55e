package gizmo

import (
	"fmt"

	"github.com/pkg/errors"
)

// State is the lifecycle state of a target's gizmo.
type State int

// The gizmo states. At most one target is BoundSelected at a time.
const (
	Unbound State = iota
	BoundHidden
	BoundSelected
)

func (s State) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case BoundHidden:
		return "bound_hidden"
	case BoundSelected:
		return "bound_selected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type event int

const (
	evBind event = iota
	evSelect
	evDeselect
	evUnbind
)

func (e event) String() string {
	return [...]string{"bind", "select", "deselect", "unbind"}[e]
}

var transitions = map[State]map[event]State{
	Unbound: {
		evBind: BoundHidden,
	},
	BoundHidden: {
		evSelect:   BoundSelected,
		evDeselect: BoundHidden,
		evUnbind:   Unbound,
	},
	BoundSelected: {
		evSelect:   BoundSelected,
		evDeselect: BoundHidden,
		evUnbind:   Unbound,
	},
}

func next(from State, ev event) (State, error) {
	to, ok := transitions[from][ev]
	if !ok {
		return from, errors.Errorf("invalid gizmo transition %s from %s", ev, from)
	}
	return to, nil
}
