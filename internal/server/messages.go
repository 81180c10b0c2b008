package server

import (
	"fmt"
	"time"

	"github.com/litescript/ls-awaydays/internal/timeline"
)

// MessageType identifies a server-to-client message.
type MessageType string

const (
	MessageTypeInfo        MessageType = "info"
	MessageTypeRow         MessageType = "row"
	MessageTypeRowsCleared MessageType = "rows_cleared"
	MessageTypeStat        MessageType = "stat"
	MessageTypeArc         MessageType = "arc"
	MessageTypeFrame       MessageType = "frame"
	MessageTypeState       MessageType = "state"
	MessageTypeError       MessageType = "error"

	// MessageTypeControl is the only client-to-server message.
	MessageTypeControl = "control"
)

// Message is sent to WebSocket clients.
type Message struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ClientMessage is received from WebSocket clients.
type ClientMessage struct {
	Type   string `json:"type"`
	Action Action `json:"action"`
}

// Action is one of the playback controls.
type Action string

const (
	ActionRestart     Action = "restart"
	ActionStepBack    Action = "step_back"
	ActionTogglePause Action = "toggle_pause"
	ActionStepForward Action = "step_forward"
	ActionJumpEnd     Action = "jump_end"
	ActionJumpStart   Action = "jump_start"
)

// Valid reports whether a is a known control.
func (a Action) Valid() bool {
	switch a {
	case ActionRestart, ActionStepBack, ActionTogglePause,
		ActionStepForward, ActionJumpEnd, ActionJumpStart:
		return true
	}
	return false
}

// ErrorPayload describes a failure.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatePayload is the playback position and control availability.
type StatePayload struct {
	State          timeline.State `json:"state"`
	Cursor         int            `json:"cursor"`
	Total          int            `json:"total"`
	Paused         bool           `json:"paused"`
	CanStepBack    bool           `json:"can_step_back"`
	CanStepForward bool           `json:"can_step_forward"`
}

func statePayload(s timeline.Snapshot) StatePayload {
	return StatePayload{
		State:          s.State,
		Cursor:         s.Cursor,
		Total:          s.Total,
		Paused:         s.Paused,
		CanStepBack:    s.CanStepBack,
		CanStepForward: s.CanStepForward,
	}
}

// apply runs a control against the controller.
func apply(c *timeline.Controller, a Action, now time.Time) error {
	switch a {
	case ActionRestart:
		c.Restart(now)
	case ActionStepBack:
		c.StepBackward()
	case ActionTogglePause:
		c.TogglePause(now)
	case ActionStepForward:
		c.StepForward()
	case ActionJumpEnd:
		c.JumpToEnd()
	case ActionJumpStart:
		c.JumpToStart()
	default:
		return fmt.Errorf("unknown action %q", a)
	}
	return nil
}
