// Package dto defines the JSON frames exchanged over the live channel and the
// events pushed to clients.
package dto

import (
	"encoding/json"
	"errors"
	"fmt"

	"popup-rooms/internal/domain"
)

// Inbound frame types.
const (
	FrameInit     = "init"
	FrameMessage  = "message"
	FrameReaction = "reaction"
)

// ErrMalformedFrame is returned for frames that are not valid JSON or carry
// an unknown/invalid tag. Malformed frames are never fatal to the connection.
var ErrMalformedFrame = errors.New("malformed frame")

// Frame is the tagged union of client-to-server messages. Which fields are
// meaningful depends on Type; ParseFrame validates that at the boundary.
type Frame struct {
	Type         string `json:"type"`
	UserID       uint   `json:"userId,omitempty"`
	RoomID       uint   `json:"roomId,omitempty"`
	Content      string `json:"content,omitempty"`
	ReactionType string `json:"reactionType,omitempty"`
}

// ParseFrame decodes and validates a raw inbound frame. Unknown or malformed
// tags yield ErrMalformedFrame (wrapped with detail), never a silent drop.
func ParseFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedFrame)
	}
	switch f.Type {
	case FrameInit:
		if f.UserID == 0 {
			return nil, fmt.Errorf("%w: init requires userId", ErrMalformedFrame)
		}
	case FrameMessage:
		if f.Content == "" {
			return nil, fmt.Errorf("%w: message requires content", ErrMalformedFrame)
		}
		if len(f.Content) > domain.MaxMessageLength {
			return nil, fmt.Errorf("%w: content exceeds %d bytes", ErrMalformedFrame, domain.MaxMessageLength)
		}
	case FrameReaction:
		if !domain.IsReactionType(f.ReactionType) {
			return nil, fmt.Errorf("%w: unknown reaction type %q", ErrMalformedFrame, f.ReactionType)
		}
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformedFrame, f.Type)
	}
	return &f, nil
}
