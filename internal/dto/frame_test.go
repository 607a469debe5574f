package dto_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"popup-rooms/internal/dto"
)

func TestParseFrame_Init(t *testing.T) {
	frame, err := dto.ParseFrame([]byte(`{"type":"init","userId":3,"roomId":12}`))
	require.NoError(t, err)
	assert.Equal(t, dto.FrameInit, frame.Type)
	assert.Equal(t, uint(3), frame.UserID)
	assert.Equal(t, uint(12), frame.RoomID)
}

func TestParseFrame_InitGlobalChannel(t *testing.T) {
	// roomId 0 (or absent) binds the global channel; only userId is required.
	frame, err := dto.ParseFrame([]byte(`{"type":"init","userId":3}`))
	require.NoError(t, err)
	assert.Equal(t, uint(0), frame.RoomID)
}

func TestParseFrame_Message(t *testing.T) {
	frame, err := dto.ParseFrame([]byte(`{"type":"message","content":"hello there"}`))
	require.NoError(t, err)
	assert.Equal(t, "hello there", frame.Content)
}

func TestParseFrame_Reaction(t *testing.T) {
	frame, err := dto.ParseFrame([]byte(`{"type":"reaction","reactionType":"👍"}`))
	require.NoError(t, err)
	assert.Equal(t, "👍", frame.ReactionType)
}

func TestParseFrame_Malformed(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{"invalid json", `{"type":`},
		{"missing type", `{"userId":3}`},
		{"unknown type", `{"type":"subscribe"}`},
		{"init without userId", `{"type":"init","roomId":12}`},
		{"message without content", `{"type":"message"}`},
		{"message too long", `{"type":"message","content":"` + strings.Repeat("a", 2001) + `"}`},
		{"reaction with unknown type", `{"type":"reaction","reactionType":"🦄"}`},
		{"reaction without type", `{"type":"reaction"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := dto.ParseFrame([]byte(tc.raw))
			assert.ErrorIs(t, err, dto.ErrMalformedFrame)
		})
	}
}

func TestEventKey_DurableIDWins(t *testing.T) {
	at := time.Now()
	key := dto.EventKey(91, 3, "hello", at)
	assert.Equal(t, "id:91", key)

	// The durable form ignores the composite inputs entirely.
	assert.Equal(t, key, dto.EventKey(91, 99, "different", at.Add(time.Hour)))
}

func TestEventKey_PendingComposite(t *testing.T) {
	at := time.Date(2025, 6, 1, 18, 30, 15, 0, time.UTC)
	key := dto.EventKey(0, 3, "hello", at)
	assert.Equal(t, "pending:3:hello:1748802615", key)
}

func TestEventKey_PendingRoundsToSecond(t *testing.T) {
	at := time.Date(2025, 6, 1, 18, 30, 15, 0, time.UTC)
	// Sub-second differences collapse to the same key.
	assert.Equal(t,
		dto.EventKey(0, 3, "hello", at.Add(200*time.Millisecond)),
		dto.EventKey(0, 3, "hello", at.Add(900*time.Millisecond)),
	)
	// A full second apart is a distinct key.
	assert.NotEqual(t,
		dto.EventKey(0, 3, "hello", at),
		dto.EventKey(0, 3, "hello", at.Add(time.Second)),
	)
}

func TestEventKey_PendingTruncatesContent(t *testing.T) {
	at := time.Now()
	long := strings.Repeat("x", 80)
	// Content beyond the prefix does not change the key.
	assert.Equal(t,
		dto.EventKey(0, 3, long, at),
		dto.EventKey(0, 3, long+"tail", at),
	)
	// Content differing within the prefix does.
	assert.NotEqual(t,
		dto.EventKey(0, 3, "a"+long, at),
		dto.EventKey(0, 3, "b"+long, at),
	)
}
