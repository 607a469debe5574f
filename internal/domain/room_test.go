package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"popup-rooms/internal/domain"
)

func TestRoom_StatusAt(t *testing.T) {
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	room := &domain.Room{StartTime: start, EndTime: end}

	testCases := []struct {
		name string
		now  time.Time
		want domain.RoomStatus
	}{
		{"well before start", start.Add(-24 * time.Hour), domain.RoomScheduled},
		{"instant before start", start.Add(-time.Nanosecond), domain.RoomScheduled},
		{"exactly at start", start, domain.RoomLive},
		{"mid window", start.Add(time.Hour), domain.RoomLive},
		{"instant before end", end.Add(-time.Nanosecond), domain.RoomLive},
		{"exactly at end", end, domain.RoomClosed},
		{"long after end", end.Add(48 * time.Hour), domain.RoomClosed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, room.StatusAt(tc.now))
		})
	}
}

func TestRoom_StatusAt_SkipsLiveWhenWindowElapsed(t *testing.T) {
	// A room whose entire window passed while it sat scheduled goes straight
	// to closed.
	room := &domain.Room{
		StartTime: time.Now().Add(-2 * time.Hour),
		EndTime:   time.Now().Add(-1 * time.Hour),
		Status:    domain.RoomScheduled,
	}
	assert.Equal(t, domain.RoomClosed, room.StatusAt(time.Now()))
}

func TestRoom_IsLive(t *testing.T) {
	assert.True(t, (&domain.Room{Status: domain.RoomLive}).IsLive())
	assert.False(t, (&domain.Room{Status: domain.RoomScheduled}).IsLive())
	assert.False(t, (&domain.Room{Status: domain.RoomClosed}).IsLive())
}

func TestRoomInvitation_Validate(t *testing.T) {
	userID := uint(7)
	email := "guest@example.com"
	emptyEmail := ""
	zeroUser := uint(0)

	testCases := []struct {
		name    string
		inv     *domain.RoomInvitation
		wantErr bool
	}{
		{"user only", domain.NewUserInvitation(1, userID), false},
		{"email only", domain.NewEmailInvitation(1, email), false},
		{"both set", &domain.RoomInvitation{RoomID: 1, UserID: &userID, Email: &email}, true},
		{"neither set", &domain.RoomInvitation{RoomID: 1}, true},
		{"zero user counts as unset", &domain.RoomInvitation{RoomID: 1, UserID: &zeroUser}, true},
		{"empty email counts as unset", &domain.RoomInvitation{RoomID: 1, Email: &emptyEmail}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.inv.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInvitation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRoomInvitation_IsForUser(t *testing.T) {
	inv := domain.NewUserInvitation(1, 42)
	assert.True(t, inv.IsForUser(42))
	assert.False(t, inv.IsForUser(43))

	emailInv := domain.NewEmailInvitation(1, "guest@example.com")
	assert.False(t, emailInv.IsForUser(42))
}
