// Package mocks provides testify mocks for the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"popup-rooms/internal/domain"
)

// UserRepository mocks repository.UserRepository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *UserRepository) Save(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// RoomRepository mocks repository.RoomRepository.
type RoomRepository struct {
	mock.Mock
}

func (m *RoomRepository) FindByID(ctx context.Context, id uint) (*domain.Room, error) {
	args := m.Called(ctx, id)
	room, _ := args.Get(0).(*domain.Room)
	return room, args.Error(1)
}

func (m *RoomRepository) Save(ctx context.Context, room *domain.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *RoomRepository) UpdateStatus(ctx context.Context, id uint, status domain.RoomStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *RoomRepository) FindByCreator(ctx context.Context, userID uint) ([]domain.Room, error) {
	args := m.Called(ctx, userID)
	rooms, _ := args.Get(0).([]domain.Room)
	return rooms, args.Error(1)
}

func (m *RoomRepository) FindByParticipant(ctx context.Context, userID uint) ([]domain.Room, error) {
	args := m.Called(ctx, userID)
	rooms, _ := args.Get(0).([]domain.Room)
	return rooms, args.Error(1)
}

func (m *RoomRepository) FindByInvitation(ctx context.Context, userID uint) ([]domain.Room, error) {
	args := m.Called(ctx, userID)
	rooms, _ := args.Get(0).([]domain.Room)
	return rooms, args.Error(1)
}

func (m *RoomRepository) FindPublic(ctx context.Context) ([]domain.Room, error) {
	args := m.Called(ctx)
	rooms, _ := args.Get(0).([]domain.Room)
	return rooms, args.Error(1)
}

func (m *RoomRepository) SweepDue(ctx context.Context, now time.Time) ([]domain.Room, []domain.Room, error) {
	args := m.Called(ctx, now)
	goingLive, _ := args.Get(0).([]domain.Room)
	goingClosed, _ := args.Get(1).([]domain.Room)
	return goingLive, goingClosed, args.Error(2)
}

func (m *RoomRepository) AddParticipant(ctx context.Context, roomID, userID uint) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}

func (m *RoomRepository) IsParticipant(ctx context.Context, roomID, userID uint) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *RoomRepository) CountParticipants(ctx context.Context, roomID uint) (int64, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RoomRepository) ListParticipants(ctx context.Context, roomID uint) ([]domain.User, error) {
	args := m.Called(ctx, roomID)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Error(1)
}

// InvitationRepository mocks repository.InvitationRepository.
type InvitationRepository struct {
	mock.Mock
}

func (m *InvitationRepository) Create(ctx context.Context, inv *domain.RoomInvitation) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *InvitationRepository) FindByID(ctx context.Context, id uint) (*domain.RoomInvitation, error) {
	args := m.Called(ctx, id)
	inv, _ := args.Get(0).(*domain.RoomInvitation)
	return inv, args.Error(1)
}

func (m *InvitationRepository) FindForUser(ctx context.Context, roomID, userID uint) (*domain.RoomInvitation, error) {
	args := m.Called(ctx, roomID, userID)
	inv, _ := args.Get(0).(*domain.RoomInvitation)
	return inv, args.Error(1)
}

func (m *InvitationRepository) Accept(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MessageRepository mocks repository.MessageRepository.
type MessageRepository struct {
	mock.Mock
}

func (m *MessageRepository) CreateMessage(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MessageRepository) ListByRoom(ctx context.Context, roomID uint) ([]domain.Message, error) {
	args := m.Called(ctx, roomID)
	msgs, _ := args.Get(0).([]domain.Message)
	return msgs, args.Error(1)
}

func (m *MessageRepository) CreateReaction(ctx context.Context, reaction *domain.Reaction) error {
	args := m.Called(ctx, reaction)
	return args.Error(0)
}

func (m *MessageRepository) ListReactionsByRoom(ctx context.Context, roomID uint) ([]domain.Reaction, error) {
	args := m.Called(ctx, roomID)
	reactions, _ := args.Get(0).([]domain.Reaction)
	return reactions, args.Error(1)
}

// StateRepository mocks repository.StateRepository.
type StateRepository struct {
	mock.Mock
}

func (m *StateRepository) SetRoomStatus(ctx context.Context, roomID uint, status domain.RoomStatus) error {
	args := m.Called(ctx, roomID, status)
	return args.Error(0)
}

func (m *StateRepository) GetRoomStatus(ctx context.Context, roomID uint) (domain.RoomStatus, error) {
	args := m.Called(ctx, roomID)
	status, _ := args.Get(0).(domain.RoomStatus)
	return status, args.Error(1)
}

func (m *StateRepository) IncrPresence(ctx context.Context, roomID uint) (int64, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *StateRepository) DecrPresence(ctx context.Context, roomID uint) (int64, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *StateRepository) Presence(ctx context.Context, roomID uint) (int64, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(int64), args.Error(1)
}
