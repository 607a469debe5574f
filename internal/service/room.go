package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"popup-rooms/internal/domain"
	"popup-rooms/internal/repository"
)

// RoomService handles room creation, listing, joining and invitations.
type RoomService struct {
	roomRepo  repository.RoomRepository
	invRepo   repository.InvitationRepository
	userRepo  repository.UserRepository
	msgRepo   repository.MessageRepository
	lifecycle *LifecycleService
}

// NewRoomService creates a RoomService.
func NewRoomService(
	roomRepo repository.RoomRepository,
	invRepo repository.InvitationRepository,
	userRepo repository.UserRepository,
	msgRepo repository.MessageRepository,
	lifecycle *LifecycleService,
) *RoomService {
	if roomRepo == nil || invRepo == nil || userRepo == nil || msgRepo == nil || lifecycle == nil {
		panic("all dependencies must be non-nil for RoomService")
	}
	return &RoomService{
		roomRepo:  roomRepo,
		invRepo:   invRepo,
		userRepo:  userRepo,
		msgRepo:   msgRepo,
		lifecycle: lifecycle,
	}
}

// InvitationInput names an invitee by username or email, exactly one of the
// two.
type InvitationInput struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// CreateRoomInput is the validated payload for room creation.
type CreateRoomInput struct {
	Title           string
	Description     string
	Type            domain.RoomType
	Tag             string
	StartTime       time.Time
	EndTime         time.Time
	MaxParticipants int
	Invitations     []InvitationInput
}

func (in *CreateRoomInput) validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "title is required"
	}
	if in.Type != domain.RoomPublic && in.Type != domain.RoomPrivate {
		fields["type"] = "type must be public or private"
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() {
		fields["startTime"] = "startTime and endTime are required"
	} else if !in.EndTime.After(in.StartTime) {
		fields["endTime"] = "endTime must be after startTime"
	}
	if in.MaxParticipants != 0 && in.MaxParticipants < 2 {
		fields["maxParticipants"] = "maxParticipants must be at least 2"
	}
	for _, inv := range in.Invitations {
		if (inv.Username == "") == (inv.Email == "") {
			fields["invitations"] = "each invitation needs exactly one of username or email"
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// CreateRoom persists a new room with its initial status computed from the
// current time, auto-adds the creator as a participant, and creates any
// requested invitations. It returns the created invitations so the caller
// can push them to connected invitees.
func (s *RoomService) CreateRoom(ctx context.Context, creatorID uint, in CreateRoomInput) (*domain.Room, []domain.RoomInvitation, error) {
	logCtx := logrus.WithField("creator_id", creatorID)

	if err := in.validate(); err != nil {
		return nil, nil, err
	}

	room := &domain.Room{
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		Type:            in.Type,
		Tag:             in.Tag,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		MaxParticipants: in.MaxParticipants,
		CreatorID:       creatorID,
	}
	room.Status = room.StatusAt(time.Now())

	if err := s.roomRepo.Save(ctx, room); err != nil {
		logCtx.WithError(err).Error("Failed to save new room")
		return nil, nil, ErrInternalServer
	}
	logCtx = logCtx.WithField("room_id", room.ID)

	if err := s.roomRepo.AddParticipant(ctx, room.ID, creatorID); err != nil &&
		!errors.Is(err, repository.ErrDuplicateEntry) {
		logCtx.WithError(err).Error("Failed to add creator as participant")
		return nil, nil, ErrInternalServer
	}

	invitations := make([]domain.RoomInvitation, 0, len(in.Invitations))
	for _, invIn := range in.Invitations {
		inv, err := s.resolveInvitation(ctx, room.ID, invIn)
		if err != nil {
			logCtx.WithError(err).WithFields(logrus.Fields{
				"username": invIn.Username,
				"email":    invIn.Email,
			}).Warn("Skipping invitation that could not be created")
			continue
		}
		if err := s.invRepo.Create(ctx, inv); err != nil {
			if errors.Is(err, repository.ErrDuplicateEntry) {
				continue
			}
			logCtx.WithError(err).Warn("Failed to create invitation")
			continue
		}
		invitations = append(invitations, *inv)
	}

	logCtx.WithField("status", room.Status).Info("Room created")
	return room, invitations, nil
}

// resolveInvitation turns an invitation input into a concrete invitation,
// binding it to a user account when one matches the username or email.
func (s *RoomService) resolveInvitation(ctx context.Context, roomID uint, in InvitationInput) (*domain.RoomInvitation, error) {
	if in.Username != "" {
		user, err := s.userRepo.FindByUsername(ctx, in.Username)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, ErrInternalServer
		}
		return domain.NewUserInvitation(roomID, user.ID), nil
	}
	if user, err := s.userRepo.FindByEmail(ctx, in.Email); err == nil {
		return domain.NewUserInvitation(roomID, user.ID), nil
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInternalServer
	}
	return domain.NewEmailInvitation(roomID, in.Email), nil
}

// RoomOverview groups rooms by the caller's relationship to them.
type RoomOverview struct {
	Created       []domain.Room `json:"created"`
	Participating []domain.Room `json:"participating"`
	Invited       []domain.Room `json:"invited"`
	Public        []domain.Room `json:"public"`
}

// Overview lists the caller's created, joined, invited and the public rooms.
func (s *RoomService) Overview(ctx context.Context, userID uint) (*RoomOverview, error) {
	created, err := s.roomRepo.FindByCreator(ctx, userID)
	if err != nil {
		return nil, ErrInternalServer
	}
	participating, err := s.roomRepo.FindByParticipant(ctx, userID)
	if err != nil {
		return nil, ErrInternalServer
	}
	invited, err := s.roomRepo.FindByInvitation(ctx, userID)
	if err != nil {
		return nil, ErrInternalServer
	}
	public, err := s.roomRepo.FindPublic(ctx)
	if err != nil {
		return nil, ErrInternalServer
	}
	return &RoomOverview{
		Created:       created,
		Participating: participating,
		Invited:       invited,
		Public:        public,
	}, nil
}

// RoomDetail is the full room view served by the fallback request path.
type RoomDetail struct {
	Room         *domain.Room      `json:"room"`
	Participants []domain.User     `json:"participants"`
	Messages     []domain.Message  `json:"messages"`
	Reactions    []domain.Reaction `json:"reactions"`
	UserAccess   UserAccess        `json:"userAccess"`
}

// Detail loads a room with its transcript, reconciling a stale status before
// returning. Returns ErrAccessDenied when the user may not view the room.
func (s *RoomService) Detail(ctx context.Context, roomID, userID uint) (*RoomDetail, error) {
	room, err := s.findRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if _, err := s.lifecycle.Reconcile(ctx, room); err != nil {
		return nil, err
	}

	isParticipant, err := s.roomRepo.IsParticipant(ctx, roomID, userID)
	if err != nil {
		return nil, ErrInternalServer
	}
	if !CanView(room, userID, isParticipant) {
		return nil, ErrAccessDenied
	}

	hasInvitation := false
	if inv, err := s.invRepo.FindForUser(ctx, roomID, userID); err == nil {
		hasInvitation = !inv.Accepted
	} else if !errors.Is(err, repository.ErrInvitationNotFound) {
		return nil, ErrInternalServer
	}

	count, err := s.roomRepo.CountParticipants(ctx, roomID)
	if err != nil {
		return nil, ErrInternalServer
	}
	participants, err := s.roomRepo.ListParticipants(ctx, roomID)
	if err != nil {
		return nil, ErrInternalServer
	}
	messages, err := s.msgRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, ErrInternalServer
	}
	reactions, err := s.msgRepo.ListReactionsByRoom(ctx, roomID)
	if err != nil {
		return nil, ErrInternalServer
	}

	return &RoomDetail{
		Room:         room,
		Participants: participants,
		Messages:     messages,
		Reactions:    reactions,
		UserAccess:   EvaluateAccess(room, userID, isParticipant, hasInvitation, count),
	}, nil
}

// Join makes the user a participant of a live room. Joining a room the user
// already belongs to is an idempotent success, reported via alreadyJoined.
// Private rooms require an invitation, which is marked accepted atomically
// with the participant insert.
func (s *RoomService) Join(ctx context.Context, roomID, userID uint) (alreadyJoined bool, err error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID})

	room, err := s.findRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	if _, err := s.lifecycle.Reconcile(ctx, room); err != nil {
		return false, err
	}

	isParticipant, err := s.roomRepo.IsParticipant(ctx, roomID, userID)
	if err != nil {
		return false, ErrInternalServer
	}
	if isParticipant {
		logCtx.Debug("Join is a no-op: already a participant")
		return true, nil
	}

	if !room.IsLive() {
		return false, ErrRoomNotLive
	}
	if room.MaxParticipants > 0 {
		count, err := s.roomRepo.CountParticipants(ctx, roomID)
		if err != nil {
			return false, ErrInternalServer
		}
		if count >= int64(room.MaxParticipants) {
			return false, ErrRoomFull
		}
	}

	if room.Type == domain.RoomPublic {
		if err := s.roomRepo.AddParticipant(ctx, roomID, userID); err != nil {
			if errors.Is(err, repository.ErrDuplicateEntry) {
				return true, nil // raced with another join, still a success
			}
			logCtx.WithError(err).Error("Failed to add participant")
			return false, ErrInternalServer
		}
		logCtx.Info("User joined public room")
		return false, nil
	}

	inv, err := s.invRepo.FindForUser(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrInvitationNotFound) {
			return false, ErrNotInvited
		}
		return false, ErrInternalServer
	}
	if err := s.invRepo.Accept(ctx, inv.ID); err != nil {
		logCtx.WithError(err).Error("Failed to accept invitation on join")
		return false, ErrInternalServer
	}
	logCtx.WithField("invitation_id", inv.ID).Info("User joined private room via invitation")
	return false, nil
}

// Invite creates an invitation on behalf of the room creator and returns it
// with the resolved target user, when any.
func (s *RoomService) Invite(ctx context.Context, roomID, callerID uint, in InvitationInput) (*domain.RoomInvitation, error) {
	if (in.Username == "") == (in.Email == "") {
		return nil, newValidationError("invitations", "exactly one of username or email is required")
	}

	room, err := s.findRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.CreatorID != callerID {
		return nil, ErrNotCreator
	}

	inv, err := s.resolveInvitation(ctx, roomID, in)
	if err != nil {
		return nil, err
	}
	if err := s.invRepo.Create(ctx, inv); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrDuplicateInvitation
		}
		return nil, ErrInternalServer
	}
	inv.Room = room
	return inv, nil
}

// AcceptInvitation accepts the caller's invitation by id and returns the room
// it grants access to.
func (s *RoomService) AcceptInvitation(ctx context.Context, invitationID, userID uint) (*domain.Room, error) {
	inv, err := s.invRepo.FindByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, repository.ErrInvitationNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, ErrInternalServer
	}
	if !inv.IsForUser(userID) {
		return nil, ErrNotInvited
	}
	if err := s.invRepo.Accept(ctx, inv.ID); err != nil {
		return nil, ErrInternalServer
	}
	if inv.Room != nil {
		return inv.Room, nil
	}
	return s.findRoom(ctx, inv.RoomID)
}

// CanAccess reports whether the user may bind a live-channel connection to
// the room: the room must exist and be viewable.
func (s *RoomService) CanAccess(ctx context.Context, roomID, userID uint) (bool, error) {
	room, err := s.findRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	isParticipant, err := s.roomRepo.IsParticipant(ctx, roomID, userID)
	if err != nil {
		return false, ErrInternalServer
	}
	return CanView(room, userID, isParticipant), nil
}

func (s *RoomService) findRoom(ctx context.Context, roomID uint) (*domain.Room, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, ErrInternalServer
	}
	return room, nil
}
