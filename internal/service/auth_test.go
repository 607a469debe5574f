package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"popup-rooms/internal/domain"
	"popup-rooms/internal/repository"
	"popup-rooms/internal/repository/mocks"
	"popup-rooms/internal/service"
)

func TestAuthService_Register_Success(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	authService, err := service.NewAuthService(mockUserRepo, "very-secret-key", 1)
	require.NoError(t, err)

	ctx := context.Background()
	username := "newbie"
	password := "StrongPass123"
	email := "newbie@example.com"

	// The service wipes user.Password after Save returns, so the hash must be
	// captured inside Run; a matcher would see the mutated struct again when
	// expectations are asserted.
	var savedHash string
	mockUserRepo.On("Save", ctx, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) {
			userArg := args.Get(1).(*domain.User)
			assert.Equal(t, username, userArg.Username)
			assert.Equal(t, email, userArg.Email)
			savedHash = userArg.Password
			userArg.ID = 5
			userArg.CreatedAt = time.Now().Add(-time.Second)
		}).
		Return(nil).
		Once()

	registeredUser, err := authService.Register(ctx, username, password, email)

	require.NoError(t, err)
	require.NotNil(t, registeredUser)
	assert.Equal(t, uint(5), registeredUser.ID)
	assert.Equal(t, username, registeredUser.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(savedHash), []byte(password)))
	assert.Empty(t, registeredUser.Password, "password must not leak out of the service")

	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Register_DuplicateEntry(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "secret", 1)
	ctx := context.Background()

	mockUserRepo.On("Save", ctx, mock.AnythingOfType("*domain.User")).
		Return(repository.ErrDuplicateEntry).
		Once()

	_, err := authService.Register(ctx, "existingUser", "password", "email@test.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrRegistrationFailed))
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Register_MissingFields(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "secret", 1)

	_, err := authService.Register(context.Background(), "", "password", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrValidation))
	mockUserRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_Login_Success(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	secret := "very-secret-key"
	authService, _ := service.NewAuthService(mockUserRepo, secret, 1)
	ctx := context.Background()

	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := &domain.User{ID: 9, Username: "alice", Password: string(hashed)}
	mockUserRepo.On("FindByUsername", ctx, "alice").Return(user, nil).Once()

	tokenStr, err := authService.Login(ctx, "alice", "correct-password")
	require.NoError(t, err)
	require.NotEmpty(t, tokenStr)

	// The token must carry the user id and be signed with the service secret.
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, float64(9), claims["user_id"])

	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "secret", 1)
	ctx := context.Background()

	hashed, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.DefaultCost)
	user := &domain.User{ID: 9, Username: "alice", Password: string(hashed)}
	mockUserRepo.On("FindByUsername", ctx, "alice").Return(user, nil).Once()

	_, err := authService.Login(ctx, "alice", "wrong-password")
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrAuthenticationFailed))
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "secret", 1)
	ctx := context.Background()

	mockUserRepo.On("FindByUsername", ctx, "ghost").
		Return(nil, repository.ErrUserNotFound).
		Once()

	_, err := authService.Login(ctx, "ghost", "password")
	require.Error(t, err)
	// Unknown user and bad password are indistinguishable to the caller.
	assert.True(t, errors.Is(err, service.ErrAuthenticationFailed))
}

func TestNewAuthService_EmptySecret(t *testing.T) {
	_, err := service.NewAuthService(new(mocks.UserRepository), "", 1)
	assert.Error(t, err)
}
