package service

// Тесты сервисных операций над read-model профилей
// (internal/service/profiles.go).

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rently-app/discussions-service/internal/models"
	"github.com/rently-app/discussions-service/internal/storage"
)

func TestService_ProfileByID_OK_ResolvesAvatar(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	userID := uuid.New()

	m.profiles.EXPECT().
		ProfileByID(gomock.Any(), userID).
		Return(&models.Profile{UserID: userID, Username: "alice", AvatarKey: "a/alice.png"}, nil)
	m.avatars.EXPECT().
		AvatarURL(gomock.Any(), "a/alice.png").
		Return("https://cdn.example.com/a/alice.png", nil)

	profile, err := s.ProfileByID(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/a/alice.png", profile.AvatarURL)
}

// Пустой ключ аватара — URL не запрашивается.
func TestService_ProfileByID_NoAvatarKey(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	userID := uuid.New()

	m.profiles.EXPECT().
		ProfileByID(gomock.Any(), userID).
		Return(&models.Profile{UserID: userID, Username: "bob"}, nil)

	profile, err := s.ProfileByID(context.Background(), userID)
	require.NoError(t, err)
	require.Empty(t, profile.AvatarURL)
}

// Недоступность MinIO не ломает выдачу профиля.
func TestService_ProfileByID_AvatarFailureIsNotFatal(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	userID := uuid.New()

	m.profiles.EXPECT().
		ProfileByID(gomock.Any(), userID).
		Return(&models.Profile{UserID: userID, Username: "carol", AvatarKey: "a/carol.png"}, nil)
	m.avatars.EXPECT().
		AvatarURL(gomock.Any(), "a/carol.png").
		Return("", errors.New("minio down"))

	profile, err := s.ProfileByID(context.Background(), userID)
	require.NoError(t, err)
	require.Empty(t, profile.AvatarURL)
}

func TestService_ProfileByID_NotFound(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	userID := uuid.New()

	m.profiles.EXPECT().
		ProfileByID(gomock.Any(), userID).
		Return(nil, storage.ErrNotFound)

	_, err := s.ProfileByID(context.Background(), userID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_SaveProfile_Validation(t *testing.T) {
	s, _, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	_, err := s.SaveProfile(context.Background(), SaveProfileInput{
		UserID: uuid.Nil, Username: "alice",
	})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.SaveProfile(context.Background(), SaveProfileInput{
		UserID: uuid.New(), Username: "   ",
	})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestService_SaveProfile_OK(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	userID := uuid.New()

	m.profiles.EXPECT().
		UpsertProfile(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p *models.Profile) (*models.Profile, error) {
			require.Equal(t, userID, p.UserID)
			require.Equal(t, "dave", p.Username)
			return p, nil
		})
	m.avatars.EXPECT().
		AvatarURL(gomock.Any(), "a/dave.png").
		Return("https://cdn.example.com/a/dave.png", nil)

	profile, err := s.SaveProfile(context.Background(), SaveProfileInput{
		UserID: userID, Username: " dave ", AvatarKey: "a/dave.png",
	})
	require.NoError(t, err)
	require.Equal(t, "dave", profile.Username)
	require.Equal(t, "https://cdn.example.com/a/dave.png", profile.AvatarURL)
}
