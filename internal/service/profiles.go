package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rently-app/discussions-service/pkg/log"

	"github.com/rently-app/discussions-service/internal/models"
	"github.com/rently-app/discussions-service/internal/storage"
)

// ProfileByID возвращает профиль автора; поле AvatarURL разрешается
// по ключу объекта (best-effort, пустая строка при недоступности).
//
// Поведение/ошибки:
//   - ErrInvalidArgument — нулевой user_id;
//   - ErrNotFound — профиль отсутствует в read-model;
//   - ErrInternal — прочие ошибки хранилища.
func (s *Service) ProfileByID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	const op = "service/profiles/ProfileByID"

	lg := log.From(ctx).With("op", op, "user_id", userID.String())

	if userID == uuid.Nil {
		lg.Warn("invalid argument: empty user_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	profile, err := s.profiles.ProfileByID(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("profile not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on ProfileByID", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	s.resolveAvatar(ctx, profile)

	return profile, nil
}

// SaveProfileInput — проекция профиля из канонического users-сервиса.
type SaveProfileInput struct {
	UserID    uuid.UUID
	Username  string
	AvatarKey string
}

// SaveProfile создаёт/обновляет локальную проекцию профиля.
func (s *Service) SaveProfile(ctx context.Context, in SaveProfileInput) (*models.Profile, error) {
	const op = "service/profiles/SaveProfile"

	lg := log.From(ctx).With("op", op, "user_id", in.UserID.String())

	in.Username = strings.TrimSpace(in.Username)
	in.AvatarKey = strings.TrimSpace(in.AvatarKey)

	if in.UserID == uuid.Nil || in.Username == "" {
		lg.Warn("invalid argument", "username_empty", in.Username == "")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	profile, err := s.profiles.UpsertProfile(ctx, &models.Profile{
		UserID:    in.UserID,
		Username:  in.Username,
		AvatarKey: in.AvatarKey,
	})
	if err != nil {
		lg.Error("storage error on UpsertProfile", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	s.resolveAvatar(ctx, profile)

	return profile, nil
}

// resolveAvatar заполняет AvatarURL по ключу объекта. Недоступность
// бакета или отсутствие объекта оставляют поле пустым.
func (s *Service) resolveAvatar(ctx context.Context, profile *models.Profile) {
	if profile == nil || profile.AvatarKey == "" {
		return
	}

	url, err := s.avatars.AvatarURL(ctx, profile.AvatarKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.From(ctx).Warn("avatar url resolution failed",
			"user_id", profile.UserID.String(),
			"err", err,
		)
		return
	}

	profile.AvatarURL = url
}
