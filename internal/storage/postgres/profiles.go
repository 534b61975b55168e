package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rently-app/discussions-service/internal/models"
	"github.com/rently-app/discussions-service/internal/storage"
)

// profileColumns — единый список колонок таблицы profiles,
// используемый в SELECT/RETURNING, чтобы гарантировать одинаковый порядок сканирования.
const profileColumns = `
user_id, username, avatar_key, created_at, updated_at
`

// scanProfile сканирует одну строку профиля из результата запроса в доменную модель.
// AvatarURL не хранится — вычисляется слоем аватаров при отдаче.
func scanProfile(row pgx.Row) (*models.Profile, error) {
	var profile models.Profile

	if err := row.Scan(
		&profile.UserID,
		&profile.Username,
		&profile.AvatarKey,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &profile, nil
}

// ProfileByID возвращает профиль по user_id.
// Ошибки: storage.ErrNotFound, либо ошибка выполнения запроса.
func (s *ProfilesStorage) ProfileByID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	const op = "storage/postgres/profiles/ProfileByID"

	q := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`

	row := s.db.QueryRow(ctx, q, userID)

	result, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

// UpsertProfile создаёт или обновляет проекцию профиля.
// Конфликты по user_id разрешаются перезаписью (последняя проекция выигрывает),
// updated_at всегда сдвигается.
func (s *ProfilesStorage) UpsertProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	const op = "storage/postgres/profiles/UpsertProfile"

	q := `
	INSERT INTO profiles (user_id, username, avatar_key)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id) DO UPDATE
	SET username = EXCLUDED.username,
	    avatar_key = EXCLUDED.avatar_key,
	    updated_at = now()
	RETURNING
	` + profileColumns

	row := s.db.QueryRow(ctx, q,
		profile.UserID,
		profile.Username,
		profile.AvatarKey,
	)

	result, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}
