package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile — read-model профиля пользователя (Postgres).
// Сервис не владеет профилями: записи проецируются сюда users-сервисом
// маркетплейса и используются как снапшоты авторов при сборке дерева.
// AvatarKey — ключ объекта в S3/MinIO; AvatarURL — публичный URL,
// вычисляется при отдаче (может быть пустым, если бакет не публикуется).
type Profile struct {
	UserID    uuid.UUID
	Username  string
	AvatarKey string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}
