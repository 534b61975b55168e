// storage содержит контракты слоя хранилищ discussions-сервиса.
//
// comments.go/notifications.go (mongo) — плоские коллекции комментариев и
// уведомлений; дерево обсуждения НЕ персистится и восстанавливается сервисом.
// profiles.go (postgres) — read-model профилей авторов.
// avatars.go (minio) — публичные URL аватаров для снапшотов профилей.
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rently-app/discussions-service/internal/models"
)

var (
	// ErrNotFound — сущность отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCursor — битый/чужой page_token.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrParentNotFound — указан thread_id/reply_to_id, но целевой комментарий не найден.
	ErrParentNotFound = errors.New("parent not found")
	// ErrNotTopLevel — операция допустима только для корневого комментария
	// (создание ответа в ветке, закрепление).
	ErrNotTopLevel = errors.New("not a top-level comment")
)

// CommentUpdate — частичный апдейт комментария.
// Обновляются только непустые указатели; updated_at сдвигается всегда.
type CommentUpdate struct {
	Content *string
	Pinned  *bool
}

// Comments — контракт плоского хранилища комментариев.
type Comments interface {
	// CreateComment создаёт корневой комментарий или ответ.
	// Для ответа (ThreadID != "") проверяет, что корень существует и
	// действительно является корнем: ErrParentNotFound / ErrNotTopLevel.
	// ID/CreatedAt/UpdatedAt назначаются хранилищем.
	CreateComment(ctx context.Context, comment models.Comment) (*models.Comment, error)

	// CommentByID возвращает комментарий по строковому идентификатору.
	// Некорректный формат id трактуется как ErrNotFound.
	CommentByID(ctx context.Context, id string) (*models.Comment, error)

	// ListByProperty возвращает ВСЕ комментарии объявления (любая глубина).
	// Порядок не гарантируется — сортирует сборщик дерева.
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]models.Comment, error)

	// UpdateComment применяет частичный апдейт (контент и/или pin-флаг).
	// Закрепление ответа — ErrNotTopLevel. Отсутствие записи — ErrNotFound.
	UpdateComment(ctx context.Context, id string, update CommentUpdate) (*models.Comment, error)

	// DeleteComment удаляет одну запись. Удаление корня НЕ каскадирует
	// на ответы — это контракт данных, а не упущение.
	DeleteComment(ctx context.Context, id string) error

	// DeleteAllByProperty удаляет все комментарии объявления (teardown).
	// Возвращает число удалённых записей.
	DeleteAllByProperty(ctx context.Context, propertyID uuid.UUID) (int64, error)
}

// NotificationFilter — параметры выборки уведомлений.
type NotificationFilter struct {
	UnreadOnly bool
	Page       models.ListParams
}

// Notifications — контракт хранилища уведомлений.
type Notifications interface {
	// CreateNotification создаёт запись. ID/CreatedAt/UpdatedAt назначаются хранилищем.
	CreateNotification(ctx context.Context, n models.Notification) (*models.Notification, error)

	// ListByUser возвращает страницу уведомлений получателя, новые первыми.
	// При некорректном page_token — ErrInvalidCursor.
	ListByUser(ctx context.Context, userID uuid.UUID, f NotificationFilter) (*models.NotificationPage, error)

	// ListUnread возвращает все непрочитанные уведомления получателя без пагинации
	// (используется mark-all-as-read, переходы выполняются поштучно).
	ListUnread(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)

	// MarkRead выставляет is_read=true и возвращает обновлённую запись.
	// Повторный вызов по уже прочитанному — no-op успех.
	// Отсутствие записи — ErrNotFound.
	MarkRead(ctx context.Context, id string) (*models.Notification, error)

	// CountUnread возвращает число непрочитанных уведомлений получателя.
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)

	// DeleteNotification удаляет и возвращает запись. Отсутствие — ErrNotFound.
	DeleteNotification(ctx context.Context, id string) (*models.Notification, error)

	// DeleteAllByProperty удаляет уведомления объявления (teardown).
	DeleteAllByProperty(ctx context.Context, propertyID uuid.UUID) (int64, error)
}

// Profiles — контракт read-model профилей.
type Profiles interface {
	// ProfileByID возвращает профиль по user_id; отсутствие — ErrNotFound.
	ProfileByID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)

	// UpsertProfile создаёт/обновляет проекцию профиля
	// (канонические данные живут в users-сервисе).
	UpsertProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error)
}

// Avatars — публичные URL аватаров поверх S3/MinIO.
type Avatars interface {
	// AvatarURL возвращает публичный URL для ключа объекта.
	// Пустой ключ или непубликуемый бакет — пустая строка без ошибки.
	AvatarURL(ctx context.Context, key string) (string, error)
}
