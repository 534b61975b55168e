// service содержит бизнес-логику discussions-сервиса: CRUD комментариев,
// сборку дерева обсуждения, диспетчеризацию уведомлений и учёт непрочитанного.
package service

import (
	"errors"

	"github.com/rently-app/discussions-service/internal/cache"
	"github.com/rently-app/discussions-service/internal/config"
	"github.com/rently-app/discussions-service/internal/storage"
)

var (
	// ErrNotFound — сущность отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCursor — битый/чужой page_token.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrParentNotFound — комментарий, на который дан ответ, не найден.
	ErrParentNotFound = errors.New("parent not found")
	// ErrNotTopLevel — операция допустима только для корневого комментария.
	ErrNotTopLevel = errors.New("not a top-level comment")
	// ErrInvalidArgument — неверные входные параметры запроса к сервису.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInternal — внутренняя ошибка (сторадж/БД/контекст/и т.д.).
	ErrInternal = errors.New("internal")
)

// SideEffect — исход best-effort побочного эффекта (уведомления) при
// успешной первичной операции. Позволяет явно ассертить асимметрию
// «комментарий создан, уведомление — как получится» вместо скрытого
// проглатывания ошибок.
type SideEffect int

const (
	// SideEffectNone — уведомление не требовалось (самоуведомление подавлено).
	SideEffectNone SideEffect = iota
	// SideEffectDelivered — уведомление записано.
	SideEffectDelivered
	// SideEffectFailed — первичная операция успешна, уведомление не записано
	// (ошибка залогирована и проглочена; ретраев нет).
	SideEffectFailed
)

func (e SideEffect) String() string {
	switch e {
	case SideEffectDelivered:
		return "delivered"
	case SideEffectFailed:
		return "failed"
	default:
		return "none"
	}
}

// Service — бизнес-логика discussions-service.
// Все зависимости внедряются явно композиционным корнем (cmd/),
// глобальных клиентов нет.
type Service struct {
	comments      storage.Comments
	notifications storage.Notifications
	profiles      storage.Profiles
	avatars       storage.Avatars
	unread        cache.UnreadCache
	cfg           config.Config
}

// New создает новый экземпляр Service.
func New(
	comments storage.Comments,
	notifications storage.Notifications,
	profiles storage.Profiles,
	avatars storage.Avatars,
	unread cache.UnreadCache,
	cfg config.Config,
) *Service {
	return &Service{
		comments:      comments,
		notifications: notifications,
		profiles:      profiles,
		avatars:       avatars,
		unread:        unread,
		cfg:           cfg,
	}
}
