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

// preview возвращает первые n рун текста; при усечении добавляется "...".
// Текст ровно в n рун не трогается.
func preview(s string, n int32) string {
	runes := []rune(s)
	if int32(len(runes)) <= n {
		return s
	}

	return string(runes[:n]) + "..."
}

// dispatchCommentCreated — решение об уведомлении владельца объявления
// о новом корневом комментарии. Вызывается строго после успешной записи
// комментария; любая ошибка здесь логируется и проглатывается.
func (s *Service) dispatchCommentCreated(ctx context.Context, comm models.Comment, ownerID uuid.UUID, propertyTitle string) SideEffect {
	const op = "service/notifications/dispatchCommentCreated"

	lg := log.From(ctx).With("op", op, "comment_id", comm.ID)

	// Самоуведомления подавляются: владелец комментирует своё объявление.
	if ownerID == comm.AuthorID {
		return SideEffectNone
	}

	n := models.Notification{
		UserID:        ownerID,
		Type:          models.NotificationComment,
		Title:         fmt.Sprintf("New comment on %q", propertyTitle),
		Message:       comm.AuthorName + ": " + preview(comm.Content, s.cfg.Notifications.PreviewLen),
		PropertyID:    comm.PropertyID,
		CommentID:     comm.ID,
		CommenterID:   comm.AuthorID,
		CommenterName: comm.AuthorName,
	}

	if _, err := s.notifications.CreateNotification(ctx, n); err != nil {
		lg.Error("best-effort notification failed", "recipient", ownerID.String(), "err", err)
		return SideEffectFailed
	}

	s.invalidateUnread(ctx, ownerID)

	return SideEffectDelivered
}

// dispatchReplyCreated — решение об уведомлении автора комментария, на
// который дан ответ. Целевой комментарий перечитывается здесь, а не
// берётся из кэша вызывающего: нужен его актуальный автор.
func (s *Service) dispatchReplyCreated(ctx context.Context, reply models.Comment) SideEffect {
	const op = "service/notifications/dispatchReplyCreated"

	lg := log.From(ctx).With("op", op, "comment_id", reply.ID)

	original, err := s.comments.CommentByID(ctx, reply.ReplyToID)
	if err != nil {
		lg.Error("best-effort notification failed: original comment fetch", "err", err)
		return SideEffectFailed
	}

	if original.AuthorID == reply.AuthorID {
		return SideEffectNone
	}

	n := models.Notification{
		UserID: original.AuthorID,
		Type:   models.NotificationReply,
		// Снапшот исходного текста — контекст для получателя.
		Title:             fmt.Sprintf("Reply to %q", preview(original.Content, 40)),
		Message:           reply.AuthorName + ": " + preview(reply.Content, s.cfg.Notifications.PreviewLen),
		PropertyID:        reply.PropertyID,
		CommentID:         reply.ID,
		OriginalCommentID: original.ID,
		CommenterID:       reply.AuthorID,
		CommenterName:     reply.AuthorName,
	}

	if _, err := s.notifications.CreateNotification(ctx, n); err != nil {
		lg.Error("best-effort notification failed", "recipient", original.AuthorID.String(), "err", err)
		return SideEffectFailed
	}

	s.invalidateUnread(ctx, original.AuthorID)

	return SideEffectDelivered
}

// invalidateUnread сбрасывает кэш счётчика получателя; ошибка не критична —
// запись истечёт по TTL.
func (s *Service) invalidateUnread(ctx context.Context, userID uuid.UUID) {
	if err := s.unread.Invalidate(ctx, userID); err != nil {
		log.From(ctx).Warn("unread cache invalidate failed",
			"user_id", userID.String(),
			"err", err,
		)
	}
}

// ListNotificationsInput — параметры постраничной выдачи уведомлений.
type ListNotificationsInput struct {
	UserID     uuid.UUID
	UnreadOnly bool
	PageSize   int32
	PageToken  string
}

// NotificationsByUser — страница уведомлений получателя, новые первыми.
//
// Поведение/ошибки:
//   - ErrInvalidCursor — некорректный page_token (ошибка вызывающего);
//   - ошибка стораджа деградирует к пустой странице (read-path).
func (s *Service) NotificationsByUser(ctx context.Context, in ListNotificationsInput) (*models.NotificationPage, error) {
	const op = "service/notifications/NotificationsByUser"

	lg := log.From(ctx).With("op", op, "user_id", in.UserID.String())

	if in.UserID == uuid.Nil {
		lg.Warn("invalid argument: empty user_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	page, err := s.notifications.ListByUser(ctx, in.UserID, storage.NotificationFilter{
		UnreadOnly: in.UnreadOnly,
		Page: models.ListParams{
			PageSize:  in.PageSize,
			PageToken: in.PageToken,
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidCursor):
			lg.Warn("invalid cursor")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCursor)
		default:
			lg.Error("storage error on ListByUser, degrading to empty page", "err", err)
			return &models.NotificationPage{}, nil
		}
	}

	return page, nil
}

// UnreadCount — число непрочитанных уведомлений получателя.
// Любая ошибка бэкенда деградирует к нулю (логируется, наружу не отдаётся):
// бейдж со счётчиком не должен ломать рендер.
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) int64 {
	const op = "service/notifications/UnreadCount"

	lg := log.From(ctx).With("op", op, "user_id", userID.String())

	if userID == uuid.Nil {
		lg.Warn("invalid argument: empty user_id")
		return 0
	}

	if count, ok, err := s.unread.Get(ctx, userID); err == nil && ok {
		return count
	} else if err != nil {
		lg.Warn("unread cache get failed", "err", err)
	}

	count, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		lg.Error("storage error on CountUnread, degrading to zero", "err", err)
		return 0
	}

	if err := s.unread.Set(ctx, userID, count, s.cfg.Redis.UnreadTTL); err != nil {
		lg.Warn("unread cache set failed", "err", err)
	}

	return count
}

// MarkAsRead — идемпотентный перевод уведомления в прочитанное.
//
// Поведение/ошибки:
//   - ErrNotFound — уведомление не найдено;
//   - повтор по прочитанному — no-op успех;
//   - обратного перехода read → unread не существует.
func (s *Service) MarkAsRead(ctx context.Context, id string) error {
	const op = "service/notifications/MarkAsRead"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id)

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	n, err := s.notifications.MarkRead(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("notification not found")
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on MarkRead", "err", err)
			return fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	s.invalidateUnread(ctx, n.UserID)

	return nil
}

// MarkAllAsRead — перевод всех непрочитанных уведомлений получателя.
// Каждый переход независим: частичный сбой не откатывается, неудачи
// логируются, возвращается число успешных переходов.
func (s *Service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	const op = "service/notifications/MarkAllAsRead"

	lg := log.From(ctx).With("op", op, "user_id", userID.String())

	if userID == uuid.Nil {
		lg.Warn("invalid argument: empty user_id")
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	unread, err := s.notifications.ListUnread(ctx, userID)
	if err != nil {
		lg.Error("storage error on ListUnread", "err", err)
		return 0, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	var done int64
	for _, n := range unread {
		if _, err := s.notifications.MarkRead(ctx, n.ID); err != nil {
			lg.Warn("mark-all transition failed", "notification_id", n.ID, "err", err)
			continue
		}

		done++
	}

	s.invalidateUnread(ctx, userID)

	return done, nil
}

// DeleteNotification — удаление уведомления получателем.
func (s *Service) DeleteNotification(ctx context.Context, id string) error {
	const op = "service/notifications/DeleteNotification"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id)

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	n, err := s.notifications.DeleteNotification(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("notification not found")
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on DeleteNotification", "err", err)
			return fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	// Удалённое непрочитанное меняет счётчик получателя.
	if !n.IsRead {
		s.invalidateUnread(ctx, n.UserID)
	}

	return nil
}
