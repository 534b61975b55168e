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

// Входные структуры сервисного слоя.

// CreateCommentInput — создание корневого комментария под объявлением.
// OwnerID/PropertyTitle приходят от вызывающей стороны (фронт знает карточку
// объявления) и нужны только диспетчеру уведомлений.
type CreateCommentInput struct {
	PropertyID    uuid.UUID
	OwnerID       uuid.UUID
	PropertyTitle string
	AuthorID      uuid.UUID
	AuthorName    string
	Content       string
}

// CreateReplyInput — создание ответа.
// Передаётся только ReplyToID: корень ветки (thread_id) и объявление
// выводятся из целевого комментария, а не доверяются вызывающей стороне —
// это снимает возможный рассинхрон пары {thread_id, reply_to_id}.
type CreateReplyInput struct {
	ReplyToID  string
	AuthorID   uuid.UUID
	AuthorName string
	Content    string
}

// CreateComment — бизнес-операция создания корневого комментария.
//
// Валидация:
//   - PropertyID, OwnerID, AuthorID обязательны (uuid.Nil -> ErrInvalidArgument);
//   - AuthorName и Content нормализуются (TrimSpace) и не должны быть пустыми.
//
// Поведение:
//   - уведомление владельцу объявления отправляется строго после успешной
//     записи комментария; его исход отражается в SideEffect и никогда
//     не превращается в ошибку операции.
func (s *Service) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, SideEffect, error) {
	const op = "service/comments/CreateComment"

	lg := log.From(ctx).With(
		"op", op,
		"property_id", in.PropertyID.String(),
		"author_id", in.AuthorID.String(),
	)

	if in.PropertyID == uuid.Nil {
		lg.Warn("invalid argument: empty property_id")
		return nil, SideEffectNone, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if in.OwnerID == uuid.Nil {
		lg.Warn("invalid argument: empty owner_id")
		return nil, SideEffectNone, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if in.AuthorID == uuid.Nil {
		lg.Warn("invalid argument: empty author_id")
		return nil, SideEffectNone, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	in.AuthorName = strings.TrimSpace(in.AuthorName)
	if in.AuthorName == "" {
		lg.Warn("invalid argument: empty author_name")
		return nil, SideEffectNone, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" {
		lg.Warn("invalid argument: empty content")
		return nil, SideEffectNone, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	comm := models.Comment{
		PropertyID: in.PropertyID,
		AuthorID:   in.AuthorID,
		AuthorName: in.AuthorName,
		Content:    in.Content,
	}

	created, err := s.comments.CreateComment(ctx, comm)
	if err != nil {
		lg.Error("storage error on CreateComment", "err", err)
		return nil, SideEffectNone, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	effect := s.dispatchCommentCreated(ctx, *created, in.OwnerID, in.PropertyTitle)

	return created, effect, nil
}

// CreateReply — бизнес-операция создания ответа.
//
// Валидация:
//   - ReplyToID не должен быть пустым; AuthorID обязателен;
//   - AuthorName и Content нормализуются и не должны быть пустыми.
//
// Поведение/ошибки:
//   - ErrParentNotFound — целевой комментарий отсутствует;
//   - ErrNotTopLevel — денормализация нарушена на стороне данных;
//   - уведомление автору целевого комментария — best-effort (SideEffect).
func (s *Service) CreateReply(ctx context.Context, in CreateReplyInput) (*models.Comment, SideEffect, error) {
	const op = "service/comments/CreateReply"

	in.ReplyToID = strings.TrimSpace(in.ReplyToID)
	lg := log.From(ctx).With(
		"op", op,
		"reply_to_id", in.ReplyToID,
		"author_id", in.AuthorID.String(),
	)

	if in.ReplyToID == "" {
		lg.Warn("invalid argument: empty reply_to_id")
		return nil, SideEffectNone, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if in.AuthorID == uuid.Nil {
		lg.Warn("invalid argument: empty author_id")
		return nil, SideEffectNone, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	in.AuthorName = strings.TrimSpace(in.AuthorName)
	if in.AuthorName == "" {
		lg.Warn("invalid argument: empty author_name")
		return nil, SideEffectNone, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" {
		lg.Warn("invalid argument: empty content")
		return nil, SideEffectNone, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	original, err := s.comments.CommentByID(ctx, in.ReplyToID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("reply target not found")
			return nil, SideEffectNone, fmt.Errorf("%s: %w", op, ErrParentNotFound)
		default:
			lg.Error("storage error on CommentByID", "err", err)
			return nil, SideEffectNone, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	// Все ответы, независимо от глубины, хранят корень ветки.
	threadID := original.ThreadID
	if threadID == "" {
		threadID = original.ID
	}

	comm := models.Comment{
		PropertyID: original.PropertyID,
		AuthorID:   in.AuthorID,
		AuthorName: in.AuthorName,
		Content:    in.Content,
		ThreadID:   threadID,
		ReplyToID:  original.ID,
	}

	created, err := s.comments.CreateComment(ctx, comm)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrParentNotFound):
			lg.Warn("thread root not found")
			return nil, SideEffectNone, fmt.Errorf("%s: %w", op, ErrParentNotFound)
		case errors.Is(err, storage.ErrNotTopLevel):
			lg.Warn("thread root is not top-level")
			return nil, SideEffectNone, fmt.Errorf("%s: %w", op, ErrNotTopLevel)
		default:
			lg.Error("storage error on CreateComment", "err", err)
			return nil, SideEffectNone, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	effect := s.dispatchReplyCreated(ctx, *created)

	return created, effect, nil
}

// UpdateComment — правка содержимого комментария.
//
// Поведение/ошибки:
//   - ErrNotFound — комментарий не найден;
//   - ErrInternal — иные ошибки стораджа.
func (s *Service) UpdateComment(ctx context.Context, id, content string) (*models.Comment, error) {
	const op = "service/comments/UpdateComment"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id)

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		lg.Warn("invalid argument: empty content")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	result, err := s.comments.UpdateComment(ctx, id, storage.CommentUpdate{Content: &content})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("comment not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on UpdateComment", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	return result, nil
}

// SetPinned — закрепление/снятие закрепления корневого комментария.
//
// Поведение/ошибки:
//   - ErrNotFound — комментарий не найден;
//   - ErrNotTopLevel — попытка закрепить ответ;
//   - повторное закрепление обновляет pinned_at (last-write-wins).
func (s *Service) SetPinned(ctx context.Context, id string, pinned bool) (*models.Comment, error) {
	const op = "service/comments/SetPinned"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id, "pinned", pinned)

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	result, err := s.comments.UpdateComment(ctx, id, storage.CommentUpdate{Pinned: &pinned})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("comment not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		case errors.Is(err, storage.ErrNotTopLevel):
			lg.Warn("pin rejected: not a top-level comment")
			return nil, fmt.Errorf("%s: %w", op, ErrNotTopLevel)
		default:
			lg.Error("storage error on UpdateComment", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	return result, nil
}

// DeleteComment — удаление одного комментария.
// Ответы корня при этом НЕ удаляются — контракт данных, не упущение.
func (s *Service) DeleteComment(ctx context.Context, id string) error {
	const op = "service/comments/DeleteComment"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id)

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if err := s.comments.DeleteComment(ctx, id); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("comment not found")
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on DeleteComment", "err", err)
			return fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	return nil
}

// PurgeProperty — teardown обсуждения при удалении объявления:
// комментарии и уведомления удаляются массово.
// Кэшированные счётчики получателей не трогаем — они истекают по TTL.
func (s *Service) PurgeProperty(ctx context.Context, propertyID uuid.UUID) (comments, notifications int64, err error) {
	const op = "service/comments/PurgeProperty"

	lg := log.From(ctx).With("op", op, "property_id", propertyID.String())

	if propertyID == uuid.Nil {
		lg.Warn("invalid argument: empty property_id")
		return 0, 0, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	comments, err = s.comments.DeleteAllByProperty(ctx, propertyID)
	if err != nil {
		lg.Error("storage error on DeleteAllByProperty (comments)", "err", err)
		return 0, 0, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	notifications, err = s.notifications.DeleteAllByProperty(ctx, propertyID)
	if err != nil {
		lg.Error("storage error on DeleteAllByProperty (notifications)", "err", err)
		return comments, 0, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	lg.Info("property discussion purged",
		"comments", comments,
		"notifications", notifications,
	)

	return comments, notifications, nil
}
