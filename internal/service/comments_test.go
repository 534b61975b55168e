package service

// Тесты сервисного слоя комментариев (internal/service/comments.go).
//
//  Проверяем:
//  - валидацию входов (Create/Reply/Update/Pin/Delete/Purge);
//  - маппинг ошибок storage -> service;
//  - отделение исхода уведомления (SideEffect) от исхода операции;
//  - подавление самоуведомлений;
//  - выведение thread_id из целевого комментария при создании ответа.

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rently-app/discussions-service/internal/models"
	"github.com/rently-app/discussions-service/internal/storage"
)

func TestService_CreateComment_Validation(t *testing.T) {
	s, _, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	valid := CreateCommentInput{
		PropertyID: uuid.New(), OwnerID: uuid.New(), PropertyTitle: "Cozy flat",
		AuthorID: uuid.New(), AuthorName: "bob", Content: "looks great",
	}

	// empty property_id
	in := valid
	in.PropertyID = uuid.Nil
	_, _, err := s.CreateComment(context.Background(), in)
	require.ErrorIs(t, err, ErrInvalidArgument)

	// empty owner_id
	in = valid
	in.OwnerID = uuid.Nil
	_, _, err = s.CreateComment(context.Background(), in)
	require.ErrorIs(t, err, ErrInvalidArgument)

	// empty author_id
	in = valid
	in.AuthorID = uuid.Nil
	_, _, err = s.CreateComment(context.Background(), in)
	require.ErrorIs(t, err, ErrInvalidArgument)

	// author_name -> TrimSpace -> пусто
	in = valid
	in.AuthorName = "   "
	_, _, err = s.CreateComment(context.Background(), in)
	require.ErrorIs(t, err, ErrInvalidArgument)

	// content -> TrimSpace -> пусто
	in = valid
	in.Content = "   "
	_, _, err = s.CreateComment(context.Background(), in)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

// Happy-path: комментарий записан, уведомление владельцу доставлено.
func TestService_CreateComment_OK_NotificationDelivered(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	propertyID := uuid.New()
	ownerID := uuid.New()
	authorID := uuid.New()

	created := &models.Comment{
		ID:         "507f1f77bcf86cd799439011",
		PropertyID: propertyID,
		AuthorID:   authorID,
		AuthorName: "bob",
		Content:    "looks great",
		CreatedAt:  time.Now().UTC(),
	}

	m.comments.EXPECT().
		CreateComment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c models.Comment) (*models.Comment, error) {
			require.Equal(t, propertyID, c.PropertyID)
			require.Empty(t, c.ThreadID)
			require.Empty(t, c.ReplyToID)
			return created, nil
		})

	m.notifications.EXPECT().
		CreateNotification(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n models.Notification) (*models.Notification, error) {
			require.Equal(t, ownerID, n.UserID)
			require.Equal(t, models.NotificationComment, n.Type)
			require.Equal(t, created.ID, n.CommentID)
			require.Contains(t, n.Message, "looks great")
			return &n, nil
		})

	m.unread.EXPECT().Invalidate(gomock.Any(), ownerID).Return(nil)

	comment, effect, err := s.CreateComment(context.Background(), CreateCommentInput{
		PropertyID: propertyID, OwnerID: ownerID, PropertyTitle: "Cozy flat",
		AuthorID: authorID, AuthorName: "bob", Content: "looks great",
	})
	require.NoError(t, err)
	require.Equal(t, created.ID, comment.ID)
	require.Equal(t, SideEffectDelivered, effect)
}

// Владелец комментирует своё объявление — уведомление подавляется.
func TestService_CreateComment_SelfNotificationSuppressed(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	ownerID := uuid.New()
	created := &models.Comment{
		ID:         "507f1f77bcf86cd799439012",
		PropertyID: uuid.New(),
		AuthorID:   ownerID,
		AuthorName: "owner",
		Content:    "thanks all",
	}

	m.comments.EXPECT().
		CreateComment(gomock.Any(), gomock.Any()).
		Return(created, nil)

	// CreateNotification не должен вызываться вовсе.

	_, effect, err := s.CreateComment(context.Background(), CreateCommentInput{
		PropertyID: created.PropertyID, OwnerID: ownerID, PropertyTitle: "Cozy flat",
		AuthorID: ownerID, AuthorName: "owner", Content: "thanks all",
	})
	require.NoError(t, err)
	require.Equal(t, SideEffectNone, effect)
}

// Сбой записи уведомления не превращается в ошибку операции.
func TestService_CreateComment_NotificationFailureIsNotAnError(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	ownerID := uuid.New()
	created := &models.Comment{
		ID:         "507f1f77bcf86cd799439013",
		PropertyID: uuid.New(),
		AuthorID:   uuid.New(),
		AuthorName: "bob",
		Content:    "nice",
	}

	m.comments.EXPECT().
		CreateComment(gomock.Any(), gomock.Any()).
		Return(created, nil)
	m.notifications.EXPECT().
		CreateNotification(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("mongo down"))

	comment, effect, err := s.CreateComment(context.Background(), CreateCommentInput{
		PropertyID: created.PropertyID, OwnerID: ownerID, PropertyTitle: "Cozy flat",
		AuthorID: created.AuthorID, AuthorName: "bob", Content: "nice",
	})
	require.NoError(t, err)
	require.NotNil(t, comment)
	require.Equal(t, SideEffectFailed, effect)
}

// Сбой записи комментария — ErrInternal, уведомление не диспатчится.
func TestService_CreateComment_StorageError(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	m.comments.EXPECT().
		CreateComment(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("mongo down"))

	_, effect, err := s.CreateComment(context.Background(), CreateCommentInput{
		PropertyID: uuid.New(), OwnerID: uuid.New(), PropertyTitle: "Cozy flat",
		AuthorID: uuid.New(), AuthorName: "bob", Content: "nice",
	})
	require.ErrorIs(t, err, ErrInternal)
	require.Equal(t, SideEffectNone, effect)
}

// Ответ на корень: thread_id = id корня, reply_to_id = id корня.
func TestService_CreateReply_DerivesThreadFromRoot(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	propertyID := uuid.New()
	rootAuthor := uuid.New()
	replyAuthor := uuid.New()

	original := &models.Comment{
		ID:         "507f1f77bcf86cd799439021",
		PropertyID: propertyID,
		AuthorID:   rootAuthor,
		AuthorName: "alice",
		Content:    "is it available?",
	}

	m.comments.EXPECT().
		CommentByID(gomock.Any(), original.ID).
		Return(original, nil).
		Times(2) // выведение thread_id + повторное чтение диспетчером

	m.comments.EXPECT().
		CreateComment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c models.Comment) (*models.Comment, error) {
			require.Equal(t, original.ID, c.ThreadID)
			require.Equal(t, original.ID, c.ReplyToID)
			require.Equal(t, propertyID, c.PropertyID)
			out := c
			out.ID = "507f1f77bcf86cd799439022"
			return &out, nil
		})

	m.notifications.EXPECT().
		CreateNotification(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n models.Notification) (*models.Notification, error) {
			require.Equal(t, rootAuthor, n.UserID)
			require.Equal(t, models.NotificationReply, n.Type)
			require.Equal(t, original.ID, n.OriginalCommentID)
			return &n, nil
		})

	m.unread.EXPECT().Invalidate(gomock.Any(), rootAuthor).Return(nil)

	reply, effect, err := s.CreateReply(context.Background(), CreateReplyInput{
		ReplyToID: original.ID, AuthorID: replyAuthor, AuthorName: "bob", Content: "yes, from June",
	})
	require.NoError(t, err)
	require.Equal(t, original.ID, reply.ThreadID)
	require.Equal(t, SideEffectDelivered, effect)
}

// Ответ на ответ: thread_id наследуется от корня ветки, не от цели.
func TestService_CreateReply_DeepReplyKeepsRootThread(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	target := &models.Comment{
		ID:         "507f1f77bcf86cd799439032",
		PropertyID: uuid.New(),
		AuthorID:   uuid.New(),
		AuthorName: "alice",
		Content:    "sure",
		ThreadID:   "507f1f77bcf86cd799439031",
		ReplyToID:  "507f1f77bcf86cd799439031",
	}

	m.comments.EXPECT().
		CommentByID(gomock.Any(), target.ID).
		Return(target, nil).
		Times(2)

	m.comments.EXPECT().
		CreateComment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c models.Comment) (*models.Comment, error) {
			require.Equal(t, "507f1f77bcf86cd799439031", c.ThreadID)
			require.Equal(t, target.ID, c.ReplyToID)
			out := c
			out.ID = "507f1f77bcf86cd799439033"
			return &out, nil
		})

	m.notifications.EXPECT().
		CreateNotification(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n models.Notification) (*models.Notification, error) {
			return &n, nil
		})
	m.unread.EXPECT().Invalidate(gomock.Any(), target.AuthorID).Return(nil)

	_, _, err := s.CreateReply(context.Background(), CreateReplyInput{
		ReplyToID: target.ID, AuthorID: uuid.New(), AuthorName: "bob", Content: "thanks",
	})
	require.NoError(t, err)
}

// Ответ самому себе — уведомление подавляется.
func TestService_CreateReply_SelfReplySuppressed(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	author := uuid.New()
	original := &models.Comment{
		ID:         "507f1f77bcf86cd799439041",
		PropertyID: uuid.New(),
		AuthorID:   author,
		AuthorName: "alice",
		Content:    "first",
	}

	m.comments.EXPECT().
		CommentByID(gomock.Any(), original.ID).
		Return(original, nil).
		Times(2)
	m.comments.EXPECT().
		CreateComment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c models.Comment) (*models.Comment, error) {
			out := c
			out.ID = "507f1f77bcf86cd799439042"
			return &out, nil
		})

	_, effect, err := s.CreateReply(context.Background(), CreateReplyInput{
		ReplyToID: original.ID, AuthorID: author, AuthorName: "alice", Content: "update",
	})
	require.NoError(t, err)
	require.Equal(t, SideEffectNone, effect)
}

func TestService_CreateReply_TargetNotFound(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	m.comments.EXPECT().
		CommentByID(gomock.Any(), "507f1f77bcf86cd799439099").
		Return(nil, storage.ErrNotFound)

	_, _, err := s.CreateReply(context.Background(), CreateReplyInput{
		ReplyToID: "507f1f77bcf86cd799439099", AuthorID: uuid.New(), AuthorName: "bob", Content: "hi",
	})
	require.ErrorIs(t, err, ErrParentNotFound)
}

func TestService_UpdateComment_ErrorMapping(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	// NotFound
	m.comments.EXPECT().
		UpdateComment(gomock.Any(), "507f1f77bcf86cd799439051", gomock.Any()).
		Return(nil, storage.ErrNotFound)
	_, err := s.UpdateComment(context.Background(), "507f1f77bcf86cd799439051", "edited")
	require.ErrorIs(t, err, ErrNotFound)

	// Internal
	m.comments.EXPECT().
		UpdateComment(gomock.Any(), "507f1f77bcf86cd799439052", gomock.Any()).
		Return(nil, errors.New("mongo down"))
	_, err = s.UpdateComment(context.Background(), "507f1f77bcf86cd799439052", "edited")
	require.ErrorIs(t, err, ErrInternal)

	// пустой content
	_, err = s.UpdateComment(context.Background(), "507f1f77bcf86cd799439053", "   ")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

// Закрепление ответа запрещено хранилищем и транслируется в ErrNotTopLevel.
func TestService_SetPinned_NotTopLevel(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	m.comments.EXPECT().
		UpdateComment(gomock.Any(), "507f1f77bcf86cd799439061", gomock.Any()).
		Return(nil, storage.ErrNotTopLevel)

	_, err := s.SetPinned(context.Background(), "507f1f77bcf86cd799439061", true)
	require.ErrorIs(t, err, ErrNotTopLevel)
}

func TestService_SetPinned_OK(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	pinned := &models.Comment{
		ID:       "507f1f77bcf86cd799439062",
		Pinned:   true,
		PinnedAt: time.Now().UTC(),
	}

	m.comments.EXPECT().
		UpdateComment(gomock.Any(), pinned.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, u storage.CommentUpdate) (*models.Comment, error) {
			require.NotNil(t, u.Pinned)
			require.True(t, *u.Pinned)
			require.Nil(t, u.Content)
			return pinned, nil
		})

	out, err := s.SetPinned(context.Background(), pinned.ID, true)
	require.NoError(t, err)
	require.True(t, out.Pinned)
}

func TestService_DeleteComment_ErrorMapping(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	m.comments.EXPECT().
		DeleteComment(gomock.Any(), "507f1f77bcf86cd799439071").
		Return(storage.ErrNotFound)
	err := s.DeleteComment(context.Background(), "507f1f77bcf86cd799439071")
	require.ErrorIs(t, err, ErrNotFound)

	err = s.DeleteComment(context.Background(), "  ")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

// Teardown удаляет и комментарии, и уведомления объявления.
func TestService_PurgeProperty_OK(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	propertyID := uuid.New()

	m.comments.EXPECT().
		DeleteAllByProperty(gomock.Any(), propertyID).
		Return(int64(7), nil)
	m.notifications.EXPECT().
		DeleteAllByProperty(gomock.Any(), propertyID).
		Return(int64(3), nil)

	comments, notifications, err := s.PurgeProperty(context.Background(), propertyID)
	require.NoError(t, err)
	require.EqualValues(t, 7, comments)
	require.EqualValues(t, 3, notifications)
}

func TestService_PurgeProperty_NotificationsFailure(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	propertyID := uuid.New()

	m.comments.EXPECT().
		DeleteAllByProperty(gomock.Any(), propertyID).
		Return(int64(7), nil)
	m.notifications.EXPECT().
		DeleteAllByProperty(gomock.Any(), propertyID).
		Return(int64(0), errors.New("mongo down"))

	_, _, err := s.PurgeProperty(context.Background(), propertyID)
	require.ErrorIs(t, err, ErrInternal)
}
