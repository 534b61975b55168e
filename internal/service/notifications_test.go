package service

// Тесты диспетчера уведомлений и трекера непрочитанных
// (internal/service/notifications.go).
//
//  Проверяем:
//  - усечение превью (руны, не байты; "..." только при реальном усечении);
//  - UnreadCount: кэш-хит, кэш-мисс с пересчётом, деградацию к нулю;
//  - идемпотентность MarkAsRead и инвалидацию кэша;
//  - независимость переходов в MarkAllAsRead при частичных сбоях;
//  - инвалидацию кэша при удалении непрочитанного уведомления;
//  - выдачу NotificationsByUser (курсор, деградация).

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rently-app/discussions-service/internal/models"
	"github.com/rently-app/discussions-service/internal/storage"
)

func TestPreview_Truncation(t *testing.T) {
	// Короче лимита — без изменений.
	require.Equal(t, "short", preview("short", 100))

	// Ровно в лимит — без "...".
	exact := strings.Repeat("a", 100)
	require.Equal(t, exact, preview(exact, 100))

	// Длиннее лимита — обрезка + "...".
	long := strings.Repeat("a", 101)
	got := preview(long, 100)
	require.Len(t, []rune(got), 103)
	require.True(t, strings.HasSuffix(got, "..."))

	// Руны, не байты: кириллица не рвётся посередине символа.
	cyr := strings.Repeat("я", 150)
	got = preview(cyr, 100)
	require.Equal(t, strings.Repeat("я", 100)+"...", got)
}

// Кэш-хит: сторадж не трогаем.
func TestService_UnreadCount_CacheHit(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	userID := uuid.New()

	m.unread.EXPECT().
		Get(gomock.Any(), userID).
		Return(int64(5), true, nil)

	require.EqualValues(t, 5, s.UnreadCount(context.Background(), userID))
}

// Кэш-мисс: пересчёт из БД и запись обратно в кэш.
func TestService_UnreadCount_CacheMissRecounts(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	userID := uuid.New()

	m.unread.EXPECT().
		Get(gomock.Any(), userID).
		Return(int64(0), false, nil)
	m.notifications.EXPECT().
		CountUnread(gomock.Any(), userID).
		Return(int64(12), nil)
	m.unread.EXPECT().
		Set(gomock.Any(), userID, int64(12), testConfig().Redis.UnreadTTL).
		Return(nil)

	require.EqualValues(t, 12, s.UnreadCount(context.Background(), userID))
}

// Ошибка Redis не фатальна: падаем на пересчёт из БД.
func TestService_UnreadCount_CacheErrorFallsThrough(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	userID := uuid.New()

	m.unread.EXPECT().
		Get(gomock.Any(), userID).
		Return(int64(0), false, errors.New("redis down"))
	m.notifications.EXPECT().
		CountUnread(gomock.Any(), userID).
		Return(int64(3), nil)
	m.unread.EXPECT().
		Set(gomock.Any(), userID, int64(3), gomock.Any()).
		Return(errors.New("redis down"))

	require.EqualValues(t, 3, s.UnreadCount(context.Background(), userID))
}

// Ошибка БД деградирует к нулю, не к ошибке.
func TestService_UnreadCount_DegradesToZero(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	userID := uuid.New()

	m.unread.EXPECT().
		Get(gomock.Any(), userID).
		Return(int64(0), false, nil)
	m.notifications.EXPECT().
		CountUnread(gomock.Any(), userID).
		Return(int64(0), errors.New("mongo down"))

	require.Zero(t, s.UnreadCount(context.Background(), userID))
}

func TestService_UnreadCount_NilUser(t *testing.T) {
	s, _, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	require.Zero(t, s.UnreadCount(context.Background(), uuid.Nil))
}

func TestService_MarkAsRead_OK_InvalidatesCache(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	userID := uuid.New()

	m.notifications.EXPECT().
		MarkRead(gomock.Any(), "507f1f77bcf86cd799439081").
		Return(&models.Notification{ID: "507f1f77bcf86cd799439081", UserID: userID, IsRead: true}, nil)
	m.unread.EXPECT().Invalidate(gomock.Any(), userID).Return(nil)

	require.NoError(t, s.MarkAsRead(context.Background(), "507f1f77bcf86cd799439081"))
}

func TestService_MarkAsRead_NotFound(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	m.notifications.EXPECT().
		MarkRead(gomock.Any(), "507f1f77bcf86cd799439082").
		Return(nil, storage.ErrNotFound)

	err := s.MarkAsRead(context.Background(), "507f1f77bcf86cd799439082")
	require.ErrorIs(t, err, ErrNotFound)
}

// Частичный сбой: неудачные переходы пропускаются, успешные считаются.
func TestService_MarkAllAsRead_PartialFailure(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	userID := uuid.New()
	unread := []models.Notification{
		{ID: "507f1f77bcf86cd799439091", UserID: userID},
		{ID: "507f1f77bcf86cd799439092", UserID: userID},
		{ID: "507f1f77bcf86cd799439093", UserID: userID},
	}

	m.notifications.EXPECT().
		ListUnread(gomock.Any(), userID).
		Return(unread, nil)

	m.notifications.EXPECT().
		MarkRead(gomock.Any(), unread[0].ID).
		Return(&unread[0], nil)
	m.notifications.EXPECT().
		MarkRead(gomock.Any(), unread[1].ID).
		Return(nil, errors.New("mongo down"))
	m.notifications.EXPECT().
		MarkRead(gomock.Any(), unread[2].ID).
		Return(&unread[2], nil)

	m.unread.EXPECT().Invalidate(gomock.Any(), userID).Return(nil)

	done, err := s.MarkAllAsRead(context.Background(), userID)
	require.NoError(t, err)
	require.EqualValues(t, 2, done)
}

func TestService_MarkAllAsRead_ListFailure(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	userID := uuid.New()

	m.notifications.EXPECT().
		ListUnread(gomock.Any(), userID).
		Return(nil, errors.New("mongo down"))

	_, err := s.MarkAllAsRead(context.Background(), userID)
	require.ErrorIs(t, err, ErrInternal)
}

// Удаление непрочитанного уведомления инвалидирует счётчик получателя.
func TestService_DeleteNotification_UnreadInvalidatesCache(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	userID := uuid.New()

	m.notifications.EXPECT().
		DeleteNotification(gomock.Any(), "507f1f77bcf86cd7994390a1").
		Return(&models.Notification{ID: "507f1f77bcf86cd7994390a1", UserID: userID, IsRead: false}, nil)
	m.unread.EXPECT().Invalidate(gomock.Any(), userID).Return(nil)

	require.NoError(t, s.DeleteNotification(context.Background(), "507f1f77bcf86cd7994390a1"))
}

// Удаление уже прочитанного счётчик не трогает.
func TestService_DeleteNotification_ReadSkipsCache(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	m.notifications.EXPECT().
		DeleteNotification(gomock.Any(), "507f1f77bcf86cd7994390a2").
		Return(&models.Notification{ID: "507f1f77bcf86cd7994390a2", UserID: uuid.New(), IsRead: true}, nil)

	require.NoError(t, s.DeleteNotification(context.Background(), "507f1f77bcf86cd7994390a2"))
}

func TestService_NotificationsByUser_InvalidCursor(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	userID := uuid.New()

	m.notifications.EXPECT().
		ListByUser(gomock.Any(), userID, gomock.Any()).
		Return(nil, storage.ErrInvalidCursor)

	_, err := s.NotificationsByUser(context.Background(), ListNotificationsInput{
		UserID: userID, PageToken: "garbage",
	})
	require.ErrorIs(t, err, ErrInvalidCursor)
}

// Ошибка стораджа деградирует к пустой странице.
func TestService_NotificationsByUser_DegradesOnStorageError(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	userID := uuid.New()

	m.notifications.EXPECT().
		ListByUser(gomock.Any(), userID, gomock.Any()).
		Return(nil, errors.New("mongo down"))

	page, err := s.NotificationsByUser(context.Background(), ListNotificationsInput{UserID: userID})
	require.NoError(t, err)
	require.NotNil(t, page)
	require.Empty(t, page.Items)
	require.Empty(t, page.NextPageToken)
}

func TestService_NotificationsByUser_PassesFilter(t *testing.T) {
	s, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	userID := uuid.New()

	m.notifications.EXPECT().
		ListByUser(gomock.Any(), userID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, f storage.NotificationFilter) (*models.NotificationPage, error) {
			require.True(t, f.UnreadOnly)
			require.EqualValues(t, 50, f.Page.PageSize)
			require.Equal(t, "token", f.Page.PageToken)
			return &models.NotificationPage{Items: []models.Notification{{ID: "x"}}}, nil
		})

	page, err := s.NotificationsByUser(context.Background(), ListNotificationsInput{
		UserID: userID, UnreadOnly: true, PageSize: 50, PageToken: "token",
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
}
