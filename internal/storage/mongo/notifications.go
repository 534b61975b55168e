package mongo

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rently-app/discussions-service/internal/models"
	"github.com/rently-app/discussions-service/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationsStorage — репозиторий уведомлений поверх общего подключения Mongo.
type NotificationsStorage struct {
	m *Mongo
}

// Проверка выполнения контракта.
var _ storage.Notifications = (*NotificationsStorage)(nil)

// notificationDoc — представление уведомления в коллекции.
type notificationDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	UserID            string             `bson:"user_id"`
	Type              string             `bson:"type"`
	Title             string             `bson:"title"`
	Message           string             `bson:"message"`
	PropertyID        string             `bson:"property_id"`
	CommentID         string             `bson:"comment_id"`
	OriginalCommentID string             `bson:"original_comment_id"`
	CommenterID       string             `bson:"commenter_id"`
	CommenterName     string             `bson:"commenter_name"`
	IsRead            bool               `bson:"is_read"`
	CreatedAt         time.Time          `bson:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at"`
}

func toNotificationDoc(n models.Notification) notificationDoc {
	return notificationDoc{
		UserID:            n.UserID.String(),
		Type:              string(n.Type),
		Title:             n.Title,
		Message:           n.Message,
		PropertyID:        n.PropertyID.String(),
		CommentID:         n.CommentID,
		OriginalCommentID: n.OriginalCommentID,
		CommenterID:       n.CommenterID.String(),
		CommenterName:     n.CommenterName,
		IsRead:            n.IsRead,
		CreatedAt:         toMS(n.CreatedAt),
		UpdatedAt:         toMS(n.UpdatedAt),
	}
}

func fromNotificationDoc(d notificationDoc) models.Notification {
	userID, _ := uuid.Parse(d.UserID)
	propertyID, _ := uuid.Parse(d.PropertyID)
	commenterID, _ := uuid.Parse(d.CommenterID)

	return models.Notification{
		ID:                d.ID.Hex(),
		UserID:            userID,
		Type:              models.NotificationType(d.Type),
		Title:             d.Title,
		Message:           d.Message,
		PropertyID:        propertyID,
		CommentID:         d.CommentID,
		OriginalCommentID: d.OriginalCommentID,
		CommenterID:       commenterID,
		CommenterName:     d.CommenterName,
		IsRead:            d.IsRead,
		CreatedAt:         d.CreatedAt.UTC(),
		UpdatedAt:         d.UpdatedAt.UTC(),
	}
}

// encodeCursor кодирует пару (created_at, _id) в непрозрачный токен для клиента.
func encodeCursor(t time.Time, id primitive.ObjectID) string {
	raw := fmt.Sprintf("%d|%s", t.UTC().UnixNano(), id.Hex())

	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodeCursor декодирует токен обратно в пару ключей.
// Любой некорректный токен — storage.ErrInvalidCursor.
func decodeCursor(token string) (time.Time, primitive.ObjectID, error) {
	res, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return time.Time{}, primitive.NilObjectID, fmt.Errorf("%w: %v", storage.ErrInvalidCursor, err)
	}

	parts := strings.SplitN(string(res), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, primitive.NilObjectID, fmt.Errorf("%w: malformed token", storage.ErrInvalidCursor)
	}

	var nanos int64
	if _, err := fmt.Sscan(parts[0], &nanos); err != nil {
		return time.Time{}, primitive.NilObjectID, fmt.Errorf("%w: %v", storage.ErrInvalidCursor, err)
	}

	oid, err := primitive.ObjectIDFromHex(parts[1])
	if err != nil {
		return time.Time{}, primitive.NilObjectID, fmt.Errorf("%w: %v", storage.ErrInvalidCursor, err)
	}

	return time.Unix(0, nanos).UTC(), oid, nil
}

// limitOrDefault приводит запрошенный размер страницы к [Default, Max].
func (s *NotificationsStorage) limitOrDefault(pageSize int32) int64 {
	lim := pageSize
	if lim <= 0 {
		lim = s.m.cfg.Limits.Default
	}

	if lim > s.m.cfg.Limits.Max {
		lim = s.m.cfg.Limits.Max
	}

	return int64(lim)
}

// CreateNotification создаёт запись уведомления.
func (s *NotificationsStorage) CreateNotification(ctx context.Context, n models.Notification) (*models.Notification, error) {
	const op = "storage/mongo/CreateNotification"

	now := toMS(time.Now())
	n.CreatedAt = now
	n.UpdatedAt = now
	n.IsRead = false

	res, err := s.m.notifications.InsertOne(ctx, toNotificationDoc(n))
	if err != nil {
		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("%s: inserted id type", op)
	}

	n.ID = oid.Hex()
	return &n, nil
}

// ListByUser возвращает страницу уведомлений получателя.
// Сортировка: created_at DESC, _id DESC (новые первыми).
// При некорректном page_token — storage.ErrInvalidCursor.
func (s *NotificationsStorage) ListByUser(ctx context.Context, userID uuid.UUID, f storage.NotificationFilter) (*models.NotificationPage, error) {
	const op = "storage/mongo/ListByUser"

	limit := s.limitOrDefault(f.Page.PageSize)

	filter := bson.D{{Key: "user_id", Value: userID.String()}}
	if f.UnreadOnly {
		filter = append(filter, bson.E{Key: "is_read", Value: false})
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	// Курсор "меньше" для DESC сортировки.
	if strings.TrimSpace(f.Page.PageToken) != "" {
		t, oid, decErr := decodeCursor(f.Page.PageToken)
		if decErr != nil {
			return nil, fmt.Errorf("%s: %w", op, decErr)
		}

		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "created_at", Value: bson.D{{Key: "$lt", Value: t}}}},
			bson.D{
				{Key: "created_at", Value: t},
				{Key: "_id", Value: bson.D{{Key: "$lt", Value: oid}}},
			},
		}})
	}

	cur, err := s.m.notifications.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var items []models.Notification
	var lastOID primitive.ObjectID
	for cur.Next(ctx) {
		var doc notificationDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		lastOID = doc.ID
		items = append(items, fromNotificationDoc(doc))
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	// Токен выдаётся только для заведомо неполной выборки: короткая
	// страница означает конец ленты.
	var next string
	if n := len(items); n > 0 && int64(n) == limit {
		next = encodeCursor(items[n-1].CreatedAt, lastOID)
	}

	return &models.NotificationPage{
		Items:         items,
		NextPageToken: next,
	}, nil
}

// ListUnread возвращает все непрочитанные уведомления получателя, старые первыми.
func (s *NotificationsStorage) ListUnread(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	const op = "storage/mongo/ListUnread"

	filter := bson.D{
		{Key: "user_id", Value: userID.String()},
		{Key: "is_read", Value: false},
	}
	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := s.m.notifications.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var items []models.Notification
	for cur.Next(ctx) {
		var doc notificationDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		items = append(items, fromNotificationDoc(doc))
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return items, nil
}

// MarkRead выставляет is_read=true; повтор по уже прочитанному — no-op успех.
// Возвращает обновлённую запись.
func (s *NotificationsStorage) MarkRead(ctx context.Context, id string) (*models.Notification, error) {
	const op = "storage/mongo/MarkRead"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	after := options.After
	var doc notificationDoc
	err = s.m.notifications.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "is_read", Value: true},
			{Key: "updated_at", Value: toMS(time.Now())},
		}}},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := fromNotificationDoc(doc)
	return &out, nil
}

// CountUnread возвращает число непрочитанных уведомлений получателя.
func (s *NotificationsStorage) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	const op = "storage/mongo/CountUnread"

	n, err := s.m.notifications.CountDocuments(ctx, bson.D{
		{Key: "user_id", Value: userID.String()},
		{Key: "is_read", Value: false},
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

// DeleteNotification удаляет одну запись и возвращает её
// (вызывающей стороне нужен получатель для инвалидации счётчика).
func (s *NotificationsStorage) DeleteNotification(ctx context.Context, id string) (*models.Notification, error) {
	const op = "storage/mongo/DeleteNotification"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var doc notificationDoc
	err = s.m.notifications.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := fromNotificationDoc(doc)
	return &out, nil
}

// DeleteAllByProperty удаляет уведомления объявления (teardown вместе с комментариями).
func (s *NotificationsStorage) DeleteAllByProperty(ctx context.Context, propertyID uuid.UUID) (int64, error) {
	const op = "storage/mongo/notifications/DeleteAllByProperty"

	res, err := s.m.notifications.DeleteMany(ctx, bson.D{{Key: "property_id", Value: propertyID.String()}})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return res.DeletedCount, nil
}
