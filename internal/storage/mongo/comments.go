package mongo

import (
	"context"
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

// CommentsStorage — репозиторий комментариев поверх общего подключения Mongo.
type CommentsStorage struct {
	m *Mongo
}

// Проверка выполнения контракта.
var _ storage.Comments = (*CommentsStorage)(nil)

// commentDoc — представление комментария в коллекции.
// Тэги bson фиксируют имена полей независимо от доменной модели.
type commentDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	PropertyID string             `bson:"property_id"`
	AuthorID   string             `bson:"author_id"`
	AuthorName string             `bson:"author_name"`
	Content    string             `bson:"content"`
	ThreadID   string             `bson:"thread_id"`
	ReplyToID  string             `bson:"reply_to_id"`
	Pinned     bool               `bson:"pinned"`
	PinnedAt   time.Time          `bson:"pinned_at"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

// toMS приводит время к миллисекундам UTC: MongoDB DateTime хранит миллисекунды.
func toMS(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

func toCommentDoc(c models.Comment) commentDoc {
	return commentDoc{
		PropertyID: c.PropertyID.String(),
		AuthorID:   c.AuthorID.String(),
		AuthorName: c.AuthorName,
		Content:    c.Content,
		ThreadID:   c.ThreadID,
		ReplyToID:  c.ReplyToID,
		Pinned:     c.Pinned,
		PinnedAt:   toMS(c.PinnedAt),
		CreatedAt:  toMS(c.CreatedAt),
		UpdatedAt:  toMS(c.UpdatedAt),
	}
}

func fromCommentDoc(d commentDoc) models.Comment {
	propertyID, _ := uuid.Parse(d.PropertyID)
	authorID, _ := uuid.Parse(d.AuthorID)

	return models.Comment{
		ID:         d.ID.Hex(),
		PropertyID: propertyID,
		AuthorID:   authorID,
		AuthorName: d.AuthorName,
		Content:    d.Content,
		ThreadID:   d.ThreadID,
		ReplyToID:  d.ReplyToID,
		Pinned:     d.Pinned,
		PinnedAt:   d.PinnedAt.UTC(),
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
	}
}

// CreateComment создаёт комментарий (корневой или ответ).
//   - Для ответа находит корень ветки и проверяет, что он действительно корень;
//     property_id принудительно наследуется от корня (защита от рассинхрона).
//   - ID/CreatedAt/UpdatedAt назначаются здесь.
func (s *CommentsStorage) CreateComment(ctx context.Context, comm models.Comment) (*models.Comment, error) {
	const op = "storage/mongo/CreateComment"

	now := toMS(time.Now())
	comm.CreatedAt = now
	comm.UpdatedAt = now

	if strings.TrimSpace(comm.ThreadID) != "" {
		rootOID, err := primitive.ObjectIDFromHex(strings.TrimSpace(comm.ThreadID))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrParentNotFound)
		}

		var root commentDoc
		if err := s.m.comments.FindOne(ctx, bson.D{{Key: "_id", Value: rootOID}}).Decode(&root); err != nil {
			if errors.Is(err, mongodriver.ErrNoDocuments) {
				return nil, fmt.Errorf("%s: %w", op, storage.ErrParentNotFound)
			}

			return nil, fmt.Errorf("%s: find thread root: %w", op, err)
		}

		// Денормализация допускает в thread_id только настоящий корень.
		if root.ThreadID != "" {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotTopLevel)
		}

		rootProperty, err := uuid.Parse(root.PropertyID)
		if err != nil {
			return nil, fmt.Errorf("%s: root property_id: %w", op, err)
		}
		comm.PropertyID = rootProperty

		// Ответы не закрепляются.
		comm.Pinned = false
		comm.PinnedAt = time.Time{}
	}

	res, err := s.m.comments.InsertOne(ctx, toCommentDoc(comm))
	if err != nil {
		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		// Mongo всегда возвращает ObjectID.
		return nil, fmt.Errorf("%s: inserted id type", op)
	}

	comm.ID = oid.Hex()
	return &comm, nil
}

// CommentByID возвращает комментарий по идентификатору.
// Некорректный формат id трактуется как «нет такой записи».
func (s *CommentsStorage) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	const op = "storage/mongo/CommentByID"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var doc commentDoc
	if err := s.m.comments.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := fromCommentDoc(doc)
	return &out, nil
}

// ListByProperty возвращает все комментарии объявления, любая глубина.
// Сортировка created_at ASC только для стабильности выдачи — итоговый
// порядок определяет сборщик дерева.
func (s *CommentsStorage) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]models.Comment, error) {
	const op = "storage/mongo/ListByProperty"

	filter := bson.D{{Key: "property_id", Value: propertyID.String()}}
	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := s.m.comments.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var items []models.Comment
	for cur.Next(ctx) {
		var doc commentDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		items = append(items, fromCommentDoc(doc))
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return items, nil
}

// UpdateComment применяет частичный апдейт: контент и/или pin-флаг.
// Закрепить можно только корневой комментарий — иначе ErrNotTopLevel.
// Снятие pin обнуляет pinned_at. updated_at сдвигается всегда.
func (s *CommentsStorage) UpdateComment(ctx context.Context, id string, update storage.CommentUpdate) (*models.Comment, error) {
	const op = "storage/mongo/UpdateComment"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	// Pin-часть требует знать, корень ли это; конкурентные апдейты
	// разрешаются последними записанными данными (last-write-wins).
	if update.Pinned != nil && *update.Pinned {
		var doc commentDoc
		if err := s.m.comments.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
			if errors.Is(err, mongodriver.ErrNoDocuments) {
				return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
			}

			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if doc.ThreadID != "" {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotTopLevel)
		}
	}

	now := toMS(time.Now())
	set := bson.D{{Key: "updated_at", Value: now}}

	if update.Content != nil {
		set = append(set, bson.E{Key: "content", Value: *update.Content})
	}

	if update.Pinned != nil {
		set = append(set, bson.E{Key: "pinned", Value: *update.Pinned})
		if *update.Pinned {
			set = append(set, bson.E{Key: "pinned_at", Value: now})
		} else {
			set = append(set, bson.E{Key: "pinned_at", Value: time.Time{}})
		}
	}

	after := options.After
	var doc commentDoc
	err = s.m.comments.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: set}},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := fromCommentDoc(doc)
	return &out, nil
}

// DeleteComment удаляет одну запись. Ответы корня НЕ удаляются —
// каскада в слое данных нет, для teardown есть DeleteAllByProperty.
func (s *CommentsStorage) DeleteComment(ctx context.Context, id string) error {
	const op = "storage/mongo/DeleteComment"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	res, err := s.m.comments.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// DeleteAllByProperty удаляет все комментарии объявления.
func (s *CommentsStorage) DeleteAllByProperty(ctx context.Context, propertyID uuid.UUID) (int64, error) {
	const op = "storage/mongo/DeleteAllByProperty"

	res, err := s.m.comments.DeleteMany(ctx, bson.D{{Key: "property_id", Value: propertyID.String()}})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return res.DeletedCount, nil
}
