package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pribylovaa/orange-copywriter/internal/models"
	"github.com/pribylovaa/orange-copywriter/internal/storage"
)

type messageDoc struct {
	Role    string `bson:"role"`
	Content string `bson:"content"`
}

// chatDoc — документ коллекции chats.
type chatDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Industry  string             `bson:"industry"`
	Client    string             `bson:"client"`
	Purpose   string             `bson:"purpose"`
	Messages  []messageDoc       `bson:"messages"`
	Timestamp time.Time          `bson:"timestamp"`
}

func toDoc(c models.Conversation) chatDoc {
	msgs := make([]messageDoc, 0, len(c.Messages))
	for _, m := range c.Messages {
		msgs = append(msgs, messageDoc{Role: m.Role, Content: m.Content})
	}

	return chatDoc{
		Industry:  c.Key.Industry,
		Client:    c.Key.Client,
		Purpose:   c.Key.Purpose,
		Messages:  msgs,
		Timestamp: c.Timestamp,
	}
}

func (d chatDoc) toModel() models.Conversation {
	msgs := make([]models.Message, 0, len(d.Messages))
	for _, m := range d.Messages {
		msgs = append(msgs, models.Message{Role: m.Role, Content: m.Content})
	}

	return models.Conversation{
		ID:        d.ID.Hex(),
		Key:       models.ConversationKey{Industry: d.Industry, Client: d.Client, Purpose: d.Purpose},
		Messages:  msgs,
		Timestamp: d.Timestamp.UTC(),
	}
}

// AppendConversation реализует storage.ConversationStorage.
func (m *Mongo) AppendConversation(ctx context.Context, conv models.Conversation) error {
	const op = "storage/mongo/AppendConversation"

	if err := storage.Validate(conv); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// MongoDB DateTime хранит миллисекунды.
	if conv.Timestamp.IsZero() {
		conv.Timestamp = time.Now()
	}
	conv.Timestamp = conv.Timestamp.UTC().Truncate(time.Millisecond)

	if _, err := m.chats.InsertOne(ctx, toDoc(conv)); err != nil {
		return fmt.Errorf("%s: insert: %w", op, err)
	}

	return nil
}

// RecentConversations реализует storage.ConversationStorage.
// ObjectID монотонен в пределах процесса, поэтому _id DESC разрешает равные timestamp.
func (m *Mongo) RecentConversations(ctx context.Context, key models.ConversationKey, limit int) ([]models.Conversation, error) {
	const op = "storage/mongo/RecentConversations"

	filter := bson.D{
		{Key: "industry", Value: key.Industry},
		{Key: "client", Value: key.Client},
		{Key: "purpose", Value: key.Purpose},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(storage.ClampLimit(limit)))

	cur, err := m.chats.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var docs []chatDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}

	out := make([]models.Conversation, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}

	return out, nil
}
