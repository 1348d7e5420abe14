package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Chats is the repository of chats and their messages.
type Chats struct {
	chats    *mongo.Collection
	messages *mongo.Collection
}

// NewChats wraps the chats and messages collections.
func NewChats(chats, messages *mongo.Collection) *Chats {
	return &Chats{chats: chats, messages: messages}
}

// History returns every chat userID takes part in, most recently updated
// first, with participants resolved and the latest message attached.
func (r *Chats) History(ctx context.Context, userID primitive.ObjectID) ([]ChatSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "participants", Value: userID}}}},
		{{Key: "$sort", Value: bson.D{{Key: "updatedAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: AccountsCollection},
			{Key: "localField", Value: "participants"},
			{Key: "foreignField", Value: "_id"},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$project", Value: bson.D{
					{Key: "name", Value: 1}, {Key: "anonymousName", Value: 1},
					{Key: "email", Value: 1}, {Key: "profilePic", Value: 1},
				}}},
			}},
			{Key: "as", Value: "participants"},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: MessagesCollection},
			{Key: "let", Value: bson.D{{Key: "chat", Value: "$_id"}}},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$match", Value: bson.D{{Key: "$expr", Value: bson.D{{Key: "$eq", Value: bson.A{"$chatId", "$$chat"}}}}}}},
				bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
				bson.D{{Key: "$limit", Value: 1}},
				bson.D{{Key: "$project", Value: bson.D{
					{Key: "content", Value: 1}, {Key: "sender", Value: 1}, {Key: "type", Value: 1},
					{Key: "sentAt", Value: 1}, {Key: "deliveredTo", Value: 1}, {Key: "seenBy", Value: 1},
				}}},
			}},
			{Key: "as", Value: "lastMessage"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$lastMessage"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}

	cur, err := r.chats.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	history := []ChatSummary{}
	if err := cur.All(ctx, &history); err != nil {
		return nil, fmt.Errorf("failed to decode chat history: %w", err)
	}
	return history, nil
}

// IsParticipant reports whether userID belongs to chatID.
func (r *Chats) IsParticipant(ctx context.Context, chatID, userID primitive.ObjectID) (bool, error) {
	n, err := r.chats.CountDocuments(ctx,
		bson.M{"_id": chatID, "participants": userID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check chat membership: %w", err)
	}
	return n > 0, nil
}

// Messages returns a page of the chat's messages, newest first, and the total count.
func (r *Chats) Messages(ctx context.Context, chatID primitive.ObjectID, page Page) ([]Message, int64, error) {
	filter := bson.M{"chatId": chatID}

	total, err := r.messages.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(page.skip()).
		SetLimit(int64(page.Size))
	cur, err := r.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	messages := []Message{}
	if err := cur.All(ctx, &messages); err != nil {
		return nil, 0, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, total, nil
}
