package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func ns(mt *mtest.T, coll string) string {
	return mt.DB.Name() + "." + coll
}

func TestAccountsFindByEmail(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	id := primitive.NewObjectID()

	mt.Run("found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, AccountsCollection), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "email", Value: "ada@example.com"},
			{Key: "password", Value: "hash"},
			{Key: "anonymousName", Value: "quiet-fox"},
			{Key: "role", Value: RoleUser},
		}))

		acc, err := NewAccounts(mt.DB.Collection(AccountsCollection)).FindByEmail(context.Background(), "ada@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, id, acc.ID)
		assert.Equal(mt, "quiet-fox", acc.AnonymousName)
		assert.Equal(mt, "hash", acc.Password)
	})

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, AccountsCollection), mtest.FirstBatch))

		_, err := NewAccounts(mt.DB.Collection(AccountsCollection)).FindByEmail(context.Background(), "nobody@example.com")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		_, err := NewAccounts(mt.DB.Collection(AccountsCollection)).FindByID(context.Background(), "not-hex")
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestAccountsCreate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("assigns id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		acc := NewAccount("ada@example.com", "quiet-fox", "hash", time.Now())
		require.NoError(mt, NewAccounts(mt.DB.Collection(AccountsCollection)).Create(context.Background(), acc))
		assert.False(mt, acc.ID.IsZero())
	})

	mt.Run("duplicate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error",
		}))

		acc := NewAccount("ada@example.com", "quiet-fox", "hash", time.Now())
		err := NewAccounts(mt.DB.Collection(AccountsCollection)).Create(context.Background(), acc)
		assert.ErrorIs(mt, err, ErrDuplicate)
	})
}

func TestAccountsSetPassword(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("matched", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		err := NewAccounts(mt.DB.Collection(AccountsCollection)).SetPasswordByEmail(context.Background(), "ada@example.com", "new")
		assert.NoError(mt, err)
	})

	mt.Run("no account", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		err := NewAccounts(mt.DB.Collection(AccountsCollection)).SetPasswordByID(context.Background(), primitive.NewObjectID(), "new")
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestAccountsUpdateProfile(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns updated document", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{
				{Key: "_id", Value: id},
				{Key: "email", Value: "ada@example.com"},
				{Key: "bio", Value: "hello"},
			}},
		})

		bio := "hello"
		acc, err := NewAccounts(mt.DB.Collection(AccountsCollection)).UpdateProfile(context.Background(), id, ProfileUpdate{Bio: &bio})
		require.NoError(mt, err)
		assert.Equal(mt, "hello", acc.Bio)
	})
}

func TestAccountsList(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("page with total", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt, AccountsCollection), mtest.FirstBatch, bson.D{{Key: "n", Value: 12}}),
			mtest.CreateCursorResponse(0, ns(mt, AccountsCollection), mtest.FirstBatch,
				bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "email", Value: "a@example.com"}},
				bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "email", Value: "b@example.com"}},
			),
		)

		accounts, total, err := NewAccounts(mt.DB.Collection(AccountsCollection)).List(context.Background(), Page{Number: 2, Size: 2}, primitive.NewObjectID())
		require.NoError(mt, err)
		assert.Equal(mt, int64(12), total)
		require.Len(mt, accounts, 2)
		assert.Equal(mt, "b@example.com", accounts[1].Email)
	})
}

func TestAccountsCountByRole(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("fills missing roles", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, AccountsCollection), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: RoleUser}, {Key: "count", Value: int64(40)}},
			bson.D{{Key: "_id", Value: RoleExpert}, {Key: "count", Value: int64(3)}},
		))

		counts, err := NewAccounts(mt.DB.Collection(AccountsCollection)).CountByRole(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, map[string]int64{
			RoleSuperAdmin: 0, RoleAdmin: 0, RoleExpert: 3, RoleUser: 40,
		}, counts)
	})
}

func TestChatsHistory(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes summaries", func(mt *mtest.T) {
		chatID := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, ChatsCollection), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: chatID},
			{Key: "type", Value: ChatOneToOne},
			{Key: "participants", Value: bson.A{
				bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "anonymousName", Value: "quiet-fox"}},
			}},
			{Key: "lastMessage", Value: bson.D{{Key: "content", Value: "hey"}, {Key: "type", Value: MessageText}}},
		}))

		chats := NewChats(mt.DB.Collection(ChatsCollection), mt.DB.Collection(MessagesCollection))
		history, err := chats.History(context.Background(), primitive.NewObjectID())
		require.NoError(mt, err)
		require.Len(mt, history, 1)
		assert.Equal(mt, chatID, history[0].ID)
		assert.Equal(mt, "quiet-fox", history[0].Participants[0].AnonymousName)
		require.NotNil(mt, history[0].LastMessage)
		assert.Equal(mt, "hey", history[0].LastMessage.Content)
	})

	mt.Run("empty", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, ChatsCollection), mtest.FirstBatch))

		chats := NewChats(mt.DB.Collection(ChatsCollection), mt.DB.Collection(MessagesCollection))
		history, err := chats.History(context.Background(), primitive.NewObjectID())
		require.NoError(mt, err)
		assert.NotNil(mt, history)
		assert.Empty(mt, history)
	})
}

func TestChatsMessages(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("membership and page", func(mt *mtest.T) {
		chatID := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt, ChatsCollection), mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
			mtest.CreateCursorResponse(0, ns(mt, MessagesCollection), mtest.FirstBatch, bson.D{{Key: "n", Value: 31}}),
			mtest.CreateCursorResponse(0, ns(mt, MessagesCollection), mtest.FirstBatch,
				bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "chatId", Value: chatID}, {Key: "content", Value: "latest"}},
			),
		)

		chats := NewChats(mt.DB.Collection(ChatsCollection), mt.DB.Collection(MessagesCollection))
		ok, err := chats.IsParticipant(context.Background(), chatID, primitive.NewObjectID())
		require.NoError(mt, err)
		assert.True(mt, ok)

		msgs, total, err := chats.Messages(context.Background(), chatID, Page{Number: 1, Size: 30})
		require.NoError(mt, err)
		assert.Equal(mt, int64(31), total)
		require.Len(mt, msgs, 1)
		assert.Equal(mt, "latest", msgs[0].Content)
	})
}

func TestPageSkip(t *testing.T) {
	t.Parallel()
	assert.Equal(t, int64(0), Page{Number: 0, Size: 10}.skip())
	assert.Equal(t, int64(0), Page{Number: 1, Size: 10}.skip())
	assert.Equal(t, int64(20), Page{Number: 3, Size: 10}.skip())
}
