package api

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/virevo/virevo/internal/mongodb"
)

type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) account(args mock.Arguments) (*mongodb.Account, error) {
	acc, _ := args.Get(0).(*mongodb.Account)
	return acc, args.Error(1)
}

func (m *MockAccounts) FindByEmail(ctx context.Context, email string) (*mongodb.Account, error) {
	return m.account(m.Called(ctx, email))
}

func (m *MockAccounts) FindByID(ctx context.Context, id string) (*mongodb.Account, error) {
	return m.account(m.Called(ctx, id))
}

func (m *MockAccounts) EmailTaken(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccounts) AnonymousNameTaken(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccounts) Create(ctx context.Context, acc *mongodb.Account) error {
	return m.Called(ctx, acc).Error(0)
}

func (m *MockAccounts) SetPasswordByEmail(ctx context.Context, email, hash string) error {
	return m.Called(ctx, email, hash).Error(0)
}

func (m *MockAccounts) SetPasswordByID(ctx context.Context, id primitive.ObjectID, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *MockAccounts) LinkGoogle(ctx context.Context, id primitive.ObjectID, googleID string) error {
	return m.Called(ctx, id, googleID).Error(0)
}

func (m *MockAccounts) UpdateProfile(ctx context.Context, id primitive.ObjectID, u mongodb.ProfileUpdate) (*mongodb.Account, error) {
	return m.account(m.Called(ctx, id, u))
}

func (m *MockAccounts) List(ctx context.Context, page mongodb.Page, exclude primitive.ObjectID) ([]mongodb.Account, int64, error) {
	args := m.Called(ctx, page, exclude)
	accounts, _ := args.Get(0).([]mongodb.Account)
	return accounts, args.Get(1).(int64), args.Error(2)
}

func (m *MockAccounts) CountByRole(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).(map[string]int64)
	return counts, args.Error(1)
}

type MockChats struct {
	mock.Mock
}

func (m *MockChats) History(ctx context.Context, userID primitive.ObjectID) ([]mongodb.ChatSummary, error) {
	args := m.Called(ctx, userID)
	history, _ := args.Get(0).([]mongodb.ChatSummary)
	return history, args.Error(1)
}

func (m *MockChats) IsParticipant(ctx context.Context, chatID, userID primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockChats) Messages(ctx context.Context, chatID primitive.ObjectID, page mongodb.Page) ([]mongodb.Message, int64, error) {
	args := m.Called(ctx, chatID, page)
	messages, _ := args.Get(0).([]mongodb.Message)
	return messages, args.Get(1).(int64), args.Error(2)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendOTP(ctx context.Context, to, code string) error {
	return m.Called(ctx, to, code).Error(0)
}
