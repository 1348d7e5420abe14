package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account roles.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleExpert     = "expert"
	RoleUser       = "user"
)

// Account is a community web user. Password holds the bcrypt hash and is
// never serialized to JSON.
type Account struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"           json:"_id"`
	Email           string             `bson:"email"                   json:"email"`
	Password        string             `bson:"password,omitempty"      json:"-"`
	GoogleID        string             `bson:"googleId,omitempty"      json:"googleId,omitempty"`
	Name            string             `bson:"name,omitempty"          json:"name,omitempty"`
	AnonymousName   string             `bson:"anonymousName"           json:"anonymousName"`
	Role            string             `bson:"role"                    json:"role"`
	IsAnonymous     bool               `bson:"isAnonymous"             json:"isAnonymous"`
	ProfilePic      string             `bson:"profilePic,omitempty"    json:"profilePic,omitempty"`
	PhoneNumber     string             `bson:"phoneNumber,omitempty"   json:"phoneNumber,omitempty"`
	Bio             string             `bson:"bio,omitempty"           json:"bio,omitempty"`
	Interests       []string           `bson:"interests"               json:"interests"`
	ExpertDetails   *ExpertDetails     `bson:"expertDetails,omitempty" json:"expertDetails,omitempty"`
	WalletBalance   float64            `bson:"walletBalance"           json:"walletBalance"`
	PrivacySettings PrivacySettings    `bson:"privacySettings"         json:"privacySettings"`
	Rating          Rating             `bson:"rating"                  json:"rating"`
	Notifications   []Notification     `bson:"notifications"           json:"notifications"`
	CreatedAt       time.Time          `bson:"createdAt"               json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"               json:"updatedAt"`
}

type ExpertDetails struct {
	Expertise       []string `bson:"expertise"       json:"expertise"`
	ExperienceYears int      `bson:"experienceYears" json:"experienceYears"`
	ConsultationFee float64  `bson:"consultationFee" json:"consultationFee"`
	Ratings         float64  `bson:"ratings"         json:"ratings"`
}

type PrivacySettings struct {
	ShowProfile      bool `bson:"showProfile"      json:"showProfile"`
	ShowLastSeen     bool `bson:"showLastSeen"     json:"showLastSeen"`
	ShowOnlineStatus bool `bson:"showOnlineStatus" json:"showOnlineStatus"`
}

type Rating struct {
	TotalPoints int                  `bson:"totalPoints" json:"totalPoints"`
	RatedBy     []primitive.ObjectID `bson:"ratedBy"     json:"ratedBy"`
}

type Notification struct {
	Type      string    `bson:"type"      json:"type"`
	Read      bool      `bson:"read"      json:"read"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// NewAccount returns an account with the default role and settings.
func NewAccount(email, anonymousName, passwordHash string, now time.Time) *Account {
	return &Account{
		Email:         email,
		Password:      passwordHash,
		AnonymousName: anonymousName,
		Role:          RoleUser,
		IsAnonymous:   true,
		Interests:     []string{},
		PrivacySettings: PrivacySettings{
			ShowProfile:      true,
			ShowLastSeen:     true,
			ShowOnlineStatus: true,
		},
		Rating:        Rating{RatedBy: []primitive.ObjectID{}},
		Notifications: []Notification{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ProfileUpdate lists the fields a user may change on their own profile.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Name            *string          `json:"name"`
	Bio             *string          `json:"bio"`
	PhoneNumber     *string          `json:"phoneNumber"`
	ProfilePic      *string          `json:"profilePic"`
	Interests       []string         `json:"interests"`
	IsAnonymous     *bool            `json:"isAnonymous"`
	PrivacySettings *PrivacySettings `json:"privacySettings"`
}

// Chat types.
const (
	ChatOneToOne = "one_to_one"
	ChatGroup    = "group"
)

type Chat struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty"             json:"_id"`
	Type            string               `bson:"type"                      json:"type"`
	Participants    []primitive.ObjectID `bson:"participants"              json:"participants"`
	GroupName       string               `bson:"groupName,omitempty"       json:"groupName,omitempty"`
	GroupPic        string               `bson:"groupPic,omitempty"        json:"groupPic,omitempty"`
	IsPrivate       bool                 `bson:"isPrivate"                 json:"isPrivate"`
	IsPremium       bool                 `bson:"isPremium"                 json:"isPremium"`
	ConsultationFee float64              `bson:"consultationFee"           json:"consultationFee"`
	BackgroundImage string               `bson:"backgroundImage,omitempty" json:"backgroundImage,omitempty"`
	CreatedAt       time.Time            `bson:"createdAt"                 json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt"                 json:"updatedAt"`
}

// Participant is the public projection of an account inside a chat.
type Participant struct {
	ID            primitive.ObjectID `bson:"_id"                  json:"_id"`
	Name          string             `bson:"name,omitempty"       json:"name,omitempty"`
	AnonymousName string             `bson:"anonymousName"        json:"anonymousName"`
	Email         string             `bson:"email"                json:"email"`
	ProfilePic    string             `bson:"profilePic,omitempty" json:"profilePic,omitempty"`
}

// ChatSummary is a chat with its participants resolved and its latest message.
type ChatSummary struct {
	ID              primitive.ObjectID `bson:"_id"                       json:"_id"`
	Type            string             `bson:"type"                      json:"type"`
	Participants    []Participant      `bson:"participants"              json:"participants"`
	GroupName       string             `bson:"groupName,omitempty"       json:"groupName"`
	GroupPic        string             `bson:"groupPic,omitempty"        json:"groupPic"`
	IsPrivate       bool               `bson:"isPrivate"                 json:"isPrivate"`
	IsPremium       bool               `bson:"isPremium"                 json:"isPremium"`
	ConsultationFee float64            `bson:"consultationFee"           json:"consultationFee"`
	BackgroundImage string             `bson:"backgroundImage,omitempty" json:"backgroundImage"`
	CreatedAt       time.Time          `bson:"createdAt"                 json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"                 json:"updatedAt"`
	LastMessage     *LastMessage       `bson:"lastMessage,omitempty"     json:"lastMessage"`
}

type LastMessage struct {
	Content     string             `bson:"content"     json:"content"`
	Sender      primitive.ObjectID `bson:"sender"      json:"sender"`
	Type        string             `bson:"type"        json:"type"`
	SentAt      time.Time          `bson:"sentAt"      json:"sentAt"`
	DeliveredTo []Delivery         `bson:"deliveredTo" json:"deliveredTo"`
	SeenBy      []Seen             `bson:"seenBy"      json:"seenBy"`
}

// Message types.
const (
	MessageText        = "text"
	MessageImage       = "image"
	MessageVideo       = "video"
	MessageAudio       = "audio"
	MessageSystem      = "system"
	MessageScratchCard = "scratch_card"
	MessageOneTimeView = "one_time_view"
	MessagePoll        = "poll"
)

type Message struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty"          json:"_id"`
	ChatID       primitive.ObjectID  `bson:"chatId"                 json:"chatId"`
	Sender       primitive.ObjectID  `bson:"sender"                 json:"sender"`
	Type         string              `bson:"type"                   json:"type"`
	Content      string              `bson:"content,omitempty"      json:"content,omitempty"`
	MediaURL     string              `bson:"mediaUrl,omitempty"     json:"mediaUrl,omitempty"`
	Reactions    []Reaction          `bson:"reactions"              json:"reactions"`
	ReplyTo      *primitive.ObjectID `bson:"replyTo,omitempty"      json:"replyTo,omitempty"`
	ScheduledAt  *time.Time          `bson:"scheduledAt,omitempty"  json:"scheduledAt,omitempty"`
	AutoDeleteAt *time.Time          `bson:"autoDeleteAt,omitempty" json:"autoDeleteAt,omitempty"`
	SentAt       time.Time           `bson:"sentAt"                 json:"sentAt"`
	DeliveredTo  []Delivery          `bson:"deliveredTo"            json:"deliveredTo"`
	SeenBy       []Seen              `bson:"seenBy"                 json:"seenBy"`
	CreatedAt    time.Time           `bson:"createdAt"              json:"createdAt"`
}

type Reaction struct {
	Emoji string               `bson:"emoji" json:"emoji"`
	Users []primitive.ObjectID `bson:"users" json:"users"`
}

type Delivery struct {
	UserID      primitive.ObjectID `bson:"userId"      json:"userId"`
	DeliveredAt time.Time          `bson:"deliveredAt" json:"deliveredAt"`
}

type Seen struct {
	UserID primitive.ObjectID `bson:"userId" json:"userId"`
	SeenAt time.Time          `bson:"seenAt" json:"seenAt"`
}

// Page selects a 1-based page of results.
type Page struct {
	Number int
	Size   int
}

func (p Page) skip() int64 {
	if p.Number < 1 {
		return 0
	}
	return int64(p.Number-1) * int64(p.Size)
}
