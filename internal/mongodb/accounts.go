package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Accounts is the repository of web accounts.
type Accounts struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewAccounts wraps the accounts collection.
func NewAccounts(coll *mongo.Collection) *Accounts {
	return &Accounts{coll: coll, now: func() time.Time { return time.Now().UTC() }}
}

// FindByEmail returns the account with email or ErrNotFound.
func (r *Accounts) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByID returns the account with the given hex id or ErrNotFound.
func (r *Accounts) FindByID(ctx context.Context, id string) (*Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// EmailTaken reports whether an account uses email.
func (r *Accounts) EmailTaken(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.M{"email": email})
}

// AnonymousNameTaken reports whether an account uses name.
func (r *Accounts) AnonymousNameTaken(ctx context.Context, name string) (bool, error) {
	return r.exists(ctx, bson.M{"anonymousName": name})
}

// Create inserts acc and sets its ID. A unique index violation returns ErrDuplicate.
func (r *Accounts) Create(ctx context.Context, acc *Account) error {
	res, err := r.coll.InsertOne(ctx, acc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		acc.ID = oid
	}
	return nil
}

// SetPasswordByEmail replaces the password hash of the account with email.
func (r *Accounts) SetPasswordByEmail(ctx context.Context, email, hash string) error {
	return r.updateOne(ctx, bson.M{"email": email}, bson.M{"password": hash})
}

// SetPasswordByID replaces the password hash of the account with id.
func (r *Accounts) SetPasswordByID(ctx context.Context, id primitive.ObjectID, hash string) error {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{"password": hash})
}

// LinkGoogle records the Google subject of an existing account.
func (r *Accounts) LinkGoogle(ctx context.Context, id primitive.ObjectID, googleID string) error {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{"googleId": googleID})
}

// UpdateProfile applies u and returns the updated account.
func (r *Accounts) UpdateProfile(ctx context.Context, id primitive.ObjectID, u ProfileUpdate) (*Account, error) {
	set := bson.M{"updatedAt": r.now()}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Bio != nil {
		set["bio"] = *u.Bio
	}
	if u.PhoneNumber != nil {
		set["phoneNumber"] = *u.PhoneNumber
	}
	if u.ProfilePic != nil {
		set["profilePic"] = *u.ProfilePic
	}
	if u.Interests != nil {
		set["interests"] = u.Interests
	}
	if u.IsAnonymous != nil {
		set["isAnonymous"] = *u.IsAnonymous
	}
	if u.PrivacySettings != nil {
		set["privacySettings"] = *u.PrivacySettings
	}

	var acc Account
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&acc)
	if err != nil {
		return nil, notFound(err)
	}
	return &acc, nil
}

// List returns a page of accounts, newest first, skipping exclude if set,
// along with the total number of matching accounts.
func (r *Accounts) List(ctx context.Context, page Page, exclude primitive.ObjectID) ([]Account, int64, error) {
	filter := bson.M{}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count accounts: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(page.skip()).
		SetLimit(int64(page.Size)).
		SetProjection(bson.M{"password": 0})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list accounts: %w", err)
	}
	accounts := []Account{}
	if err := cur.All(ctx, &accounts); err != nil {
		return nil, 0, fmt.Errorf("failed to decode accounts: %w", err)
	}
	return accounts, total, nil
}

// CountByRole returns the number of accounts per role.
func (r *Accounts) CountByRole(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$role"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count accounts by role: %w", err)
	}
	var rows []struct {
		Role  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode role counts: %w", err)
	}

	counts := map[string]int64{RoleSuperAdmin: 0, RoleAdmin: 0, RoleExpert: 0, RoleUser: 0}
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}

func (r *Accounts) findOne(ctx context.Context, filter bson.M) (*Account, error) {
	var acc Account
	if err := r.coll.FindOne(ctx, filter).Decode(&acc); err != nil {
		if err = notFound(err); err == ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return &acc, nil
}

func (r *Accounts) exists(ctx context.Context, filter bson.M) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check account: %w", err)
	}
	return n > 0, nil
}

func (r *Accounts) updateOne(ctx context.Context, filter, set bson.M) error {
	set["updatedAt"] = r.now()
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
