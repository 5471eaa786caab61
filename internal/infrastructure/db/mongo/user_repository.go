package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mediahub/account-service/internal/core/domain"
	"github.com/mediahub/account-service/internal/core/ports"
	"github.com/mediahub/account-service/internal/pkg/password"
)

const collectionUsers = "users"

// UserRepository persists users and their session anchor in a single collection.
// Every write touches exactly one document, so each is atomic on its own.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type mongoUser struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Username         string             `bson:"username"`
	Email            string             `bson:"email"`
	FullName         string             `bson:"full_name"`
	Avatar           string             `bson:"avatar"`
	CoverImage       string             `bson:"cover_image,omitempty"`
	PasswordHash     string             `bson:"password_hash"`
	RefreshTokenHash string             `bson:"refresh_token_hash,omitempty"`
	CreatedAt        time.Time          `bson:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at"`
}

func (m *mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:               m.ID.Hex(),
		Username:         m.Username,
		Email:            m.Email,
		FullName:         m.FullName,
		Avatar:           m.Avatar,
		CoverImage:       m.CoverImage,
		PasswordHash:     m.PasswordHash,
		RefreshTokenHash: m.RefreshTokenHash,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
}

// Create hashes the password and inserts the user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User, plaintext string) (*domain.User, error) {
	hash, err := password.Hash(plaintext)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	doc := mongoUser{
		Username:     user.Username,
		Email:        user.Email,
		FullName:     user.FullName,
		Avatar:       user.Avatar,
		CoverImage:   user.CoverImage,
		PasswordHash: hash,
		CreatedAt:    orNow(user.CreatedAt, now),
		UpdatedAt:    orNow(user.UpdatedAt, now),
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert user: unexpected id type %T", res.InsertedID)
	}
	doc.ID = id
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindByUsernameOrEmail matches either identifier. Callers pass normalized values.
func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error) {
	filter, ok := identityFilter(username, email)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, filter)
}

func (r *UserRepository) VerifyPassword(user *domain.User, plaintext string) bool {
	return password.Matches(user.PasswordHash, plaintext)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, plaintext string) error {
	hash, err := password.Hash(plaintext)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{
		"password_hash": hash,
		"updated_at":    time.Now().UTC(),
	}})
}

// SetRefreshToken overwrites the session anchor; an empty hash removes the field.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id, tokenHash string) error {
	return r.updateByID(ctx, id, anchorUpdate(tokenHash, time.Now().UTC()))
}

// RotateRefreshToken is a compare-and-swap on the session anchor. The filter
// only matches while the stored hash still equals expectedHash.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, id, expectedHash, nextHash string) error {
	if expectedHash == "" {
		return domain.ErrTokenMismatch
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "refresh_token_hash": expectedHash},
		bson.M{"$set": bson.M{"refresh_token_hash": nextHash, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return domain.ErrTokenMismatch
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, update ports.ProfileUpdate) (*domain.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if update.Username != nil {
		set["username"] = *update.Username
	}
	if update.FullName != nil {
		set["full_name"] = *update.FullName
	}
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *UserRepository) UpdateAssetReference(ctx context.Context, id string, kind domain.AssetKind, url string) (*domain.User, error) {
	field, err := assetField(kind)
	if err != nil {
		return nil, err
	}
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{
		field:        url,
		"updated_at": time.Now().UTC(),
	}})
}

// EnsureIndexes creates the unique identity indexes on the users collection.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoUser
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) findOneAndUpdate(ctx context.Context, id string, update bson.M) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc mongoUser
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, domain.ErrUserNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) updateByID(ctx context.Context, id string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// identityFilter builds an $or over the non-empty identifiers.
func identityFilter(username, email string) (bson.M, bool) {
	var or bson.A
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return nil, false
	}
	return bson.M{"$or": or}, true
}

func anchorUpdate(tokenHash string, now time.Time) bson.M {
	if tokenHash == "" {
		return bson.M{
			"$unset": bson.M{"refresh_token_hash": ""},
			"$set":   bson.M{"updated_at": now},
		}
	}
	return bson.M{"$set": bson.M{"refresh_token_hash": tokenHash, "updated_at": now}}
}

func assetField(kind domain.AssetKind) (string, error) {
	switch kind {
	case domain.AssetAvatar:
		return "avatar", nil
	case domain.AssetCoverImage:
		return "cover_image", nil
	}
	return "", fmt.Errorf("unknown asset kind %q", kind)
}

func orNow(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t.UTC()
}
