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

	"github.com/propertyhub/rental-api/internal/core/domain"
)

// ActorRepository stores one actor kind in its own collection.
type ActorRepository struct {
	coll *mongo.Collection
	kind domain.ActorKind
	now  func() time.Time
}

func NewActorRepository(db *mongo.Database, desc domain.KindDescriptor) *ActorRepository {
	return &ActorRepository{coll: db.Collection(desc.Collection), kind: desc.Kind, now: time.Now}
}

type mongoActor struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty"`
	UserName      string              `bson:"user_name"`
	Email         string              `bson:"email"`
	PasswordHash  string              `bson:"password_hash,omitempty"`
	Role          string              `bson:"role,omitempty"`
	RoleID        *primitive.ObjectID `bson:"role_id,omitempty"`
	Avatar        string              `bson:"avatar,omitempty"`
	ExternalIDs   map[string]string   `bson:"external_ids,omitempty"`
	TermsAccepted bool                `bson:"terms_accepted"`
	Disabled      bool                `bson:"disabled"`

	RefreshToken         *string    `bson:"refresh_token"`
	PasswordResetToken   *string    `bson:"password_reset_token"`
	PasswordResetExpires *time.Time `bson:"password_reset_expires"`

	Deleted   bool       `bson:"deleted"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

func (m *mongoActor) toDomain(kind domain.ActorKind) *domain.Actor {
	a := &domain.Actor{
		ID:            m.ID.Hex(),
		Kind:          kind,
		UserName:      m.UserName,
		Email:         m.Email,
		PasswordHash:  m.PasswordHash,
		Role:          m.Role,
		Avatar:        m.Avatar,
		ExternalIDs:   m.ExternalIDs,
		TermsAccepted: m.TermsAccepted,
		Disabled:      m.Disabled,
		Deleted:       m.Deleted,
		DeletedAt:     m.DeletedAt,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
	if m.RoleID != nil {
		a.RoleID = m.RoleID.Hex()
	}
	if m.RefreshToken != nil {
		a.RefreshToken = *m.RefreshToken
	}
	if m.PasswordResetToken != nil {
		a.PasswordResetToken = *m.PasswordResetToken
	}
	if m.PasswordResetExpires != nil {
		a.PasswordResetExpires = m.PasswordResetExpires.UTC()
	}
	return a
}

func (r *ActorRepository) FindByEmail(ctx context.Context, email string) (*domain.Actor, error) {
	return r.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (r *ActorRepository) FindByID(ctx context.Context, id string) (*domain.Actor, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *ActorRepository) FindByRefreshToken(ctx context.Context, token string) (*domain.Actor, error) {
	if token == "" {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, bson.M{"refresh_token": token})
}

func (r *ActorRepository) FindByExternalID(ctx context.Context, provider, subject string) (*domain.Actor, error) {
	if subject == "" {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, bson.M{"external_ids." + provider: subject})
}

func (r *ActorRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.Actor, error) {
	return r.findOne(ctx, bson.M{
		"password_reset_token":   tokenHash,
		"password_reset_expires": bson.M{"$gt": now},
	})
}

func (r *ActorRepository) Create(ctx context.Context, actor *domain.Actor) (*domain.Actor, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := r.now().UTC()
	doc := mongoActor{
		UserName:      actor.UserName,
		Email:         domain.NormalizeEmail(actor.Email),
		PasswordHash:  actor.PasswordHash,
		Role:          actor.Role,
		Avatar:        actor.Avatar,
		ExternalIDs:   actor.ExternalIDs,
		TermsAccepted: actor.TermsAccepted,
		Disabled:      actor.Disabled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if actor.RoleID != "" {
		rid, err := primitive.ObjectIDFromHex(actor.RoleID)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed role id", domain.ErrValidation)
		}
		doc.RoleID = &rid
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateAccount
		}
		return nil, fmt.Errorf("insert %s: %w", r.kind, err)
	}
	doc.ID, _ = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(r.kind), nil
}

func (r *ActorRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	return r.updateByID(ctx, id, nil, bson.M{"refresh_token": token})
}

func (r *ActorRepository) ClearRefreshToken(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrAccountNotFound
	}
	return r.update(ctx, bson.M{"refresh_token": token}, bson.M{"refresh_token": nil})
}

func (r *ActorRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updateByID(ctx, id, nil, bson.M{"password_hash": passwordHash})
}

func (r *ActorRepository) SetPasswordReset(ctx context.Context, id, tokenHash string, expires time.Time) error {
	return r.updateByID(ctx, id, nil, bson.M{
		"password_reset_token":   tokenHash,
		"password_reset_expires": expires.UTC(),
	})
}

func (r *ActorRepository) ClearPasswordReset(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, nil, bson.M{
		"password_reset_token":   nil,
		"password_reset_expires": nil,
	})
}

func (r *ActorRepository) CompletePasswordReset(ctx context.Context, id, tokenHash, passwordHash string, now time.Time) error {
	return r.updateByID(ctx, id, bson.M{
		"password_reset_token":   tokenHash,
		"password_reset_expires": bson.M{"$gt": now},
	}, bson.M{
		"password_hash":          passwordHash,
		"password_reset_token":   nil,
		"password_reset_expires": nil,
		"refresh_token":          nil,
	})
}

func (r *ActorRepository) LinkProvider(ctx context.Context, id, provider, subject, avatar string) error {
	set := bson.M{"external_ids." + provider: subject}
	if avatar != "" {
		set["avatar"] = avatar
	}
	err := r.updateByID(ctx, id, nil, set)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateAccount
	}
	return err
}

func (r *ActorRepository) SetAvatar(ctx context.Context, id, avatar string) error {
	return r.updateByID(ctx, id, nil, bson.M{"avatar": avatar})
}

func (r *ActorRepository) SetDisabled(ctx context.Context, id string, disabled bool) error {
	set := bson.M{"disabled": disabled}
	if disabled {
		set["refresh_token"] = nil
	}
	return r.updateByID(ctx, id, nil, set)
}

func (r *ActorRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return r.updateByID(ctx, id, nil, bson.M{
		"deleted":       true,
		"deleted_at":    at.UTC(),
		"refresh_token": nil,
	})
}

// EnsureIndexes creates the unique indexes the session invariants rely on.
// Partial filters let soft-deleted and signed-out actors coexist.
func (r *ActorRepository) EnsureIndexes(ctx context.Context, providers []string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	stringOnly := func(field string) bson.M {
		return bson.M{field: bson.M{"$type": "string"}}
	}

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_active_unique").SetUnique(true).
				SetPartialFilterExpression(bson.M{"deleted": false}),
		},
		{
			Keys: bson.D{{Key: "refresh_token", Value: 1}},
			Options: options.Index().SetName("refresh_token_unique").SetUnique(true).
				SetPartialFilterExpression(stringOnly("refresh_token")),
		},
		{
			Keys: bson.D{{Key: "password_reset_token", Value: 1}},
			Options: options.Index().SetName("password_reset_token").
				SetPartialFilterExpression(stringOnly("password_reset_token")),
		},
	}
	for _, p := range providers {
		field := "external_ids." + p
		indexes = append(indexes, mongo.IndexModel{
			Keys: bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetName(p + "_id_unique").SetUnique(true).
				SetPartialFilterExpression(stringOnly(field)),
		})
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create %s indexes: %w", r.kind, err)
	}
	return nil
}

func (r *ActorRepository) findOne(ctx context.Context, filter bson.M) (*domain.Actor, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter["deleted"] = false
	var m mongoActor
	if err := r.coll.FindOne(ctx, filter).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find %s: %w", r.kind, err)
	}
	return m.toDomain(r.kind), nil
}

func (r *ActorRepository) updateByID(ctx context.Context, id string, extra bson.M, set bson.M) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": oid}
	for k, v := range extra {
		filter[k] = v
	}
	return r.update(ctx, filter, set)
}

// update applies set to the single live document matching filter. A miss is
// reported as domain.ErrAccountNotFound.
func (r *ActorRepository) update(ctx context.Context, filter, set bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter["deleted"] = false
	set["updated_at"] = r.now().UTC()

	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return err
		}
		return fmt.Errorf("update %s: %w", r.kind, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: malformed id %q", domain.ErrValidation, id)
	}
	return oid, nil
}
