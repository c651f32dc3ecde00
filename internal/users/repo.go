package users

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"noteblog/internal/db"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

type Repo struct {
	coll *mongo.Collection
}

func NewRepo(database *mongo.Database) *Repo {
	return &Repo{coll: database.Collection("users")}
}

// EnsureIndexes creates the case-insensitive name indexes used by lookups.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetCollation(db.CaseInsensitive()),
		},
		{
			Keys:    bson.D{{Key: "display_name", Value: 1}},
			Options: options.Index().SetCollation(db.CaseInsensitive()),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func projection() bson.D {
	p := bson.D{}
	for _, f := range publicFields {
		p = append(p, bson.E{Key: f, Value: 1})
	}
	return p
}

// FindByID retrieves a user by id.
func (r *Repo) FindByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}}, options.FindOne().SetProjection(projection()))
}

// FindByUsername retrieves a user by username, ignoring case.
func (r *Repo) FindByUsername(ctx context.Context, username string) (*User, error) {
	opts := options.FindOne().
		SetProjection(projection()).
		SetCollation(db.CaseInsensitive())
	return r.findOne(ctx, bson.D{{Key: "username", Value: username}}, opts)
}

func (r *Repo) findOne(ctx context.Context, filter bson.D, opts *options.FindOneOptions) (*User, error) {
	var u User
	err := r.coll.FindOne(ctx, filter, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// IDsByName returns users whose username or display name equals name,
// ignoring case. The comparison is an equality under collation, so name is
// never interpreted as a pattern.
func (r *Repo) IDsByName(ctx context.Context, name string) ([]primitive.ObjectID, error) {
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "username", Value: name}},
		bson.D{{Key: "display_name", Value: name}},
	}}}
	opts := options.Find().
		SetProjection(bson.D{{Key: "_id", Value: 1}}).
		SetCollation(db.CaseInsensitive())

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find users by name: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode user ids: %w", err)
	}

	ids := make([]primitive.ObjectID, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}
