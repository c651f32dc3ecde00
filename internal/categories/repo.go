package categories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"noteblog/internal/db"
	"noteblog/internal/feed"
)

type Repo struct {
	coll *mongo.Collection
}

func NewRepo(database *mongo.Database) *Repo {
	return &Repo{coll: database.Collection("categories")}
}

// EnsureIndexes creates necessary indexes for the categories collection
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetCollation(db.CaseInsensitive()),
		},
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "created_by", Value: 1}, {Key: "name", Value: 1}},
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("create category indexes: %w", err)
	}
	return nil
}

// Insert creates a new category
func (r *Repo) Insert(ctx context.Context, c *Category) error {
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt

	_, err := r.coll.InsertOne(ctx, c)
	if mongo.IsDuplicateKeyError(err) {
		return ErrCategoryExists
	}
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// List returns categories sorted by name. A zero owner lists everyone's.
func (r *Repo) List(ctx context.Context, owner primitive.ObjectID) ([]*Category, error) {
	filter := bson.D{}
	if !owner.IsZero() {
		filter = append(filter, bson.E{Key: "created_by", Value: owner})
	}

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer cursor.Close(ctx)

	categories := []*Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return categories, nil
}

func (r *Repo) FindByID(ctx context.Context, id primitive.ObjectID) (*Category, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}}, nil)
}

func (r *Repo) FindBySlug(ctx context.Context, slug string) (*Category, error) {
	return r.findOne(ctx, bson.D{{Key: "slug", Value: slug}}, nil)
}

// FindByName looks a category up by name, ignoring case.
func (r *Repo) FindByName(ctx context.Context, name string) (*Category, error) {
	return r.findOne(ctx, bson.D{{Key: "name", Value: name}}, options.FindOne().SetCollation(db.CaseInsensitive()))
}

func (r *Repo) findOne(ctx context.Context, filter bson.D, opts *options.FindOneOptions) (*Category, error) {
	var c Category
	err := r.coll.FindOne(ctx, filter, opts).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	return &c, nil
}

// Update applies set to the category if owner created it.
func (r *Repo) Update(ctx context.Context, id, owner primitive.ObjectID, set bson.D) (*Category, error) {
	set = append(set, bson.E{Key: "updated_at", Value: time.Now()})
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var c Category
	err := r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "created_by", Value: owner}},
		bson.D{{Key: "$set", Value: set}},
		opts,
	).Decode(&c)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, ErrCategoryNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, ErrCategoryExists
	case err != nil:
		return nil, fmt.Errorf("update category %s: %w", id.Hex(), err)
	}
	return &c, nil
}

// Delete removes the category if owner created it.
func (r *Repo) Delete(ctx context.Context, id, owner primitive.ObjectID) error {
	result, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}, {Key: "created_by", Value: owner}})
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// IDBySlug resolves a category slug for feed queries.
func (r *Repo) IDBySlug(ctx context.Context, slug string) (primitive.ObjectID, error) {
	c, err := r.FindBySlug(ctx, slug)
	if errors.Is(err, ErrCategoryNotFound) {
		return primitive.NilObjectID, feed.ErrNotFound
	}
	if err != nil {
		return primitive.NilObjectID, err
	}
	return c.ID, nil
}

// IDsByName returns categories named name, ignoring case. A zero owner
// matches any creator.
func (r *Repo) IDsByName(ctx context.Context, name string, owner primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := bson.D{{Key: "name", Value: name}}
	if !owner.IsZero() {
		filter = append(filter, bson.E{Key: "created_by", Value: owner})
	}
	opts := options.Find().
		SetProjection(bson.D{{Key: "_id", Value: 1}}).
		SetCollation(db.CaseInsensitive())

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find categories by name: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode category ids: %w", err)
	}

	ids := make([]primitive.ObjectID, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}
