package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"noteblog/internal/feed"
)

var errShareLinkTaken = errors.New("share link taken")

type Repo struct {
	coll *mongo.Collection
}

func NewRepo(db *mongo.Database) *Repo {
	return &Repo{coll: db.Collection("notes")}
}

// EnsureIndexes creates necessary indexes for the notes collection
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "share_link", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "is_published", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "is_global", Value: 1}, {Key: "is_published", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "author", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "tags", Value: 1}},
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// Insert creates a new note
func (r *Repo) Insert(ctx context.Context, n *Note) error {
	n.ID = primitive.NewObjectID()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	n.UpdatedAt = n.CreatedAt
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if n.Likes == nil {
		n.Likes = []primitive.ObjectID{}
	}

	_, err := r.coll.InsertOne(ctx, n)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// populate joins the author's public profile and the category name/slug.
func populate() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "author"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "author_info"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$author_info"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "categories"},
			{Key: "localField", Value: "category"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "category_info"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$category_info"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "author_info.password", Value: 0},
			{Key: "author_info.email", Value: 0},
			{Key: "category_info.description", Value: 0},
			{Key: "category_info.created_by", Value: 0},
			{Key: "category_info.created_at", Value: 0},
			{Key: "category_info.updated_at", Value: 0},
		}}},
	}
}

func (r *Repo) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]*Note, error) {
	cursor, err := r.coll.Aggregate(ctx, append(pipeline, populate()...))
	if err != nil {
		return nil, fmt.Errorf("aggregate notes: %w", err)
	}
	defer cursor.Close(ctx)

	notes := []*Note{}
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	return notes, nil
}

// Find runs a feed plan: filter, newest first, one page, populated.
func (r *Repo) Find(ctx context.Context, plan feed.Plan) ([]*Note, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: plan.Filter}},
		{{Key: "$sort", Value: plan.Sort}},
		{{Key: "$skip", Value: plan.Skip}},
		{{Key: "$limit", Value: int64(plan.Limit)}},
	}
	return r.aggregate(ctx, pipeline)
}

// FindAll returns every note matching filter, newest first, populated.
func (r *Repo) FindAll(ctx context.Context, filter bson.D) ([]*Note, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
	}
	return r.aggregate(ctx, pipeline)
}

// FindOne returns the first note matching filter, populated.
func (r *Repo) FindOne(ctx context.Context, filter bson.D) (*Note, error) {
	notes, err := r.aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$limit", Value: 1}},
	})
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, ErrNoteNotFound
	}
	return notes[0], nil
}

// Count returns the number of notes matching filter
func (r *Repo) Count(ctx context.Context, filter bson.D) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}
	return count, nil
}

// FindByID retrieves a note by its ID without populating references
func (r *Repo) FindByID(ctx context.Context, id primitive.ObjectID) (*Note, error) {
	var note Note
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&note)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find note %s: %w", id.Hex(), err)
	}
	return &note, nil
}

// FindOwned retrieves a note only if author wrote it
func (r *Repo) FindOwned(ctx context.Context, id, author primitive.ObjectID) (*Note, error) {
	var note Note
	err := r.coll.FindOne(ctx, ownedFilter(id, author)).Decode(&note)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find note %s: %w", id.Hex(), err)
	}
	return &note, nil
}

func ownedFilter(id, author primitive.ObjectID) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "author", Value: author}}
}

// IncrementViews bumps the view counter of the note matching filter and
// returns its id.
func (r *Repo) IncrementViews(ctx context.Context, filter bson.D) (primitive.ObjectID, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: "_id", Value: 1}})

	var doc struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.D{{Key: "$inc", Value: bson.D{{Key: "views", Value: 1}}}}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return primitive.NilObjectID, ErrNoteNotFound
	}
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("increment views: %w", err)
	}
	return doc.ID, nil
}

// Update applies set to a note author owns
func (r *Repo) Update(ctx context.Context, id, author primitive.ObjectID, set bson.D) error {
	set = append(set, bson.E{Key: "updated_at", Value: time.Now()})
	result, err := r.coll.UpdateOne(ctx, ownedFilter(id, author), bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return fmt.Errorf("update note %s: %w", id.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// ToggleGlobal flips is_global in a single atomic update and returns the new value
func (r *Repo) ToggleGlobal(ctx context.Context, id, author primitive.ObjectID) (bool, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "is_global", Value: bson.D{{Key: "$not", Value: bson.A{"$is_global"}}}},
			{Key: "updated_at", Value: "$$NOW"},
		}}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: "is_global", Value: 1}})

	var doc struct {
		IsGlobal bool `bson:"is_global"`
	}
	err := r.coll.FindOneAndUpdate(ctx, ownedFilter(id, author), update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, ErrNoteNotFound
	}
	if err != nil {
		return false, fmt.Errorf("toggle global %s: %w", id.Hex(), err)
	}
	return doc.IsGlobal, nil
}

// SetLike adds or removes user from the note's likes and returns the new count
func (r *Repo) SetLike(ctx context.Context, id, user primitive.ObjectID, liked bool) (int, error) {
	op := "$pull"
	if liked {
		op = "$addToSet"
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: "likes", Value: 1}})

	var doc struct {
		Likes []primitive.ObjectID `bson:"likes"`
	}
	err := r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: op, Value: bson.D{{Key: "likes", Value: user}}}},
		opts,
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, ErrNoteNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("set like %s: %w", id.Hex(), err)
	}
	return len(doc.Likes), nil
}

// SetShareLink stores a share token on a note author owns
func (r *Repo) SetShareLink(ctx context.Context, id, author primitive.ObjectID, token string) error {
	err := r.Update(ctx, id, author, bson.D{{Key: "share_link", Value: token}})
	if mongo.IsDuplicateKeyError(err) {
		return errShareLinkTaken
	}
	return err
}

// DetachCategory clears category from every note filed under it
func (r *Repo) DetachCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	result, err := r.coll.UpdateMany(ctx,
		bson.D{{Key: "category", Value: categoryID}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "category", Value: nil}}}},
	)
	if err != nil {
		return 0, fmt.Errorf("detach category %s: %w", categoryID.Hex(), err)
	}
	return result.ModifiedCount, nil
}

// Delete removes a note author owns
func (r *Repo) Delete(ctx context.Context, id, author primitive.ObjectID) error {
	result, err := r.coll.DeleteOne(ctx, ownedFilter(id, author))
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}
