package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/repository"
)

type postRepository struct {
	coll *mongo.Collection
}

var _ domain.PostRepository = (*postRepository)(nil)

func NewPostRepository(db *mongo.Database) *postRepository {
	return &postRepository{coll: db.Collection(postsCollection)}
}

func decodePosts(ctx context.Context, cur *mongo.Cursor) ([]domain.Post, error) {
	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	res := make([]domain.Post, len(docs))
	for i := range docs {
		res[i] = docs[i].toDomain()
	}
	return res, nil
}

func (r *postRepository) Fetch(ctx context.Context, skip, limit int64) ([]domain.Post, error) {
	skip, limit = repository.PageBounds(skip, limit)

	filter := bson.M{
		"status":              domain.PostPublished,
		"metadata.visibility": bson.M{"$ne": domain.VisibilityPrivate},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodePosts(ctx, cur)
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (domain.Post, error) {
	var doc postDoc
	err := r.coll.FindOne(ctx, bson.M{"slug": slug, "status": bson.M{"$ne": domain.PostDeleted}}).Decode(&doc)
	if err != nil {
		return domain.Post{}, translateError(err)
	}
	return doc.toDomain(), nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (domain.Post, error) {
	oid, ok := objectID(id)
	if !ok {
		return domain.Post{}, domain.ErrNotFound
	}
	var doc postDoc
	if err := r.coll.FindOne(ctx, livePostFilter(oid)).Decode(&doc); err != nil {
		return domain.Post{}, translateError(err)
	}
	return doc.toDomain(), nil
}

func (r *postRepository) Store(ctx context.Context, p *domain.Post) error {
	now := repository.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.CreatedAt = repository.Normalize(p.CreatedAt)
	p.UpdatedAt = now

	doc := newPostDoc(p)
	doc.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return translateError(err)
	}
	p.ID = doc.ID.Hex()
	return nil
}

func (r *postRepository) Update(ctx context.Context, p *domain.Post) error {
	oid, ok := objectID(p.ID)
	if !ok {
		return domain.ErrNotFound
	}

	doc := newPostDoc(p)
	update := bson.M{"$set": bson.M{
		"title":      doc.Title,
		"content":    doc.Content,
		"status":     doc.Status,
		"metadata":   doc.Metadata,
		"updated_at": repository.Now(),
	}}
	var updated postDoc
	err := r.coll.FindOneAndUpdate(ctx, livePostFilter(oid), update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		return translateError(err)
	}
	*p = updated.toDomain()
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrNotFound
	}
	res, err := r.coll.UpdateOne(ctx, livePostFilter(oid), bson.M{"$set": bson.M{
		"status":     domain.PostDeleted,
		"updated_at": repository.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postRepository) IncrementViews(ctx context.Context, id string, delta int64) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrNotFound
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"view_count": delta}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postRepository) FetchSlugs(ctx context.Context, skip, limit int64) ([]string, error) {
	if skip < 0 {
		skip = 0
	}
	opts := options.Find().
		SetProjection(bson.M{"slug": 1}).
		SetSort(bson.D{{Key: "slug", Value: 1}}).
		SetSkip(skip)
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := r.coll.Find(ctx, bson.M{"status": bson.M{"$ne": domain.PostDeleted}}, opts)
	if err != nil {
		return nil, err
	}
	var docs []struct {
		Slug string `bson:"slug"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	slugs := make([]string, len(docs))
	for i := range docs {
		slugs[i] = docs[i].Slug
	}
	return slugs, nil
}
