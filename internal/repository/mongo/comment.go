package mongo

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/repository"
)

type commentRepository struct {
	coll  *mongo.Collection
	posts *mongo.Collection
}

var _ domain.CommentRepository = (*commentRepository)(nil)

func NewCommentRepository(db *mongo.Database) *commentRepository {
	return &commentRepository{
		coll:  db.Collection(commentsCollection),
		posts: db.Collection(postsCollection),
	}
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (domain.Comment, error) {
	oid, ok := objectID(id)
	if !ok {
		return domain.Comment{}, domain.ErrNotFound
	}
	var doc commentDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return domain.Comment{}, translateError(err)
	}
	return doc.toDomain(), nil
}

func (r *commentRepository) FetchActiveByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	oid, ok := objectID(postID)
	if !ok {
		return []domain.Comment{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, activeCommentFilter(bson.M{"post_id": oid}), opts)
	if err != nil {
		return nil, err
	}
	var docs []commentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	res := make([]domain.Comment, len(docs))
	for i := range docs {
		res[i] = docs[i].toDomain()
	}
	return res, nil
}

// Store bumps the post counter first; a failed insert takes the bump back and
// the counter reconciler repairs whatever a crash in between leaves behind.
func (r *commentRepository) Store(ctx context.Context, c *domain.Comment) error {
	postID, ok := objectID(c.PostID)
	if !ok {
		return domain.ErrNotFound
	}
	if c.Status == "" {
		c.Status = domain.CommentActive
	}
	now := repository.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.CreatedAt = repository.Normalize(c.CreatedAt)
	c.UpdatedAt = now

	var delta int64
	if c.IsActive() {
		delta = 1
	}
	res, err := r.posts.UpdateOne(ctx, livePostFilter(postID), bson.M{"$inc": bson.M{"comment_count": delta}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}

	doc := newCommentDoc(c)
	doc.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if delta != 0 {
			if _, undoErr := r.posts.UpdateOne(context.WithoutCancel(ctx), bson.M{"_id": postID}, bson.M{"$inc": bson.M{"comment_count": -delta}}); undoErr != nil {
				logrus.Warnf("failed to undo comment_count of post %s: %v", c.PostID, undoErr)
			}
		}
		return translateError(err)
	}
	c.ID = doc.ID.Hex()
	return nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, c *domain.Comment) error {
	oid, ok := objectID(c.ID)
	if !ok {
		return domain.ErrNotFound
	}

	var doc commentDoc
	err := r.coll.FindOneAndUpdate(ctx,
		activeCommentFilter(bson.M{"_id": oid}),
		bson.M{"$set": bson.M{"content": c.Content, "updated_at": repository.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return translateError(err)
	}
	*c = doc.toDomain()
	return nil
}

func (r *commentRepository) SoftDelete(ctx context.Context, c domain.Comment) error {
	oid, ok := objectID(c.ID)
	if !ok {
		return domain.ErrNotFound
	}
	res, err := r.coll.UpdateOne(ctx, activeCommentFilter(bson.M{"_id": oid}), bson.M{"$set": bson.M{
		"status":     domain.CommentDeleted,
		"updated_at": repository.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}

	postID, _ := objectID(c.PostID)
	_, err = r.posts.UpdateOne(ctx,
		bson.M{"_id": postID, "comment_count": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"comment_count": -1}},
	)
	return err
}

func (r *commentRepository) CountBySubtype(ctx context.Context, postID string) (map[string]int64, error) {
	res := make(map[string]int64)
	oid, ok := objectID(postID)
	if !ok {
		return res, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: activeCommentFilter(bson.M{"post_id": oid})}},
		{{Key: "$group", Value: bson.M{"_id": "$metadata.subtype", "n": bson.M{"$sum": 1}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Subtype string `bson:"_id"`
		N       int64  `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		res[row.Subtype] += row.N
	}
	return res, nil
}
