package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/repository"
)

type reactionRepository struct {
	coll     *mongo.Collection
	posts    *mongo.Collection
	comments *mongo.Collection
}

var (
	_ domain.ReactionRepository = (*reactionRepository)(nil)
	_ domain.CounterRepository  = (*reactionRepository)(nil)
)

func NewReactionRepository(db *mongo.Database) *reactionRepository {
	return &reactionRepository{
		coll:     db.Collection(reactionsCollection),
		posts:    db.Collection(postsCollection),
		comments: db.Collection(commentsCollection),
	}
}

func (r *reactionRepository) Get(ctx context.Context, userID string, target domain.ReactionTarget) (domain.ReactionState, error) {
	uid, ok := objectID(userID)
	tid, ok2 := objectID(target.ID)
	if !ok || !ok2 {
		return domain.ReactionState{}, nil
	}

	var doc reactionDoc
	err := r.coll.FindOne(ctx, bson.M{"user_id": uid, "target_type": target.Type, "target_id": tid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ReactionState{}, nil
	}
	if err != nil {
		return domain.ReactionState{}, err
	}
	return doc.state(), nil
}

func (r *reactionRepository) GetBatch(ctx context.Context, userID string, targetType domain.TargetType, targetIDs []string) (map[string]domain.ReactionState, error) {
	res := make(map[string]domain.ReactionState)
	uid, ok := objectID(userID)
	tids := objectIDs(repository.UniqueIDs(targetIDs))
	if !ok || len(tids) == 0 {
		return res, nil
	}

	cur, err := r.coll.Find(ctx, bson.M{
		"user_id":     uid,
		"target_type": targetType,
		"target_id":   bson.M{"$in": tids},
	})
	if err != nil {
		return nil, err
	}
	var docs []reactionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, doc := range docs {
		res[doc.TargetID.Hex()] = doc.state()
	}
	return res, nil
}

// targetCollection returns the collection holding target and the filter that
// matches it only while it is live.
func (r *reactionRepository) targetCollection(target domain.ReactionTarget) (*mongo.Collection, bson.M, error) {
	oid, ok := objectID(target.ID)
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	switch target.Type {
	case domain.TargetPost:
		return r.posts, livePostFilter(oid), nil
	case domain.TargetComment:
		return r.comments, activeCommentFilter(bson.M{"_id": oid}), nil
	default:
		return nil, nil, domain.ErrBadParamInput
	}
}

// togglePipeline flips kind server side. Absent flags read as false, so the same
// pipeline creates the record on upsert.
func togglePipeline(kind domain.ReactionKind, now time.Time) mongo.Pipeline {
	flag := map[domain.ReactionKind]string{
		domain.ReactionLike:     "liked",
		domain.ReactionDislike:  "disliked",
		domain.ReactionBookmark: "bookmarked",
	}[kind]
	rival := map[domain.ReactionKind]string{
		domain.ReactionLike:    "disliked",
		domain.ReactionDislike: "liked",
	}[kind]

	orFalse := func(field string) bson.M {
		return bson.M{"$ifNull": bson.A{"$" + field, false}}
	}

	second := bson.M{
		"created_at": bson.M{"$ifNull": bson.A{"$created_at", now}},
		"updated_at": now,
	}
	for _, f := range []string{"liked", "disliked", "bookmarked"} {
		switch f {
		case flag:
		case rival:
			second[f] = bson.M{"$cond": bson.A{"$" + flag, false, orFalse(f)}}
		default:
			second[f] = orFalse(f)
		}
	}

	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{flag: bson.M{"$not": bson.A{orFalse(flag)}}}}},
		{{Key: "$set", Value: second}},
	}
}

// Toggle flips the flag with one FindOneAndUpdate and moves the counters by the
// delta between the returned prior state and the new one.
func (r *reactionRepository) Toggle(ctx context.Context, userID string, target domain.ReactionTarget, kind domain.ReactionKind) (domain.ToggleResult, error) {
	coll, alive, err := r.targetCollection(target)
	if err != nil {
		return domain.ToggleResult{}, err
	}
	uid, ok := objectID(userID)
	if !ok {
		return domain.ToggleResult{}, domain.ErrUnauthorized
	}
	if err := coll.FindOne(ctx, alive, options.FindOne().SetProjection(bson.M{"_id": 1})).Err(); err != nil {
		return domain.ToggleResult{}, translateError(err)
	}

	var prior reactionDoc
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"user_id": uid, "target_type": target.Type, "target_id": alive["_id"]},
		togglePipeline(kind, repository.Now()),
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before),
	).Decode(&prior)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		prior = reactionDoc{}
	case mongo.IsDuplicateKeyError(err):
		return domain.ToggleResult{}, domain.ErrReactionConflict
	case err != nil:
		return domain.ToggleResult{}, err
	}

	cur := prior.state()
	next := cur.Toggle(kind)
	delta := cur.Delta(next)

	var counters countersDoc
	err = coll.FindOneAndUpdate(ctx,
		bson.M{"_id": alive["_id"]},
		bson.M{"$inc": bson.M{
			"like_count":     delta.LikeCount,
			"dislike_count":  delta.DislikeCount,
			"bookmark_count": delta.BookmarkCount,
		}},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"like_count": 1, "dislike_count": 1, "bookmark_count": 1}),
	).Decode(&counters)
	if err != nil {
		return domain.ToggleResult{}, translateError(err)
	}
	return domain.ToggleResult{Counts: counters.toDomain(), State: next}, nil
}

// ReconcileCounters overwrites the counters of target with the sums over its
// reaction records and, for posts, the number of active comments.
func (r *reactionRepository) ReconcileCounters(ctx context.Context, target domain.ReactionTarget) error {
	coll, _, err := r.targetCollection(target)
	if err != nil {
		return err
	}
	tid, _ := objectID(target.ID)

	flagSum := func(field string) bson.M {
		return bson.M{"$sum": bson.M{"$cond": bson.A{"$" + field, 1, 0}}}
	}
	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"target_type": target.Type, "target_id": tid}}},
		{{Key: "$group", Value: bson.M{
			"_id":            nil,
			"like_count":     flagSum("liked"),
			"dislike_count":  flagSum("disliked"),
			"bookmark_count": flagSum("bookmarked"),
		}}},
	})
	if err != nil {
		return err
	}
	var sums []countersDoc
	if err := cur.All(ctx, &sums); err != nil {
		return err
	}
	var counts countersDoc
	if len(sums) > 0 {
		counts = sums[0]
	}

	set := bson.M{
		"like_count":     counts.LikeCount,
		"dislike_count":  counts.DislikeCount,
		"bookmark_count": counts.BookmarkCount,
	}
	if target.Type == domain.TargetPost {
		n, err := r.comments.CountDocuments(ctx, activeCommentFilter(bson.M{"post_id": tid}))
		if err != nil {
			return err
		}
		set["comment_count"] = n
	}

	res, err := coll.UpdateOne(ctx, bson.M{"_id": tid}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
