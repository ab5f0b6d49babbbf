package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Guyuepp/community-board/domain"
)

type postAggregator struct {
	posts *mongo.Collection
}

var _ domain.PostAggregator = (*postAggregator)(nil)

func NewPostAggregator(db *mongo.Database) *postAggregator {
	return &postAggregator{posts: db.Collection(postsCollection)}
}

type completeCommentDoc struct {
	Comment  commentDoc    `bson:",inline"`
	Author   []userDoc     `bson:"author"`
	Reaction []reactionDoc `bson:"viewer_reaction"`
}

type completeDoc struct {
	Post     postDoc              `bson:",inline"`
	Author   []userDoc            `bson:"author"`
	Comments []completeCommentDoc `bson:"comments"`
	Reaction []reactionDoc        `bson:"viewer_reaction"`
}

// authorLookup joins the display fields of the user referenced by field.
func authorLookup(field string) bson.D {
	return bson.D{{Key: "$lookup", Value: bson.M{
		"from": usersCollection,
		"let":  bson.M{"author_id": "$" + field},
		"pipeline": mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$author_id"}}}}},
			{{Key: "$project", Value: bson.M{"handle": 1, "display_name": 1}}},
		},
		"as": "author",
	}}}
}

// viewerReactionLookup joins the viewer's reaction record on the current document.
func viewerReactionLookup(viewer primitive.ObjectID, targetType domain.TargetType) bson.D {
	return bson.D{{Key: "$lookup", Value: bson.M{
		"from": reactionsCollection,
		"let":  bson.M{"target_id": "$_id"},
		"pipeline": mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"$expr": bson.M{"$and": bson.A{
				bson.M{"$eq": bson.A{"$user_id", viewer}},
				bson.M{"$eq": bson.A{"$target_type", targetType}},
				bson.M{"$eq": bson.A{"$target_id", "$$target_id"}},
			}}}}},
			{{Key: "$limit", Value: 1}},
		},
		"as": "viewer_reaction",
	}}}
}

// buildCompletePipeline assembles post, author, active comments with their
// authors and, for a known viewer, the viewer reactions into one document.
func buildCompletePipeline(slug string, viewer *primitive.ObjectID) mongo.Pipeline {
	commentStages := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$expr": bson.M{"$and": bson.A{
			bson.M{"$eq": bson.A{"$post_id", "$$post_id"}},
			bson.M{"$eq": bson.A{"$status", domain.CommentActive}},
		}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}}},
		authorLookup("author_id"),
	}
	if viewer != nil {
		commentStages = append(commentStages, viewerReactionLookup(*viewer, domain.TargetComment))
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"slug": slug, "status": bson.M{"$ne": domain.PostDeleted}}}},
		{{Key: "$limit", Value: 1}},
		authorLookup("author_id"),
		{{Key: "$lookup", Value: bson.M{
			"from":     commentsCollection,
			"let":      bson.M{"post_id": "$_id"},
			"pipeline": commentStages,
			"as":       "comments",
		}}},
	}
	if viewer != nil {
		pipeline = append(pipeline, viewerReactionLookup(*viewer, domain.TargetPost))
	}
	return pipeline
}

func firstAuthor(docs []userDoc) *domain.AuthorInfo {
	if len(docs) == 0 {
		return nil
	}
	return docs[0].authorInfo()
}

func firstState(docs []reactionDoc) *domain.ReactionState {
	var st domain.ReactionState
	if len(docs) > 0 {
		st = docs[0].state()
	}
	return &st
}

// GetPostComplete answers the complete post view with a single aggregation.
func (a *postAggregator) GetPostComplete(ctx context.Context, slug, viewerID string) (domain.PostDetailView, error) {
	var viewer *primitive.ObjectID
	if viewerID != "" {
		oid, _ := objectID(viewerID)
		viewer = &oid
	}

	cur, err := a.posts.Aggregate(ctx, buildCompletePipeline(slug, viewer))
	if err != nil {
		return domain.PostDetailView{}, err
	}
	var docs []completeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return domain.PostDetailView{}, err
	}
	if len(docs) == 0 {
		return domain.PostDetailView{}, domain.ErrNotFound
	}

	doc := docs[0]
	view := domain.PostDetailView{
		Post:     doc.Post.toDomain(),
		Author:   firstAuthor(doc.Author),
		Comments: make([]domain.CommentView, 0, len(doc.Comments)),
	}
	if viewer != nil {
		view.Reaction = firstState(doc.Reaction)
	}
	for _, c := range doc.Comments {
		cv := domain.CommentView{
			Comment: c.Comment.toDomain(),
			Author:  firstAuthor(c.Author),
		}
		if viewer != nil {
			cv.Reaction = firstState(c.Reaction)
		}
		view.Comments = append(view.Comments, cv)
	}
	return view, nil
}
