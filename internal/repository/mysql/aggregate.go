package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Guyuepp/community-board/domain"
)

// completeQuery joins post, author, viewer reaction, active comments, comment
// authors and viewer comment reactions in one statement. One row per comment;
// a post without comments yields one row with NULL comment columns.
const completeQuery = `SELECT
	p.id, p.slug, p.title, p.content, p.author_id, p.status, p.post_type, p.category, p.tags, p.visibility,
	p.view_count, p.like_count, p.dislike_count, p.comment_count, p.bookmark_count, p.created_at, p.updated_at,
	pa.handle, pa.display_name,
	pr.liked, pr.disliked, pr.bookmarked,
	c.id, c.parent_type, c.parent_id, c.author_id, c.content, c.depth, c.status, c.subtype,
	c.like_count, c.dislike_count, c.bookmark_count, c.created_at, c.updated_at,
	ca.handle, ca.display_name,
	cr.liked, cr.disliked, cr.bookmarked
FROM posts p
LEFT JOIN users pa ON pa.id = p.author_id
LEFT JOIN reactions pr ON pr.user_id = ? AND pr.target_type = 'post' AND pr.target_id = p.id
LEFT JOIN comments c ON c.post_id = p.id AND c.status = 'active'
LEFT JOIN users ca ON ca.id = c.author_id
LEFT JOIN reactions cr ON cr.user_id = ? AND cr.target_type = 'comment' AND cr.target_id = c.id
WHERE p.slug = ? AND p.status <> 'deleted'
ORDER BY c.created_at ASC, c.id ASC`

type postAggregator struct {
	DB *gorm.DB
}

var _ domain.PostAggregator = (*postAggregator)(nil)

func NewPostAggregator(db *gorm.DB) *postAggregator {
	return &postAggregator{db}
}

type completeRow struct {
	post          postColumns
	authorHandle  sql.NullString
	authorName    sql.NullString
	postReaction  reactionColumns
	comment       commentColumns
	commentHandle sql.NullString
	commentName   sql.NullString
	commentReact  reactionColumns
}

type postColumns struct {
	id, slug, title, content, authorID, status, postType, category string
	tags                                                           []byte
	visibility                                                     string
	views, likes, dislikes, comments, bookmarks                    int64
	createdAt, updatedAt                                           time.Time
}

type commentColumns struct {
	id, parentType, parentID, authorID, content sql.NullString
	depth                                       sql.NullInt64
	status, subtype                             sql.NullString
	likes, dislikes, bookmarks                  sql.NullInt64
	createdAt, updatedAt                        sql.NullTime
}

type reactionColumns struct {
	liked, disliked, bookmarked sql.NullBool
}

func (r *completeRow) dest() []any {
	p, c := &r.post, &r.comment
	return []any{
		&p.id, &p.slug, &p.title, &p.content, &p.authorID, &p.status, &p.postType, &p.category, &p.tags, &p.visibility,
		&p.views, &p.likes, &p.dislikes, &p.comments, &p.bookmarks, &p.createdAt, &p.updatedAt,
		&r.authorHandle, &r.authorName,
		&r.postReaction.liked, &r.postReaction.disliked, &r.postReaction.bookmarked,
		&c.id, &c.parentType, &c.parentID, &c.authorID, &c.content, &c.depth, &c.status, &c.subtype,
		&c.likes, &c.dislikes, &c.bookmarks, &c.createdAt, &c.updatedAt,
		&r.commentHandle, &r.commentName,
		&r.commentReact.liked, &r.commentReact.disliked, &r.commentReact.bookmarked,
	}
}

func (rc reactionColumns) state() *domain.ReactionState {
	return &domain.ReactionState{
		Liked:      rc.liked.Bool,
		Disliked:   rc.disliked.Bool,
		Bookmarked: rc.bookmarked.Bool,
	}
}

func authorOf(id string, handle, name sql.NullString) *domain.AuthorInfo {
	if !handle.Valid {
		return nil
	}
	return &domain.AuthorInfo{ID: id, Handle: handle.String, DisplayName: name.String}
}

func (p postColumns) toDomain() domain.Post {
	var tags []string
	if len(p.tags) > 0 {
		if err := json.Unmarshal(p.tags, &tags); err != nil {
			logrus.Warnf("bad tags on post %s: %v", p.id, err)
		}
	}
	return domain.Post{
		ID:       p.id,
		Slug:     p.slug,
		Title:    p.title,
		Content:  p.content,
		AuthorID: p.authorID,
		Status:   domain.PostStatus(p.status),
		Metadata: domain.PostMetadata{
			Type:       domain.ParsePostType(p.postType),
			Category:   p.category,
			Tags:       tags,
			Visibility: domain.ParseVisibility(p.visibility),
		},
		ViewCount:     p.views,
		LikeCount:     p.likes,
		DislikeCount:  p.dislikes,
		CommentCount:  p.comments,
		BookmarkCount: p.bookmarks,
		CreatedAt:     p.createdAt.UTC(),
		UpdatedAt:     p.updatedAt.UTC(),
	}
}

func (c commentColumns) toDomain(postID string) domain.Comment {
	return domain.Comment{
		ID:            c.id.String,
		PostID:        postID,
		ParentType:    domain.ParentType(c.parentType.String),
		ParentID:      c.parentID.String,
		AuthorID:      c.authorID.String,
		Content:       c.content.String,
		Depth:         int(c.depth.Int64),
		Status:        domain.CommentStatus(c.status.String),
		Metadata:      domain.CommentMetadata{Subtype: domain.ParseCommentSubtype(c.subtype.String)},
		LikeCount:     c.likes.Int64,
		DislikeCount:  c.dislikes.Int64,
		BookmarkCount: c.bookmarks.Int64,
		CreatedAt:     c.createdAt.Time.UTC(),
		UpdatedAt:     c.updatedAt.Time.UTC(),
	}
}

// GetPostComplete answers the complete post view with a single query.
func (a *postAggregator) GetPostComplete(ctx context.Context, slug, viewerID string) (domain.PostDetailView, error) {
	rows, err := a.DB.WithContext(ctx).Raw(completeQuery, viewerID, viewerID, slug).Rows()
	if err != nil {
		return domain.PostDetailView{}, err
	}
	defer rows.Close()

	var view domain.PostDetailView
	found := false
	for rows.Next() {
		var row completeRow
		if err := rows.Scan(row.dest()...); err != nil {
			return domain.PostDetailView{}, err
		}

		if !found {
			found = true
			view = domain.PostDetailView{
				Post:     row.post.toDomain(),
				Author:   authorOf(row.post.authorID, row.authorHandle, row.authorName),
				Comments: []domain.CommentView{},
			}
			if viewerID != "" {
				view.Reaction = row.postReaction.state()
			}
		}

		if !row.comment.id.Valid {
			continue
		}
		cv := domain.CommentView{
			Comment: row.comment.toDomain(view.Post.ID),
			Author:  authorOf(row.comment.authorID.String, row.commentHandle, row.commentName),
		}
		if viewerID != "" {
			cv.Reaction = row.commentReact.state()
		}
		view.Comments = append(view.Comments, cv)
	}
	if err := rows.Err(); err != nil {
		return domain.PostDetailView{}, err
	}
	if !found {
		return domain.PostDetailView{}, domain.ErrNotFound
	}
	return view, nil
}
