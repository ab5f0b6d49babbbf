package cache

import "fmt"

const (
	KeyAuthor       = "author:%s"
	KeyReaction     = "reaction:%s:%s:%s"
	KeyPostDetail   = "post_detail:%s"
	KeyPostComments = "post_comments:%s"
	KeyGeneration   = "gen:%s"
)

// AuthorKey caches the AuthorInfo of a user.
func AuthorKey(authorID string) string {
	return fmt.Sprintf(KeyAuthor, authorID)
}

// ReactionKey caches the ReactionState of a user on a target.
func ReactionKey(userID string, targetType, targetID string) string {
	return fmt.Sprintf(KeyReaction, userID, targetType, targetID)
}

// PostDetailKey caches the viewer independent complete view of a post.
func PostDetailKey(slug string) string {
	return fmt.Sprintf(KeyPostDetail, slug)
}

// PostCommentsKey caches the viewer independent comment list of a post.
func PostCommentsKey(slug string) string {
	return fmt.Sprintf(KeyPostComments, slug)
}

// generationKey holds the invalidation counter of a cache key.
func generationKey(key string) string {
	return fmt.Sprintf(KeyGeneration, key)
}
