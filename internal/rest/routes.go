package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/Guyuepp/community-board/domain"
)

type Handlers struct {
	Post    *PostHandler
	Comment *CommentHandler
	User    *UserHandler
}

// RegisterRoutes mounts the board api. optionalAuth resolves the viewer when a
// token is present; requireAuth rejects anonymous requests.
func RegisterRoutes(route gin.IRouter, h Handlers, optionalAuth, requireAuth gin.HandlerFunc) {
	public := route.Group("/")
	public.Use(optionalAuth)
	{
		public.GET("/posts", h.Post.FetchPost)
		public.GET("/posts/:slug", h.Post.GetBySlug)
		public.GET("/posts/:slug/complete", h.Post.GetComplete)
		public.GET("/posts/:slug/comments", h.Comment.FetchByPost)
		public.GET("/posts/:slug/comments/stats", h.Comment.Stats)
		public.GET("/users/:id", h.User.GetByID)
		public.POST("/users", h.User.Register)
	}

	authorized := route.Group("/")
	authorized.Use(requireAuth)
	{
		authorized.POST("/posts", h.Post.Store)
		authorized.PATCH("/posts/:slug", h.Post.Update)
		authorized.DELETE("/posts/:slug", h.Post.Delete)
		authorized.POST("/posts/:slug/comments", h.Comment.CreateComment)
		authorized.PATCH("/comments/:id", h.Comment.UpdateComment)
		authorized.DELETE("/comments/:id", h.Comment.DeleteComment)
		authorized.PATCH("/users/:id", h.User.UpdateProfile)

		for _, kind := range []domain.ReactionKind{domain.ReactionLike, domain.ReactionDislike, domain.ReactionBookmark} {
			authorized.POST("/posts/:slug/"+string(kind), h.Post.React(kind))
			authorized.POST("/comments/:id/"+string(kind), h.Comment.React(kind))
		}
	}
}
