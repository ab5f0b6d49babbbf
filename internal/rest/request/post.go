package request

import "github.com/Guyuepp/community-board/domain"

type Metadata struct {
	Type       string   `json:"type" binding:"omitempty,max=32"`
	Category   string   `json:"category" binding:"omitempty,max=64"`
	Tags       []string `json:"tags" binding:"omitempty,max=20,dive,max=32"`
	Visibility string   `json:"visibility" binding:"omitempty,oneof=public private"`
}

func (m Metadata) ToDomain() domain.PostMetadata {
	return domain.PostMetadata{
		Type:       domain.PostType(m.Type),
		Category:   m.Category,
		Tags:       m.Tags,
		Visibility: domain.Visibility(m.Visibility),
	}
}

type Post struct {
	Title    string   `json:"title" binding:"required,max=200"`
	Content  string   `json:"content" binding:"required"`
	Status   string   `json:"status" binding:"omitempty,oneof=draft published"`
	Metadata Metadata `json:"metadata"`
}

// ToDomain: Request -> Domain
func (r *Post) ToDomain() domain.Post {
	return domain.Post{
		Title:    r.Title,
		Content:  r.Content,
		Status:   domain.PostStatus(r.Status),
		Metadata: r.Metadata.ToDomain(),
	}
}

// UpdatePost leaves absent fields unchanged.
type UpdatePost struct {
	Title    *string   `json:"title" binding:"omitempty,min=1,max=200"`
	Content  *string   `json:"content"`
	Status   *string   `json:"status" binding:"omitempty,oneof=draft published"`
	Metadata *Metadata `json:"metadata"`
}

func (r *UpdatePost) ToDomain() domain.PostUpdate {
	upd := domain.PostUpdate{
		Title:   r.Title,
		Content: r.Content,
	}
	if r.Status != nil {
		st := domain.PostStatus(*r.Status)
		upd.Status = &st
	}
	if r.Metadata != nil {
		md := r.Metadata.ToDomain()
		upd.Metadata = &md
	}
	return upd
}
