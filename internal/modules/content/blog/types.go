package blog

import (
	"errors"
	"time"

	"github.com/ecosphere/core/internal/models"
)

// Blog post categories.
var Categories = []string{"renewable", "water", "recycling", "energy"}

// DefaultTags are applied when a post is created without any.
var DefaultTags = []string{"sustainability", "eco-friendly"}

const excerptLength = 240

type CreatePostDTO struct {
	Title    string   `json:"title"    binding:"required"`
	Text     string   `json:"text"     binding:"required"`
	ImageURL string   `json:"image_url"`
	Category string   `json:"category" binding:"required"`
	Tags     []string `json:"tags"`
}

type UpdatePostDTO struct {
	Title    *string   `json:"title"`
	Text     *string   `json:"text"`
	ImageURL *string   `json:"image_url"`
	Category *string   `json:"category"`
	Tags     *[]string `json:"tags"`
}

// ListQuery narrows and orders the post list.
type ListQuery struct {
	Category string
	Tag      string
	Search   string
	Sort     string
}

type postResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Text       string    `json:"text,omitempty"`
	HTML       string    `json:"html,omitempty"`
	Excerpt    string    `json:"excerpt,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Category   string    `json:"category"`
	Tags       []string  `json:"tags"`
	Likes      int       `json:"likes"`
	Liked      *bool     `json:"liked,omitempty"`
	Created    time.Time `json:"created"`
	Modified   time.Time `json:"modified"`
}

var (
	errPostNotFound    = errors.New("blog post not found")
	errInvalidCategory = errors.New("invalid blog category")
)

func validCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

func toListResponse(p *models.BlogPostModel, excerpt string, liked *bool) postResponse {
	return postResponse{
		ID:         p.ID,
		Title:      p.Title,
		Excerpt:    excerpt,
		ImageURL:   p.ImageURL,
		AuthorID:   p.AuthorID,
		AuthorName: p.AuthorName,
		Category:   p.Category,
		Tags:       p.Tags,
		Likes:      p.LikeCount,
		Liked:      liked,
		Created:    p.CreatedAt,
		Modified:   p.UpdatedAt,
	}
}

func toDetailResponse(p *models.BlogPostModel, renderedHTML string, liked *bool) postResponse {
	return postResponse{
		ID:         p.ID,
		Title:      p.Title,
		Text:       p.Text,
		HTML:       renderedHTML,
		ImageURL:   p.ImageURL,
		AuthorID:   p.AuthorID,
		AuthorName: p.AuthorName,
		Category:   p.Category,
		Tags:       p.Tags,
		Likes:      p.LikeCount,
		Liked:      liked,
		Created:    p.CreatedAt,
		Modified:   p.UpdatedAt,
	}
}
