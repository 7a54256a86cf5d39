package models

// BlogPostModel is a community story.
type BlogPostModel struct {
	Base
	Title      string      `json:"title"       gorm:"not null"`
	Text       string      `json:"text"        gorm:"type:longtext"`
	ImageURL   string      `json:"image_url"`
	AuthorID   string      `json:"author_id"   gorm:"index;not null"`
	AuthorName string      `json:"author_name"`
	Category   string      `json:"category"    gorm:"index"`
	Tags       StringArray `json:"tags"        gorm:"type:json"`
	LikeCount  int         `json:"likes"       gorm:"column:like_count;default:0"`
}

func (BlogPostModel) TableName() string { return "blog_posts" }

// BlogLikeModel records a single user's like on a post. LikeCount on the
// post is a denormalized mirror of these rows, maintained in the same
// transaction as every insert and delete.
type BlogLikeModel struct {
	Base
	PostID string `json:"post_id" gorm:"uniqueIndex:idx_post_user;not null"`
	UserID string `json:"user_id" gorm:"uniqueIndex:idx_post_user;not null"`
}

func (BlogLikeModel) TableName() string { return "blog_likes" }
