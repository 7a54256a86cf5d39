package blog

import (
	"errors"

	"github.com/ecosphere/core/internal/models"
	"github.com/ecosphere/core/internal/pkg/pagination"
	"github.com/ecosphere/core/internal/pkg/response"
	"gorm.io/gorm"
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// List returns posts filtered and ordered per query.
func (s *Service) List(q pagination.Query, lq ListQuery) ([]models.BlogPostModel, response.Pagination, error) {
	tx := s.db.Model(&models.BlogPostModel{})

	if lq.Category != "" {
		tx = tx.Where("category = ?", lq.Category)
	}
	if lq.Tag != "" {
		// tags is a JSON array column; match the quoted element
		tx = tx.Where("tags LIKE ?", "%\""+lq.Tag+"\"%")
	}
	if lq.Search != "" {
		tx = tx.Where("title LIKE ?", "%"+lq.Search+"%")
	}

	switch lq.Sort {
	case "mostLiked":
		tx = tx.Order("like_count DESC").Order("created_at DESC")
	default:
		tx = tx.Order("created_at DESC")
	}

	var items []models.BlogPostModel
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}

func (s *Service) GetByID(id string) (*models.BlogPostModel, error) {
	var p models.BlogPostModel
	if err := s.db.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *Service) Create(p *models.BlogPostModel) error {
	if len(p.Tags) == 0 {
		p.Tags = append(models.StringArray{}, DefaultTags...)
	}
	return s.db.Create(p).Error
}

func (s *Service) Update(p *models.BlogPostModel, updates map[string]interface{}) error {
	return s.db.Model(p).Updates(updates).Error
}

// Delete soft-deletes the post and hard-deletes its like rows.
func (s *Service) Delete(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.BlogPostModel{}, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.BlogLikeModel{}, "post_id = ?", id).Error
	})
}

// Like records userID's like and bumps the denormalized counter in the same
// transaction. A repeated like is a no-op.
func (s *Service) Like(postID, userID string) (int, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := ensurePostExists(tx, postID); err != nil {
			return err
		}

		var existing models.BlogLikeModel
		err := tx.Unscoped().
			Where("post_id = ? AND user_id = ?", postID, userID).
			First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(&models.BlogLikeModel{PostID: postID, UserID: userID}).Error; err != nil {
			return err
		}
		return tx.Model(&models.BlogPostModel{}).
			Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	})
	if err != nil {
		return 0, err
	}
	return s.likeCount(postID)
}

// Unlike removes userID's like and decrements the counter. Unliking without
// a like row leaves the count unchanged.
func (s *Service) Unlike(postID, userID string) (int, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := ensurePostExists(tx, postID); err != nil {
			return err
		}

		res := tx.Unscoped().
			Where("post_id = ? AND user_id = ?", postID, userID).
			Delete(&models.BlogLikeModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.BlogPostModel{}).
			Where("id = ? AND like_count > 0", postID).
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
	})
	if err != nil {
		return 0, err
	}
	return s.likeCount(postID)
}

// LikedSet reports which of the given posts userID has liked.
func (s *Service) LikedSet(postIDs []string, userID string) (map[string]bool, error) {
	out := map[string]bool{}
	if userID == "" || len(postIDs) == 0 {
		return out, nil
	}
	var likes []models.BlogLikeModel
	err := s.db.Where("user_id = ? AND post_id IN ?", userID, postIDs).Find(&likes).Error
	if err != nil {
		return nil, err
	}
	for _, like := range likes {
		out[like.PostID] = true
	}
	return out, nil
}

// HasLiked reports whether userID liked the post.
func (s *Service) HasLiked(postID, userID string) bool {
	if userID == "" {
		return false
	}
	var count int64
	s.db.Model(&models.BlogLikeModel{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count)
	return count > 0
}

// CategoryCounts returns the post count for each known category.
func (s *Service) CategoryCounts() map[string]int64 {
	out := map[string]int64{}
	for _, category := range Categories {
		var count int64
		s.db.Model(&models.BlogPostModel{}).Where("category = ?", category).Count(&count)
		out[category] = count
	}
	return out
}

// UserDisplayName resolves the name shown alongside a post.
func (s *Service) UserDisplayName(userID string) string {
	var user models.UserModel
	if err := s.db.Select("name", "username").First(&user, "id = ?", userID).Error; err != nil {
		return ""
	}
	if user.Name != "" {
		return user.Name
	}
	return user.Username
}

// IsModerator reports the stored role of userID.
func (s *Service) IsModerator(userID string) bool {
	var user models.UserModel
	if err := s.db.Select("role").First(&user, "id = ?", userID).Error; err != nil {
		return false
	}
	return user.IsModerator()
}

// ReconcileLikeCounts rewrites every post's counter from its like rows. Run
// by cron to heal drift.
func (s *Service) ReconcileLikeCounts() (int64, error) {
	res := s.db.Exec(`UPDATE blog_posts SET like_count = (
		SELECT COUNT(*) FROM blog_likes
		WHERE blog_likes.post_id = blog_posts.id AND blog_likes.deleted_at IS NULL
	)`)
	return res.RowsAffected, res.Error
}

func (s *Service) likeCount(postID string) (int, error) {
	var post models.BlogPostModel
	if err := s.db.Select("like_count").First(&post, "id = ?", postID).Error; err != nil {
		return 0, err
	}
	return post.LikeCount, nil
}

func ensurePostExists(tx *gorm.DB, postID string) error {
	var count int64
	if err := tx.Model(&models.BlogPostModel{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errPostNotFound
	}
	return nil
}
