package repository

import (
	"context"
	"errors"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// DefaultPageSize is the number of posts per listing page.
const DefaultPageSize = 5

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	ListPage(ctx context.Context, page, perPage int, authorID uint) (*models.PostPage, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

// Update persists title and content changes. CreatedAt is never written, so
// the publication timestamp stays immutable.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).
		Model(post).
		Select("title", "content", "updated_at").
		Updates(map[string]interface{}{
			"title":   post.Title,
			"content": post.Content,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the post record entirely. The post model has no DeletedAt
// column, so this is a hard delete with no tombstone.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListPage returns one 1-indexed page of posts, newest first. Equal
// timestamps are tie-broken by id descending so repeated calls over the same
// data always agree on order. authorID of 0 lists all authors. A page past
// the end yields an empty page with the true total.
func (r *postRepository) ListPage(ctx context.Context, page, perPage int, authorID uint) (*models.PostPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPageSize
	}

	countQuery := r.db.WithContext(ctx).Model(&models.Post{})
	if authorID != 0 {
		countQuery = countQuery.Where("user_id = ?", authorID)
	}
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	listQuery := r.db.WithContext(ctx)
	if authorID != 0 {
		listQuery = listQuery.Where("user_id = ?", authorID)
	}

	var posts []*models.Post
	err := listQuery.
		Preload("User").
		Order("created_at DESC, id DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	return &models.PostPage{
		Posts:      posts,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}
