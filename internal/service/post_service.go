package service

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

// PostService implements post CRUD with ownership authorization and
// paginated listing.
type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
}

// NewPostService wires a PostService from its repositories.
func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository) *PostService {
	return &PostService{postRepo: postRepo, userRepo: userRepo}
}

// assertOwner enforces that only the author may mutate a post. Identity is
// compared by ID; a mismatch is Forbidden, deliberately distinct from the
// NotFound returned when the post does not exist at all.
func assertOwner(post *models.Post, principalID uint) error {
	if post.UserID != principalID {
		return models.NewForbiddenError("You do not have permission to modify this post")
	}
	return nil
}

// CreatePost validates and stores a new post owned by the author.
func (s *PostService) CreatePost(ctx context.Context, authorID uint, title, content string) (*models.Post, error) {
	if err := validation.ValidatePostTitle(title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePostContent(content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post := &models.Post{
		Title:   title,
		Content: content,
		UserID:  authorID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// GetPost returns a single post by ID.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// UpdatePost applies title/content changes after the ownership check.
func (s *PostService) UpdatePost(ctx context.Context, principalID, postID uint, title, content string) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := assertOwner(post, principalID); err != nil {
		return nil, err
	}

	if err := validation.ValidatePostTitle(title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePostContent(content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post.Title = title
	post.Content = content
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// DeletePost removes a post after the ownership check.
func (s *PostService) DeletePost(ctx context.Context, principalID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if err := assertOwner(post, principalID); err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, postID)
}

// ListPosts returns one page of the global feed, newest first.
func (s *PostService) ListPosts(ctx context.Context, page int) (*models.PostPage, error) {
	return s.postRepo.ListPage(ctx, page, repository.DefaultPageSize, 0)
}

// ListUserPosts returns one page of a single author's posts, newest first.
// An unknown username is NotFound.
func (s *PostService) ListUserPosts(ctx context.Context, username string, page int) (*models.User, *models.PostPage, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, models.NewNotFoundError("User", username)
	}

	pageResult, err := s.postRepo.ListPage(ctx, page, repository.DefaultPageSize, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pageResult, nil
}
