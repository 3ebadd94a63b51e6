package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", "a@x.com")
	post := createTestPost(t, db, alice, "First Post", time.Now())

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "First Post", got.Title)
	assert.Equal(t, alice.ID, got.UserID)
	assert.Equal(t, "alice", got.User.Username)
}

func TestPostGetNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)

	_, err := repo.GetByID(context.Background(), 404)
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestPostUpdateKeepsPublicationTimestamp(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", "a@x.com")
	postedAt := time.Now().Add(-48 * time.Hour).Truncate(time.Second)
	post := createTestPost(t, db, alice, "Original", postedAt)

	post.Title = "Edited"
	post.Content = "edited body"
	require.NoError(t, repo.Update(ctx, post))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited", got.Title)
	assert.Equal(t, "edited body", got.Content)
	assert.WithinDuration(t, postedAt, got.CreatedAt, time.Second)
}

func TestPostDeleteRemovesRecord(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", "a@x.com")
	post := createTestPost(t, db, alice, "Doomed", time.Now())

	require.NoError(t, repo.Delete(ctx, post.ID))

	_, err := repo.GetByID(ctx, post.ID)
	require.Error(t, err)

	// Hard delete: not even a raw row remains.
	var count int64
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPostListPagePagination(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", "a@x.com")
	base := time.Now().Add(-24 * time.Hour)
	for i := 0; i < 12; i++ {
		createTestPost(t, db, alice, fmt.Sprintf("post-%02d", i), base.Add(time.Duration(i)*time.Minute))
	}

	page1, err := repo.ListPage(ctx, 1, 5, alice.ID)
	require.NoError(t, err)
	assert.Len(t, page1.Posts, 5)
	assert.Equal(t, int64(12), page1.Total)
	assert.Equal(t, 3, page1.TotalPages)
	assert.Equal(t, "post-11", page1.Posts[0].Title, "newest first")

	page2, err := repo.ListPage(ctx, 2, 5, alice.ID)
	require.NoError(t, err)
	assert.Len(t, page2.Posts, 5)

	page3, err := repo.ListPage(ctx, 3, 5, alice.ID)
	require.NoError(t, err)
	assert.Len(t, page3.Posts, 2)
	assert.Equal(t, "post-00", page3.Posts[1].Title, "oldest last")

	page4, err := repo.ListPage(ctx, 4, 5, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, page4.Posts)
	assert.Equal(t, int64(12), page4.Total)
}

func TestPostListPageFiltersByAuthor(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", "a@x.com")
	bob := createTestUser(t, db, "bob", "b@y.com")
	createTestPost(t, db, alice, "alice-1", time.Now())
	createTestPost(t, db, bob, "bob-1", time.Now())
	createTestPost(t, db, bob, "bob-2", time.Now())

	alicePage, err := repo.ListPage(ctx, 1, 5, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), alicePage.Total)
	assert.Equal(t, "alice-1", alicePage.Posts[0].Title)

	allPage, err := repo.ListPage(ctx, 1, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), allPage.Total)
}

func TestPostListPageStableOrderOnEqualTimestamps(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", "a@x.com")
	sameInstant := time.Now().Truncate(time.Second)
	for i := 0; i < 4; i++ {
		createTestPost(t, db, alice, fmt.Sprintf("tied-%d", i), sameInstant)
	}

	first, err := repo.ListPage(ctx, 1, 10, alice.ID)
	require.NoError(t, err)
	second, err := repo.ListPage(ctx, 1, 10, alice.ID)
	require.NoError(t, err)

	require.Len(t, first.Posts, 4)
	for i := range first.Posts {
		assert.Equal(t, first.Posts[i].ID, second.Posts[i].ID, "order must not churn between calls")
	}
	// Higher id wins the tie.
	assert.Greater(t, first.Posts[0].ID, first.Posts[3].ID)
}

func TestPostListPageClampsPage(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", "a@x.com")
	createTestPost(t, db, alice, "only", time.Now())

	page, err := repo.ListPage(ctx, 0, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Posts, 1)
}
