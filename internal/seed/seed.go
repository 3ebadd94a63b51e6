// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"inkwell/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the plaintext password given to every seeded account.
const DemoPassword = "password123"

// Options controls seeding behavior.
type Options struct {
	// SkipBcrypt stores the plaintext password instead of a hash. Faster for
	// large local datasets; such accounts cannot actually log in.
	SkipBcrypt bool
	// MaxDays spreads post timestamps over the past N days. Zero means 90.
	MaxDays int
}

// Seeder builds and persists demo users and posts.
type Seeder struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:   db,
		opts: opts,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll removes all seeded data. Posts go first to satisfy the foreign key.
func (s *Seeder) ClearAll() error {
	if err := s.db.Exec("DELETE FROM posts").Error; err != nil {
		return fmt.Errorf("clearing posts: %w", err)
	}
	if err := s.db.Exec("DELETE FROM users").Error; err != nil {
		return fmt.Errorf("clearing users: %w", err)
	}
	return nil
}

// BuildUser constructs a sample user without persisting it. Optional override
// functions may modify the generated user before use.
func (s *Seeder) BuildUser(overrides ...func(*models.User)) *models.User {
	username := strings.ToLower(gofakeit.Username())
	if len(username) > 16 {
		username = username[:16]
	}
	user := &models.User{
		Username:  fmt.Sprintf("%s%d", username, gofakeit.Number(100, 999)),
		Email:     gofakeit.Email(),
		ImageFile: models.DefaultProfileImage,
	}

	if s.opts.SkipBcrypt {
		user.Password = DemoPassword
	} else {
		hashed, _ := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
		user.Password = string(hashed)
	}

	for _, override := range overrides {
		override(user)
	}
	return user
}

// BuildPost constructs a sample post for the given author with a realistic
// created_at spread over the recent past.
func (s *Seeder) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	title := gofakeit.Sentence(5)
	if len(title) > 100 {
		title = title[:100]
	}
	post := &models.Post{
		Title:   title,
		Content: gofakeit.Paragraph(2, 4, 8, "\n"),
		UserID:  user.ID,
	}

	maxDays := s.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := s.rng.Intn(maxDays)
	hoursBack := s.rng.Intn(24)
	minsBack := s.rng.Intn(60)
	post.CreatedAt = time.Now().
		Add(-time.Duration(daysBack)*24*time.Hour -
			time.Duration(hoursBack)*time.Hour -
			time.Duration(minsBack)*time.Minute)

	for _, override := range overrides {
		override(post)
	}
	return post
}

// SeedUsers creates n demo accounts.
func (s *Seeder) SeedUsers(n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user := s.BuildUser()
		if err := s.db.Create(user).Error; err != nil {
			// Random usernames and emails can collide; skip and keep going.
			log.Printf("skipping user %q: %v", user.Username, err)
			continue
		}
		users = append(users, user)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("no users created")
	}
	return users, nil
}

// SeedPosts creates n demo posts spread across the given authors.
func (s *Seeder) SeedPosts(users []*models.User, n int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		author := users[s.rng.Intn(len(users))]
		posts = append(posts, s.BuildPost(author))
	}
	if err := s.db.Create(&posts).Error; err != nil {
		return nil, fmt.Errorf("creating posts: %w", err)
	}
	return posts, nil
}
