package server

import (
	"io"
	"strings"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// accountResponse decorates a user with the URL its profile picture is served
// from.
func (s *Server) accountResponse(user *models.User) fiber.Map {
	return fiber.Map{
		"user":      user,
		"image_url": s.config.BaseURL + "/static/profile_pics/" + user.ImageFile,
	}
}

// GetAccount handles GET /api/account
func (s *Server) GetAccount(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)

	user, err := s.userRepo.GetByID(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(s.accountResponse(user))
}

// UpdateAccount handles PUT /api/account. The request is multipart when a new
// profile picture is included, plain JSON otherwise.
func (s *Server) UpdateAccount(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)

	input := service.UpdateAccountInput{UserID: userID}

	if strings.HasPrefix(c.Get("Content-Type"), "multipart/form-data") {
		input.Username = c.FormValue("username")
		input.Email = c.FormValue("email")

		if file, err := c.FormFile("picture"); err == nil {
			src, err := file.Open()
			if err != nil {
				return models.RespondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("Unable to read uploaded file"))
			}
			defer func() { _ = src.Close() }()

			content, err := io.ReadAll(src)
			if err != nil {
				return models.RespondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("Unable to read uploaded file"))
			}
			input.Picture = content
		}
	} else {
		var req struct {
			Username string `json:"username"`
			Email    string `json:"email"`
		}
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		input.Username = req.Username
		input.Email = req.Email
	}

	user, err := s.userService.UpdateAccount(c.UserContext(), input)
	if err != nil {
		return respondError(c, err)
	}

	response := s.accountResponse(user)
	response["notice"] = "Your account has been updated!"
	return c.JSON(response)
}

// GetUserPosts handles GET /api/users/:username/posts?page=N
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	username := c.Params("username")

	user, page, err := s.postService.ListUserPosts(c.UserContext(), username, parsePage(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"user":        user,
		"posts":       page.Posts,
		"page":        page.Page,
		"per_page":    page.PerPage,
		"total":       page.Total,
		"total_pages": page.TotalPages,
	})
}
