package server

import (
	"folio/internal/middleware"
	"folio/internal/models"
	"folio/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PostListResponse wraps a page of posts.
type PostListResponse struct {
	Posts *service.PostPage `json:"posts"`
}

// PostResponse carries a single post.
type PostResponse struct {
	Post *models.Post `json:"post"`
}

// PostMutationResponse is returned by create and update.
type PostMutationResponse struct {
	Message string       `json:"message"`
	Post    *models.Post `json:"post"`
}

// GetPosts handles GET /api/posts
// @Summary List posts
// @Description Every post, drafts included, newest first, 20 per page
// @Tags posts
// @Produce json
// @Param page query int false "Page number" default(1)
// @Success 200 {object} PostListResponse
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page, err := s.postService.List(c.UserContext(), parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(PostListResponse{Posts: page})
}

// GetPublishedPosts handles GET /api/posts/published
// @Summary List published posts
// @Description Posts that are not drafts and whose publish time has passed, newest first
// @Tags posts
// @Produce json
// @Param page query int false "Page number" default(1)
// @Success 200 {object} PostListResponse
// @Router /posts/published [get]
func (s *Server) GetPublishedPosts(c *fiber.Ctx) error {
	page, err := s.postService.ListPublished(c.UserContext(), parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(PostListResponse{Posts: page})
}

// GetPost handles GET /api/posts/:id
// @Summary Get a published post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} PostResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	post, err := s.postService.GetPublished(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(PostResponse{Post: post})
}

// EditPost handles GET /api/posts/:id/edit
// @Summary Load a post for editing
// @Description Returns the post regardless of visibility when the caller is its author
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} PostResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/edit [get]
func (s *Server) EditPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	post, err := s.postService.GetForEdit(c.UserContext(), middleware.CallerID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(PostResponse{Post: post})
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Description The caller becomes the author. is_draft defaults to true.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.PostInput true "Post"
// @Success 201 {object} PostMutationResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var in service.PostInput
	if err := parseJSON(c, &in); err != nil {
		return respondError(c, err)
	}
	post, err := s.postService.Create(c.UserContext(), middleware.CallerID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(PostMutationResponse{
		Message: "Post created successfully",
		Post:    post,
	})
}

// UpdatePost handles PUT and PATCH /api/posts/:id
// @Summary Update a post
// @Description Only the supplied fields change. An explicit null published_at clears the publish time.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body service.PostInput true "Fields to change"
// @Success 200 {object} PostMutationResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in service.PostInput
	if err := parseJSON(c, &in); err != nil {
		return respondError(c, err)
	}
	post, err := s.postService.Update(c.UserContext(), middleware.CallerID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(PostMutationResponse{
		Message: "Post updated successfully",
		Post:    post,
	})
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := s.postService.Delete(c.UserContext(), middleware.CallerID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
