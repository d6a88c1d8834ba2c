package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"household-tracker/internal/domain"
	"household-tracker/internal/repository"
	"household-tracker/internal/service"
)

type categoryRequest struct {
	Name      string `json:"name" binding:"required"`
	EntryType string `json:"entry_type" binding:"required"`
	SubType   string `json:"sub_type" binding:"required"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
}

func (r categoryRequest) toDomain() domain.Category {
	return domain.Category{
		Name:      r.Name,
		EntryType: domain.EntryType(strings.ToLower(strings.TrimSpace(r.EntryType))),
		SubType:   domain.SubCategoryType(strings.ToLower(strings.TrimSpace(r.SubType))),
		Icon:      r.Icon,
		Color:     r.Color,
	}
}

type CategoryResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	EntryType string `json:"entry_type"`
	SubType   string `json:"sub_type"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func (h *Handler) createCategory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.categories.CreateCategory(c.Request.Context(), userID, req.toDomain())
	if err != nil {
		writeCategoryError(c, err)
		return
	}
	c.JSON(http.StatusCreated, categoryToResponse(*created))
}

func (h *Handler) listCategories(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	filter := domain.CategoryFilter{
		EntryType: domain.EntryType(strings.ToLower(strings.TrimSpace(c.Query("type")))),
		SubType:   domain.SubCategoryType(strings.ToLower(strings.TrimSpace(c.Query("sub_type")))),
	}
	if raw := c.Query("include_inactive"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "include_inactive must be a boolean"})
			return
		}
		filter.IncludeInactive = include
	}

	categories, err := h.categories.ListCategories(c.Request.Context(), userID, filter)
	if err != nil {
		writeCategoryError(c, err)
		return
	}
	resp := make([]CategoryResponse, len(categories))
	for i := range categories {
		resp[i] = categoryToResponse(categories[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getCategory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := categoryID(c)
	if !ok {
		return
	}

	category, err := h.categories.GetCategory(c.Request.Context(), userID, id)
	if err != nil {
		writeCategoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, categoryToResponse(*category))
}

func (h *Handler) updateCategory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := categoryID(c)
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.categories.UpdateCategory(c.Request.Context(), userID, id, req.toDomain())
	if err != nil {
		writeCategoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, categoryToResponse(*updated))
}

// deactivateCategory hides the category from new entries; existing entries keep it.
func (h *Handler) deactivateCategory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := categoryID(c)
	if !ok {
		return
	}

	if err := h.categories.DeactivateCategory(c.Request.Context(), userID, id); err != nil {
		writeCategoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deactivated": id})
}

func (h *Handler) deleteCategory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := categoryID(c)
	if !ok {
		return
	}

	if err := h.categories.DeleteCategory(c.Request.Context(), userID, id); err != nil {
		writeCategoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func categoryID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return 0, false
	}
	return id, true
}

func writeCategoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrCategoryExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func categoryToResponse(category domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:        category.ID,
		Name:      category.Name,
		EntryType: string(category.EntryType),
		SubType:   string(category.SubType),
		Icon:      category.Icon,
		Color:     category.Color,
		Active:    category.Active,
		CreatedAt: category.CreatedAt.Format(time.RFC3339),
		UpdatedAt: category.UpdatedAt.Format(time.RFC3339),
	}
}
