package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/topcoder-platform/submissions-api-sub000/pkg/response"
)

// Resource serves the CRUD routes of one resource.
type Resource[T any] struct {
	svc Service[T]
}

func NewResource[T any](svc Service[T]) *Resource[T] {
	return &Resource[T]{svc: svc}
}

// Create handles POST /{resource}.
func (h *Resource[T]) Create(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	body, ok := bindBody(c)
	if !ok {
		return
	}
	v, err := h.svc.Create(c.Request.Context(), p, body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, v)
}

// Get handles GET /{resource}/:id.
func (h *Resource[T]) Get(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	v, err := h.svc.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, v)
}

// Head handles HEAD /{resource}/:id.
func (h *Resource[T]) Head(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	if _, err := h.svc.Get(c.Request.Context(), p, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// List handles GET /{resource}.
func (h *Resource[T]) List(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	page, err := h.svc.List(c.Request.Context(), p, queryParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	rows := page.Rows
	if rows == nil {
		rows = []T{}
	}
	response.Page(c, rows, page.Page, page.PageSize, page.Total, page.TotalPages())
}

// Update handles PUT /{resource}/:id.
func (h *Resource[T]) Update(c *gin.Context) {
	h.update(c, false)
}

// Patch handles PATCH /{resource}/:id.
func (h *Resource[T]) Patch(c *gin.Context) {
	h.update(c, true)
}

func (h *Resource[T]) update(c *gin.Context, partial bool) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	body, ok := bindBody(c)
	if !ok {
		return
	}
	v, err := h.svc.Update(c.Request.Context(), p, c.Param("id"), body, partial)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, v)
}

// Delete handles DELETE /{resource}/:id.
func (h *Resource[T]) Delete(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
