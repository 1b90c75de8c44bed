// Package response writes the API's JSON bodies and headers.
package response

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/topcoder-platform/submissions-api-sub000/internal/apperr"
)

// Pagination headers set on every list response.
const (
	HeaderPage       = "X-Page"
	HeaderPerPage    = "X-Per-Page"
	HeaderTotal      = "X-Total"
	HeaderTotalPages = "X-Total-Pages"
)

// ErrorBody is the body of every failed request.
type ErrorBody struct {
	Message string `json:"message"`
}

// OK writes v with status 200.
func OK(c *gin.Context, v any) {
	c.JSON(http.StatusOK, v)
}

// Created writes v with status 201.
func Created(c *gin.Context, v any) {
	c.JSON(http.StatusCreated, v)
}

// NoContent writes an empty 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Page writes one page of rows with the pagination headers.
func Page(c *gin.Context, rows any, page, perPage, total, totalPages int) {
	c.Header(HeaderPage, strconv.Itoa(page))
	c.Header(HeaderPerPage, strconv.Itoa(perPage))
	c.Header(HeaderTotal, strconv.Itoa(total))
	c.Header(HeaderTotalPages, strconv.Itoa(totalPages))
	c.JSON(http.StatusOK, rows)
}

// Error writes err with the status of its kind. The error is also recorded
// on the context so the request logger can report it.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(apperr.Status(err), ErrorBody{Message: apperr.Message(err)})
}

// Abort writes err and stops the handler chain.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(apperr.Status(err), ErrorBody{Message: apperr.Message(err)})
}
