// Package handler adapts the resource services to gin.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/topcoder-platform/submissions-api-sub000/internal/api/middleware"
	"github.com/topcoder-platform/submissions-api-sub000/internal/apperr"
	"github.com/topcoder-platform/submissions-api-sub000/internal/model"
	"github.com/topcoder-platform/submissions-api-sub000/internal/service"
	"github.com/topcoder-platform/submissions-api-sub000/pkg/response"
	"github.com/topcoder-platform/submissions-api-sub000/policy"
)

// Service is the use-case surface of one resource.
type Service[T any] interface {
	Create(ctx context.Context, p policy.Principal, body service.Body) (*T, error)
	Get(ctx context.Context, p policy.Principal, id string) (*T, error)
	List(ctx context.Context, p policy.Principal, params map[string]any) (service.Page[T], error)
	Update(ctx context.Context, p policy.Principal, id string, body service.Body, partial bool) (*T, error)
	Delete(ctx context.Context, p policy.Principal, id string) error
}

// ReviewTypeService reads review types without a caller.
type ReviewTypeService interface {
	Create(ctx context.Context, p policy.Principal, body service.Body) (*model.ReviewType, error)
	Get(ctx context.Context, id string) (*model.ReviewType, error)
	List(ctx context.Context, params map[string]any) (service.Page[model.ReviewType], error)
	Update(ctx context.Context, p policy.Principal, id string, body service.Body, partial bool) (*model.ReviewType, error)
	Delete(ctx context.Context, p policy.Principal, id string) error
}

// Handler groups the handlers the router mounts.
type Handler struct {
	Submissions      *Resource[model.Submission]
	Reviews          *Resource[model.Review]
	ReviewSummations *Resource[model.ReviewSummation]
	ReviewTypes      *Resource[model.ReviewType]
	Health           *HealthHandler
}

// NewHandler wraps the services in HTTP resources. search may be nil.
func NewHandler(
	submissions Service[model.Submission],
	reviews Service[model.Review],
	summations Service[model.ReviewSummation],
	reviewTypes ReviewTypeService,
	search Pinger,
) *Handler {
	return &Handler{
		Submissions:      NewResource(submissions),
		Reviews:          NewResource(reviews),
		ReviewSummations: NewResource(summations),
		ReviewTypes:      NewResource[model.ReviewType](reviewTypeAdapter{reviewTypes}),
		Health:           NewHealthHandler(search),
	}
}

// reviewTypeAdapter lets review types share the generic handler.
type reviewTypeAdapter struct {
	ReviewTypeService
}

func (a reviewTypeAdapter) Get(ctx context.Context, _ policy.Principal, id string) (*model.ReviewType, error) {
	return a.ReviewTypeService.Get(ctx, id)
}

func (a reviewTypeAdapter) List(ctx context.Context, _ policy.Principal, params map[string]any) (service.Page[model.ReviewType], error) {
	return a.ReviewTypeService.List(ctx, params)
}

// mustPrincipal returns the authenticated caller or writes a 401.
func mustPrincipal(c *gin.Context) (policy.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, apperr.Unauthorized("No token provided."))
		return policy.Principal{}, false
	}
	return p, true
}

// bindBody decodes a JSON object body. Numbers keep their literal form so
// large legacy ids survive.
func bindBody(c *gin.Context) (service.Body, bool) {
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()

	var body service.Body
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			response.Error(c, apperr.Validation("Request body is required"))
		} else {
			response.Error(c, apperr.Validation("Request body must be a JSON object"))
		}
		return nil, false
	}
	if body == nil {
		response.Error(c, apperr.Validation("Request body must be a JSON object"))
		return nil, false
	}
	return body, true
}

// queryParams flattens the query string, keeping the first value of each
// key.
func queryParams(c *gin.Context) map[string]any {
	values := c.Request.URL.Query()
	params := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}
