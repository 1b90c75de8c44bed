// Package router builds the gin engine.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/topcoder-platform/submissions-api-sub000/internal/api/handler"
	"github.com/topcoder-platform/submissions-api-sub000/internal/api/middleware"
	"github.com/topcoder-platform/submissions-api-sub000/policy"
)

// BasePath prefixes every resource route.
const BasePath = "/v5"

const (
	admin   = policy.RoleAdministrator
	member  = policy.RoleTopcoderUser
	copilot = policy.RoleCopilot
)

// access returns the access list for an operation on a resource scope
// such as "submission". "all:<scope>" grants every operation.
func access(scope, op string, roles ...string) middleware.Access {
	return middleware.Access{
		Roles:  roles,
		Scopes: []string{op + ":" + scope, "all:" + scope},
	}
}

// resourceRoutes are the access lists of one resource's routes.
type resourceRoutes struct {
	create, read, list, update, remove middleware.Access
}

func mount[T any](g *gin.RouterGroup, path string, h *handler.Resource[T], routes resourceRoutes) {
	r := g.Group(path)
	r.POST("", middleware.Authorize(routes.create), h.Create)
	r.GET("", middleware.Authorize(routes.list), h.List)
	r.HEAD("", middleware.Authorize(routes.list), h.List)
	r.GET("/:id", middleware.Authorize(routes.read), h.Get)
	r.HEAD("/:id", middleware.Authorize(routes.read), h.Head)
	r.PUT("/:id", middleware.Authorize(routes.update), h.Update)
	r.PATCH("/:id", middleware.Authorize(routes.update), h.Patch)
	r.DELETE("/:id", middleware.Authorize(routes.remove), h.Delete)
}

// Setup returns the engine serving every route.
func Setup(h *handler.Handler, auth *middleware.Authenticator, logger *zap.Logger, mode string) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	r.GET("/health", h.Health.Check)

	v5 := r.Group(BasePath)
	v5.Use(middleware.JWTAuth(auth))

	mount(v5, "/submissions", h.Submissions, resourceRoutes{
		create: access("submission", "create", admin, member, copilot),
		read:   access("submission", "read", admin, member, copilot),
		list:   access("submission", "read", admin, copilot),
		update: access("submission", "update", admin),
		remove: access("submission", "delete", admin),
	})
	mount(v5, "/reviews", h.Reviews, resourceRoutes{
		create: access("review", "create", admin, copilot),
		read:   access("review", "read", admin, member, copilot),
		list:   access("review", "read", admin, copilot),
		update: access("review", "update", admin),
		remove: access("review", "delete", admin),
	})
	mount(v5, "/reviewSummations", h.ReviewSummations, resourceRoutes{
		create: access("review_summation", "create", admin, copilot),
		read:   access("review_summation", "read", admin, copilot),
		list:   access("review_summation", "read", admin, copilot),
		update: access("review_summation", "update", admin),
		remove: access("review_summation", "delete", admin),
	})
	mount(v5, "/reviewTypes", h.ReviewTypes, resourceRoutes{
		create: access("review_type", "create", admin),
		read:   access("review_type", "read", admin, member, copilot),
		list:   access("review_type", "read", admin, member, copilot),
		update: access("review_type", "update", admin),
		remove: access("review_type", "delete", admin),
	})

	return r
}
