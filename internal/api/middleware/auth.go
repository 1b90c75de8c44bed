package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/topcoder-platform/submissions-api-sub000/internal/apperr"
	"github.com/topcoder-platform/submissions-api-sub000/pkg/response"
	"github.com/topcoder-platform/submissions-api-sub000/policy"
)

const principalKey = "principal"

// grant type carried by machine-to-machine tokens.
const clientCredentialsGrant = "client-credentials"

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Authenticator verifies bearer tokens and turns their claims into a
// Principal.
type Authenticator struct {
	secret []byte
	issuer string
}

// NewAuthenticator verifies HS256 tokens signed with secret. An empty
// issuer accepts any issuer.
func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer}
}

// Principal parses token and classifies the caller.
func (a *Authenticator) Principal(token string) (policy.Principal, error) {
	opts := []jwtv5.ParserOption{jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(a.issuer))
	}

	claims := jwtv5.MapClaims{}
	_, err := jwtv5.ParseWithClaims(token, claims, func(*jwtv5.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return policy.Principal{}, ErrTokenExpired
		}
		return policy.Principal{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return principalFromClaims(claims), nil
}

// principalFromClaims reads the platform claims. Human claims are
// namespaced ("https://<domain>/roles"), so they are matched by suffix.
func principalFromClaims(claims jwtv5.MapClaims) policy.Principal {
	userID := stringClaim(claimBySuffix(claims, "userId"))
	scope, _ := claims["scope"].(string)
	grant, _ := claims["gty"].(string)

	if grant == clientCredentialsGrant || (userID == "" && scope != "") {
		return policy.Service(strings.Fields(scope)...)
	}

	var roles []string
	if raw, ok := claimBySuffix(claims, "roles").([]any); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				roles = append(roles, s)
			}
		}
	}
	handle := stringClaim(claimBySuffix(claims, "handle"))
	return policy.Human(userID, handle, roles...)
}

func claimBySuffix(claims jwtv5.MapClaims, suffix string) any {
	if v, ok := claims[suffix]; ok {
		return v
	}
	for k, v := range claims {
		if strings.HasSuffix(k, "/"+suffix) {
			return v
		}
	}
	return nil
}

func stringClaim(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatInt(int64(t), 10)
	default:
		return ""
	}
}

// JWTAuth requires a valid bearer token and stores the caller's Principal
// on the context.
func JWTAuth(a *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, apperr.Unauthorized("No token provided."))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Abort(c, apperr.Unauthorized("Invalid authorization header"))
			return
		}

		p, err := a.Principal(parts[1])
		if err != nil {
			msg := "Invalid Token."
			if errors.Is(err, ErrTokenExpired) {
				msg = "Token has expired."
			}
			response.Abort(c, apperr.Wrap(apperr.KindUnauthorized, msg, err))
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

// Access lists who may call a route: humans holding any of Roles, or
// services holding any of Scopes.
type Access struct {
	Roles  []string
	Scopes []string
}

// Authorize enforces a route's access list.
func Authorize(access Access) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			response.Abort(c, apperr.Unauthorized("No token provided."))
			return
		}

		allowed := false
		switch p.Kind {
		case policy.KindHuman:
			allowed = p.HasAnyRole(access.Roles...)
		case policy.KindScopedService:
			allowed = p.HasAnyScope(access.Scopes...)
		}
		if !allowed {
			response.Abort(c, apperr.Forbidden("You are not allowed to perform this action!"))
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the Principal stored by JWTAuth.
func PrincipalFrom(c *gin.Context) (policy.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return policy.Principal{}, false
	}
	p, ok := v.(policy.Principal)
	return p, ok
}

// WithPrincipal stores p on the context.
func WithPrincipal(c *gin.Context, p policy.Principal) {
	c.Set(principalKey, p)
}
