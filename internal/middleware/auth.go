// Package middleware provides HTTP middleware components for the application.
// It includes authentication and permission checks for the fiber routes.
package middleware

import (
	"strings"

	"walletledger/internal/models"
	"walletledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// AuthMiddleware validates bearer tokens and stores the caller's claims in
// the request locals.
type AuthMiddleware struct {
	secret []byte
	issuer string
	log    *logrus.Logger
}

func NewAuthMiddleware(secret, issuer string, log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		secret: []byte(secret),
		issuer: issuer,
		log:    log,
	}
}

// Handler validates JWT tokens and adds claims to the request context.
// It checks for:
// - Presence of Authorization header with Bearer token
// - Valid HS256 signature
// - Token expiration and issuer
// - A non-empty owner id
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.Unauthorized(c, "invalid authorization format")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		m.log.WithError(err).WithField("path", c.Path()).Debug("token rejected")
		return utils.Unauthorized(c, "invalid token")
	}

	claims, ok := token.Claims.(*models.UserClaims)
	if !ok || claims.OwnerID == "" {
		return utils.Unauthorized(c, "invalid claims")
	}

	c.Locals("claims", claims)
	c.Locals("ownerID", claims.OwnerID)
	return c.Next()
}

// HasPermission returns a middleware that checks for a specific permission.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.GetUserClaims(c)
		if err != nil {
			return utils.Unauthorized(c, "invalid claims")
		}
		if !claims.HasPermission(permission) {
			return utils.Forbidden(c, "insufficient permissions")
		}
		return c.Next()
	}
}

// AdminAuthMiddleware verifies that the request has valid admin claims.
func AdminAuthMiddleware(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	if claims.Role != models.RoleAdmin {
		return utils.Forbidden(c, "insufficient permissions")
	}
	return c.Next()
}
