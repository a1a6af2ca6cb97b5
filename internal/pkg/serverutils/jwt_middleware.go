package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"enculture-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JwtMiddleware verifies a Bearer token and stores its user_id claim in
// ctx.Locals("user_id"). An empty secret disables the check.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if secret == "" {
			return ctx.Next()
		}

		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Missing token"))
		}

		userID, err := ParseUserToken(secret, authHeader[7:])
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid token"))
		}

		ctx.Locals("user_id", userID)
		return ctx.Next()
	}
}

// RoleAdmin is the "role" claim value that opens operator routes.
const RoleAdmin = "admin"

// AdminMiddleware admits only tokens whose "role" claim is admin. Operator
// routes stay closed while auth is disabled.
func AdminMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if secret == "" {
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(403, "Operator routes are disabled without JWT_SECRET"))
		}

		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Missing token"))
		}
		claims, userID, err := parseClaims(secret, authHeader[7:])
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid token"))
		}
		if role, _ := claims["role"].(string); role != RoleAdmin {
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(403, "Access denied: Admins only"))
		}

		ctx.Locals("user_id", userID)
		return ctx.Next()
	}
}

// ParseUserToken validates an HS256 token and returns its user_id claim.
func ParseUserToken(secret, tokenStr string) (string, error) {
	_, userID, err := parseClaims(secret, tokenStr)
	return userID, err
}

func parseClaims(secret, tokenStr string) (jwt.MapClaims, string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, "", fmt.Errorf("%w: invalid token", apperror.ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, "", fmt.Errorf("%w: invalid claims", apperror.ErrUnauthorized)
	}
	userID, _ := claims["user_id"].(string)
	if strings.TrimSpace(userID) == "" {
		return nil, "", errors.Join(apperror.ErrUnauthorized, errors.New("token has no user_id"))
	}
	return claims, userID, nil
}

// BearerOrQuery reads a token from the Authorization header or the "token"
// query parameter. Browsers cannot set headers on WebSocket upgrades.
func BearerOrQuery(ctx *fiber.Ctx) string {
	if token := ctx.Query("token"); token != "" {
		return token
	}
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}
