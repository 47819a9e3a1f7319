package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"backend/internal/model"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

// SetTokenCookie sets the access token as an HttpOnly cookie
func SetTokenCookie(c *gin.Context, accessToken string) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	// access_token: 24h, path=/, domain="", secure, HttpOnly
	c.SetCookie("access_token", accessToken, 3600*24, "/", "", secure, true)
}

// ClearTokenCookie removes the access token cookie
func ClearTokenCookie(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
}

// extractToken pulls the JWT from the access_token cookie, falling back to
// the Authorization header.
func extractToken(c *gin.Context) (string, error) {
	if tokenString, err := c.Cookie("access_token"); err == nil && tokenString != "" {
		return tokenString, nil
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization is missing")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid authorization format, expected 'Bearer <token>'")
	}
	return parts[1], nil
}

// RequireRole validates the JWT token and checks that the actor's role is
// in the allowed list. The parsed identity is stored on the context for
// handlers via CurrentActor.
func RequireRole(allowedRoles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := extractToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return GetJWTSecret(), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		roleClaim, ok := claims["role"].(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Role not found in token"))
			return
		}

		role, err := model.ParseRole(roleClaim)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Unknown role in token"))
			return
		}

		roleAllowed := false
		for _, allowed := range allowedRoles {
			if role == allowed {
				roleAllowed = true
				break
			}
		}
		if !roleAllowed {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		c.Set("userID", claims["sub"])
		c.Set("userRole", role)

		c.Next()
	}
}

// RequireAuth admits any authenticated actor regardless of role.
func RequireAuth() gin.HandlerFunc {
	return RequireRole(model.RoleUser, model.RoleAdmin)
}

// RequireAdmin admits admin actors only.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(model.RoleAdmin)
}

// CurrentActor returns the authenticated actor's id and role as stored by
// RequireRole. Calling it on an unauthenticated route is a programming
// error and yields an error.
func CurrentActor(c *gin.Context) (uuid.UUID, model.Role, error) {
	idValue, exists := c.Get("userID")
	if !exists {
		return uuid.Nil, "", errors.New("no authenticated actor on context")
	}
	idStr, ok := idValue.(string)
	if !ok {
		return uuid.Nil, "", errors.New("actor id has unexpected type")
	}
	actorID, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, "", err
	}

	roleValue, exists := c.Get("userRole")
	if !exists {
		return uuid.Nil, "", errors.New("no actor role on context")
	}
	role, ok := roleValue.(model.Role)
	if !ok {
		return uuid.Nil, "", errors.New("actor role has unexpected type")
	}

	return actorID, role, nil
}
