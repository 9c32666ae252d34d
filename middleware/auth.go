package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"duochat/models"
	"duochat/utils"
)

const identityKey = "identity"

var errMissingToken = errors.New("missing token")

// ResolveIdentity reads a bearer token from the Authorization header, or from
// the token / access_token query parameter for websocket upgrades, and
// returns the caller it belongs to.
func ResolveIdentity(c *gin.Context, secret string) (models.Identity, error) {
	var token string
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return models.Identity{}, errors.New("invalid authorization header format")
		}
		token = parts[1]
	} else if token = c.Query("token"); token == "" {
		token = c.Query("access_token")
	}
	if token == "" {
		return models.Identity{}, errMissingToken
	}

	claims, err := utils.ParseToken(token, secret)
	if err != nil {
		return models.Identity{}, err
	}
	return models.Identity{UserID: claims.UserID}, nil
}

func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := ResolveIdentity(c, secret)
		if errors.Is(err, errMissingToken) {
			utils.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		if err != nil {
			utils.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// GetIdentity returns the caller stored by AuthMiddleware.
func GetIdentity(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	identity, ok := v.(models.Identity)
	return identity, ok
}
