package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	userdomain "github.com/paysynclabs/paysync/internal/user/domain"
	userservice "github.com/paysynclabs/paysync/internal/user/service"
)

const contextUserKey = "auth_user"

// APIKeyRequired authenticates requests with a bearer API key. Identity
// is derived solely from the api_keys table.
func (s *Server) APIKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		hash := userservice.HashAPIKey(parts[1])
		user, err := s.userRepo.FindByAPIKeyHash(c.Request.Context(), nil, hash)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if user == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

// AdminRequired rejects non-admin callers before any work begins.
func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := s.userFromContext(c)
		if user == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if user.Role != userdomain.RoleAdmin {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func (s *Server) userFromContext(c *gin.Context) *userdomain.User {
	value, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	user, _ := value.(*userdomain.User)
	return user
}
