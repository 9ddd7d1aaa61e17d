package gin

import (
	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/roster/internal/infrastructure/jwt"
)

// ProtectedGroup creates a router group that requires a bearer token when jwtSecret is set.
// An empty secret leaves the group open.
func ProtectedGroup(router *gin.Engine, path, jwtSecret string) *gin.RouterGroup {
	group := router.Group(path)
	if jwtSecret != "" {
		group.Use(jwt.Middleware(jwtSecret))
	}
	return group
}

// PublicGroup creates a router group without authentication.
func PublicGroup(router *gin.Engine, path string) *gin.RouterGroup {
	return router.Group(path)
}

// SetupAPIRoutesWithPublic returns the public and protected /api/v1 groups.
func SetupAPIRoutesWithPublic(router *gin.Engine, jwtSecret string) (publicGroup, protectedGroup *gin.RouterGroup) {
	publicGroup = PublicGroup(router, "/api/v1")
	protectedGroup = ProtectedGroup(router, "/api/v1", jwtSecret)
	return publicGroup, protectedGroup
}
