package handlers

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func routeSet(r *gin.Engine) map[string]bool {
	out := make(map[string]bool)
	for _, rt := range r.Routes() {
		out[rt.Method+" "+rt.Path] = true
	}
	return out
}

func TestRegisterAdminRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterAdminRoutes(r.Group("/api/v1/admin"), &stubPayMgr{}, nil)

	routes := routeSet(r)
	require.True(t, routes["POST /api/v1/admin/orders/scan"])
	require.True(t, routes["POST /api/v1/admin/grant"])
	require.True(t, routes["POST /api/v1/admin/features/extend"])
}

func TestRegisterAssetsRoutes_NoMutatingExtend(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterAssetsRoutes(r.Group("/api/v1/assets"), nil, nil, nil)

	routes := routeSet(r)
	require.True(t, routes["GET /api/v1/assets/points"])
	require.True(t, routes["POST /api/v1/assets/points/consume"])
	require.True(t, routes["GET /api/v1/assets/membership"])
	require.True(t, routes["GET /api/v1/assets/features"])
	// by-id extension is an admin compensation tool, not a self-service call
	require.False(t, routes["POST /api/v1/assets/features/extend"])
}
