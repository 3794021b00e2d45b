package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ReelMarket/internal/api/domain/actor"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tm := NewTokenManager("testsecret", "reelmarket-identity")
	restaurant := actor.New(uuid.New(), actor.RoleRestaurant)
	validToken, err := tm.GenerateToken(restaurant, time.Hour)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/orders", Middleware(tm), func(c *gin.Context) {
		act, ok := ActorFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": act.ID, "role": act.Role})
	})
	router.POST("/payments/confirm", Middleware(tm), RequireRole(actor.RoleCustomer), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	testCases := []struct {
		name           string
		method         string
		path           string
		authHeader     string
		expectedStatus int
	}{
		{name: "no header", method: http.MethodGet, path: "/orders", expectedStatus: http.StatusUnauthorized},
		{name: "not bearer", method: http.MethodGet, path: "/orders", authHeader: "Basic abc", expectedStatus: http.StatusUnauthorized},
		{name: "invalid token", method: http.MethodGet, path: "/orders", authHeader: "Bearer invalidtoken", expectedStatus: http.StatusUnauthorized},
		{name: "valid token", method: http.MethodGet, path: "/orders", authHeader: "Bearer " + validToken, expectedStatus: http.StatusOK},
		{name: "wrong role", method: http.MethodPost, path: "/payments/confirm", authHeader: "Bearer " + validToken, expectedStatus: http.StatusForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tc.expectedStatus, w.Code)
			if tc.expectedStatus == http.StatusOK {
				assert.Contains(t, w.Body.String(), restaurant.ID.String())
			}
		})
	}
}
