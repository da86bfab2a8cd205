package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"expert_review_backend/internal/model"
	"expert_review_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-test-secret-test-secret"

func router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/expert", AuthMiddleware(secret), RoleMiddleware(model.Expert), func(c *gin.Context) {
		util.Success(c, util.GetUserFromContext(c).UserID)
	})
	return r
}

func token(t *testing.T, role model.UserRole) string {
	t.Helper()
	tok, err := util.GenerateJWT(&model.User{BaseModel: model.BaseModel{ID: 5}, Role: role, Email: "x@example.com"}, secret, time.Hour)
	require.NoError(t, err)
	return tok
}

func call(r *gin.Engine, header, query string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/expert"+query, nil)
	if header != "" {
		req.Header.Set("Authorization", "Bearer "+header)
	}
	r.ServeHTTP(w, req)
	return w.Code
}

func TestAuthAndRole(t *testing.T) {
	r := router()

	assert.Equal(t, http.StatusUnauthorized, call(r, "", ""))
	assert.Equal(t, http.StatusUnauthorized, call(r, "garbage", ""))
	assert.Equal(t, http.StatusForbidden, call(r, token(t, model.Candidate), ""))
	assert.Equal(t, http.StatusOK, call(r, token(t, model.Expert), ""))
	assert.Equal(t, http.StatusOK, call(r, token(t, model.Admin), ""), "admins pass expert routes")
	assert.Equal(t, http.StatusOK, call(r, "", "?token="+token(t, model.Expert)))
}
