package middleware

import (
	"Rankify/internal/pkg/security"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/smartystreets/goconvey/convey"
)

func newEngine(v *security.TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceMiddleware(), MetricsMiddleware())
	r.GET("/private", AuthMiddleware(v), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetString(UserIDKey), "name": GetIdentity(c).DisplayName})
	})
	r.GET("/public", AuthOptionalMiddleware(v), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetString(UserIDKey)})
	})
	return r
}

func call(r *gin.Engine, path, token string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestAuthMiddleware(t *testing.T) {
	convey.Convey("Given an engine with auth", t, func() {
		v := security.NewTokenValidator("secret", "")
		r := newEngine(v)
		token, err := v.Issue(security.UserClaims{Name: "Ann", RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}, time.Hour)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Valid tokens expose the identity", func() {
			w, body := call(r, "/private", token)
			convey.So(body["user"], convey.ShouldEqual, "u1")
			convey.So(body["name"], convey.ShouldEqual, "Ann")
			convey.So(w.Header().Get(TraceHeader), convey.ShouldNotBeEmpty)
		})

		convey.Convey("Missing tokens get the unauthorized envelope", func() {
			_, body := call(r, "/private", "")
			convey.So(body["Code"], convey.ShouldEqual, float64(401))
		})

		convey.Convey("Optional auth tolerates bad tokens", func() {
			_, body := call(r, "/public", "garbage")
			convey.So(body["user"], convey.ShouldEqual, "")
			_, body = call(r, "/public", token)
			convey.So(body["user"], convey.ShouldEqual, "u1")
		})
	})
}

func TestTraceMiddleware(t *testing.T) {
	convey.Convey("Incoming trace ids are propagated", t, func() {
		r := newEngine(security.NewTokenValidator("s", ""))
		req := httptest.NewRequest(http.MethodGet, "/public", nil)
		req.Header.Set(TraceHeader, "trace-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		convey.So(w.Header().Get(TraceHeader), convey.ShouldEqual, "trace-1")
	})
}
