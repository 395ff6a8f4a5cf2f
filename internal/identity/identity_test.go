package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatic(t *testing.T) {
	id, ok := Static("user-1").CurrentUserID()
	assert.True(t, ok)
	assert.Equal(t, "user-1", id)

	_, ok = Static("").CurrentUserID()
	assert.False(t, ok)

	_, ok = Static("bad id with spaces").CurrentUserID()
	assert.False(t, ok)
}

func TestEnv(t *testing.T) {
	t.Setenv("PLANNER_TEST_USER", " someone@example.com ")
	id, ok := Env("PLANNER_TEST_USER").CurrentUserID()
	assert.True(t, ok)
	assert.Equal(t, "someone@example.com", id)

	t.Setenv("PLANNER_TEST_USER", "")
	_, ok = Env("PLANNER_TEST_USER").CurrentUserID()
	assert.False(t, ok)
}

func TestScope(t *testing.T) {
	assert.Equal(t, "u1", Scope(Static("u1")))
	assert.Equal(t, AnonymousScope, Scope(Static("")))
	assert.Equal(t, AnonymousScope, Scope(nil))
}

func TestContextRoundTrip(t *testing.T) {
	ctx := WithUserID(context.Background(), "abc")
	assert.Equal(t, "abc", UserIDFromContext(ctx))
	assert.Equal(t, "", UserIDFromContext(context.Background()))
}

func TestMiddleware(t *testing.T) {
	var got string
	h := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = UserIDFromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?userId=u-42", nil))
	assert.Equal(t, "u-42", got)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(UserIDHeader, "u-43")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "u-43", got)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?userId=%3Cscript%3E", nil))
	assert.Equal(t, "", got)
}
