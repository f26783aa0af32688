package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/bookit/internal/config"
)

func TestCatalogKey(t *testing.T) {
	e := echo.New()
	key := func(target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		return catalogKey("cache:catalog", c)
	}

	assert.Equal(t, key("/api/experiences?page=1"), key("/api/experiences?page=1"))
	assert.NotEqual(t, key("/api/experiences?page=1"), key("/api/experiences?page=2"))
	assert.Regexp(t, `^cache:catalog:[0-9a-f]{40}$`, key("/api/experiences"))
}

func TestBodyRecorder_StopsAtLimit(t *testing.T) {
	rec := &bodyRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK, limit: 4}
	_, _ = rec.Write([]byte("ab"))
	assert.False(t, rec.truncated)
	_, _ = rec.Write([]byte("cde"))
	assert.True(t, rec.truncated)
	assert.Equal(t, "ab", rec.buf.String())
}

func TestCacheCatalog_DisabledWithoutClient(t *testing.T) {
	e := echo.New()
	calls := 0
	e.GET("/x", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	}, CacheCatalog(config.CacheConfig{Enabled: true}, nil, nil))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, calls)
}
