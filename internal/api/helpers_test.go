package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/roster/internal/api"
	"github.com/jonesrussell/roster/internal/infrastructure/logger"
)

func setupTestRouter(t *testing.T, contacts api.ContactService, runner api.CrawlRunner) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	if contacts == nil {
		contacts = &mockContactService{}
	}
	if runner == nil {
		runner = &mockCrawlRunner{}
	}

	router := gin.New()
	api.SetupRoutes(router, api.Handlers{
		Contacts: api.NewContactHandler(contacts, logger.NewNop()),
		Crawl:    api.NewCrawlHandler(runner, 20, logger.NewNop()),
	}, "")
	return router
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(t.Context(), method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, w)["error"].(string)
}

func doRequestWith(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
