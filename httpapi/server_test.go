package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/flapjackhq/flapjack/ingest"
	"github.com/flapjackhq/flapjack/keystore"
	"github.com/flapjackhq/flapjack/orchestrator"
	"github.com/flapjackhq/flapjack/searchindex"
	"github.com/flapjackhq/flapjack/settingsstore"
)

func newTestServer(t *testing.T, adminKey string) (*Server, *searchindex.MemoryIndex) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	idx := searchindex.NewMemoryIndex()
	settings, err := settingsstore.New(t.TempDir())
	require.NoError(t, err)

	var keys keystore.Store
	if adminKey != "" {
		fileKeys, err := keystore.NewFileStore(t.TempDir() + "/keys.yaml")
		require.NoError(t, err)
		keys = fileKeys
	}

	srv := New(orchestrator.New(idx), ingest.New(idx), idx, settings, keys, adminKey)
	return srv, idx
}

func doJSON(t *testing.T, srv *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, "")
	w := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBatchThenQuery(t *testing.T) {
	srv, _ := newTestServer(t, "")

	w := doJSON(t, srv, http.MethodPost, "/1/indexes/products/batch", `{"requests":[
		{"action":"addObject","body":{"objectID":"1","name":"laptop"}},
		{"action":"addObject","body":{"objectID":"2","name":"lapdog"}}
	]}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, gjson.Get(w.Body.String(), "taskID").Exists())

	w = doJSON(t, srv, http.MethodPost, "/1/indexes/products/query", `{"query":"lap"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Equal(t, int64(2), gjson.Get(body, "nbHits").Int())
	assert.Equal(t, "lap", gjson.Get(body, "query").String())
	assert.Equal(t, "products", gjson.Get(body, "index").String())
	assert.True(t, gjson.Get(body, "exhaustive.nbHits").Bool())
}

func TestQueryFuzzyMatch(t *testing.T) {
	srv, _ := newTestServer(t, "")

	doJSON(t, srv, http.MethodPost, "/1/indexes/products/batch", `{"requests":[
		{"action":"addObject","body":{"objectID":"1","name":"laptop"}},
		{"action":"addObject","body":{"objectID":"2","name":"lapdog"}}
	]}`, nil)

	w := doJSON(t, srv, http.MethodPost, "/1/indexes/products/query", `{"query":"laptp"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Equal(t, int64(1), gjson.Get(body, "nbHits").Int())
	assert.Equal(t, "1", gjson.Get(body, "hits.0.objectID").String())
}

func TestMultiQuery(t *testing.T) {
	srv, _ := newTestServer(t, "")

	doJSON(t, srv, http.MethodPost, "/1/indexes/products/batch", `{"objectID":"1","name":"laptop"}`, nil)

	w := doJSON(t, srv, http.MethodPost, "/1/indexes/products/queries", `{"requests":[
		{"indexName":"products","query":"laptop"},
		{"indexName":"products","query":"nothing-matches-this"}
	]}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Equal(t, int64(1), gjson.Get(body, "results.0.nbHits").Int())
	assert.Equal(t, int64(0), gjson.Get(body, "results.1.nbHits").Int())
}

func TestGetObjectsInBandNulls(t *testing.T) {
	srv, _ := newTestServer(t, "")

	doJSON(t, srv, http.MethodPost, "/1/indexes/products/batch", `{"objectID":"1","name":"laptop"}`, nil)

	w := doJSON(t, srv, http.MethodPost, "/1/indexes/products/objects", `{"requests":[
		{"indexName":"products","objectID":"1"},
		{"indexName":"products","objectID":"missing"}
	]}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, "laptop", gjson.Get(body, "results.0.name").String())
	assert.Equal(t, gjson.Null, gjson.Get(body, "results.1").Type)
}

func TestSettingsRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t, "")

	w := doJSON(t, srv, http.MethodPut, "/1/indexes/products/settings", `{
		"searchableAttributes":["name"],
		"attributesForFaceting":["brand"],
		"distinct":2
	}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, srv, http.MethodGet, "/1/indexes/products/settings", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, "name", gjson.Get(body, "searchableAttributes.0").String())
	assert.Equal(t, int64(2), gjson.Get(body, "distinct").Int())
}

func TestIndexLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, "")

	w := doJSON(t, srv, http.MethodPost, "/1/indexes", `{"name":"products"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, srv, http.MethodGet, "/1/indexes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "products", gjson.Get(w.Body.String(), "items.0.name").String())

	w = doJSON(t, srv, http.MethodDelete, "/1/indexes/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/1/indexes", "", nil)
	assert.Equal(t, int64(0), gjson.Get(w.Body.String(), "items.#").Int())
}

func TestAuthRejectsMissingKey(t *testing.T) {
	srv, _ := newTestServer(t, "super-secret-admin-key")

	w := doJSON(t, srv, http.MethodPost, "/1/indexes/products/query", `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "message")
}

func TestAuthAcceptsAdminKey(t *testing.T) {
	srv, _ := newTestServer(t, "super-secret-admin-key")

	w := doJSON(t, srv, http.MethodPost, "/1/indexes/products/query", `{}`, map[string]string{
		headerAPIKey: "super-secret-admin-key",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestAuthRejectsWrongKey(t *testing.T) {
	srv, _ := newTestServer(t, "super-secret-admin-key")

	w := doJSON(t, srv, http.MethodPost, "/1/indexes/products/query", `{}`, map[string]string{
		headerAPIKey: "not-the-key",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSecuredKeyForcesFilterAndCapsHits(t *testing.T) {
	adminKey := "super-secret-admin-key"
	srv, _ := newTestServer(t, adminKey)

	headers := map[string]string{headerAPIKey: adminKey}
	doJSON(t, srv, http.MethodPost, "/1/indexes/products/batch", `{"requests":[
		{"action":"addObject","body":{"objectID":"1","name":"widget","tenant":42}},
		{"action":"addObject","body":{"objectID":"2","name":"widget","tenant":7}}
	]}`, headers)

	secured := keystore.GenerateSecuredKey(adminKey, keystore.Restriction{
		Filters:        "tenant = 42",
		MaxHitsPerPage: 10,
	})

	w := doJSON(t, srv, http.MethodPost, "/1/indexes/products/query", `{"query":"widget","hitsPerPage":50}`, map[string]string{
		headerAPIKey: secured,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Equal(t, int64(1), gjson.Get(body, "nbHits").Int())
	assert.Equal(t, "1", gjson.Get(body, "hits.0.objectID").String())
	assert.Equal(t, int64(10), gjson.Get(body, "hitsPerPage").Int())
}

func TestSecuredKeyIndexRestriction(t *testing.T) {
	adminKey := "super-secret-admin-key"
	srv, _ := newTestServer(t, adminKey)

	secured := keystore.GenerateSecuredKey(adminKey, keystore.Restriction{
		RestrictIndices: []string{"allowed_*"},
	})

	w := doJSON(t, srv, http.MethodPost, "/1/indexes/forbidden/query", `{}`, map[string]string{
		headerAPIKey: secured,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, "")

	w := doJSON(t, srv, http.MethodPost, "/1/indexes/products/batch", `{"objectID":"1"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	taskID := gjson.Get(w.Body.String(), "taskID").String()

	w = doJSON(t, srv, http.MethodGet, "/1/tasks/"+taskID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "published", gjson.Get(w.Body.String(), "status").String())

	w = doJSON(t, srv, http.MethodGet, "/1/tasks/999999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownRouteRejected(t *testing.T) {
	srv, _ := newTestServer(t, "")
	w := doJSON(t, srv, http.MethodPost, "/1/not-a-route", `{}`, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestKeyManagement(t *testing.T) {
	adminKey := "super-secret-admin-key"
	srv, _ := newTestServer(t, adminKey)
	headers := map[string]string{headerAPIKey: adminKey}

	w := doJSON(t, srv, http.MethodPost, "/1/keys", `{"description":"ci key","acl":["search"]}`, headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	keyID := gjson.Get(w.Body.String(), "id").String()
	secret := gjson.Get(w.Body.String(), "value").String()
	require.NotEmpty(t, keyID)
	require.NotEmpty(t, secret)

	// The stored key authenticates as (application-id, api-key) and can
	// search but not administer keys.
	keyHeaders := map[string]string{headerAppID: keyID, headerAPIKey: secret}
	w = doJSON(t, srv, http.MethodPost, "/1/indexes/products/query", `{}`, keyHeaders)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = doJSON(t, srv, http.MethodGet, "/1/keys", "", keyHeaders)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, srv, http.MethodDelete, "/1/keys/"+keyID, "", headers)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, srv, http.MethodGet, "/1/keys/"+keyID, "", headers)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResponseFieldsWhitelist(t *testing.T) {
	srv, _ := newTestServer(t, "")

	doJSON(t, srv, http.MethodPost, "/1/indexes/products/batch", `{"objectID":"1","name":"laptop"}`, nil)

	w := doJSON(t, srv, http.MethodPost, "/1/indexes/products/query", `{"query":"laptop","responseFields":["hits","nbHits"]}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, gjson.Get(body, "hits").Exists())
	assert.True(t, gjson.Get(body, "nbHits").Exists())
	assert.False(t, gjson.Get(body, "page").Exists())
}
