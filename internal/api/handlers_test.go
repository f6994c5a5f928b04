package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sys3222/akshare-mcp-adapter/internal/logging"
	"github.com/sys3222/akshare-mcp-adapter/internal/service"
	"github.com/sys3222/akshare-mcp-adapter/internal/upstream"
)

func testRegistry(t *testing.T) *upstream.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	doc := `{
		"categories": [
			{"name": "equities", "description": "x", "interfaces": [
				{"name": "stock_zh_a_hist", "description": "hist", "example_params": {"symbol": "600519"},
				 "url": "https://internal.example/hist", "method": "GET"}
			]}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	reg, err := upstream.LoadFile(path)
	require.NoError(t, err)
	return reg
}

func TestWhoAmIReturnsResolvedUsername(t *testing.T) {
	h := &handlers{c: &service.Container{}}

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req = req.WithContext(logging.ContextWithUserID(req.Context(), "trader1"))
	rec := httptest.NewRecorder()

	h.whoAmI(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"username":"trader1"}`, rec.Body.String())
}

func TestListInterfacesOmitsUpstreamConnectionDetails(t *testing.T) {
	h := &handlers{c: &service.Container{Registry: testRegistry(t)}}

	req := httptest.NewRequest(http.MethodGet, "/api/mcp-data/interfaces", nil)
	rec := httptest.NewRecorder()

	h.listInterfaces(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "stock_zh_a_hist")
	assert.Contains(t, body, "example_params")
	assert.NotContains(t, body, "internal.example")
}

func TestFetchMarketDataRejectsUnknownInterface(t *testing.T) {
	h := &handlers{c: &service.Container{Registry: testRegistry(t)}}

	req := httptest.NewRequest(http.MethodPost, "/api/mcp-data", strings.NewReader(`{"interface":"no_such_interface","params":{}}`))
	rec := httptest.NewRecorder()

	h.fetchMarketData(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPageParamsDefaultsOnMissingQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/mcp-data", nil)
	page, pageSize := pageParams(req)
	assert.Equal(t, 0, page)
	assert.Equal(t, 0, pageSize)
}

func TestPageParamsParsesQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/mcp-data?"+url.Values{
		"page":      {"2"},
		"page_size": {"50"},
	}.Encode(), nil)
	page, pageSize := pageParams(req)
	assert.Equal(t, 2, page)
	assert.Equal(t, 50, pageSize)
}
