package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/exportlens/backend/config"
	"github.com/exportlens/backend/internal/domain"
	"github.com/exportlens/backend/internal/usecase"
)

// TestMain sets up the test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	os.Exit(m.Run())
}

// --- Mock implementations backing the real services ---

// mockFetcher is a mock implementation of domain.PageFetcher
type mockFetcher struct {
	html string
	err  error
}

func (m *mockFetcher) FetchPage(ctx context.Context, pageURL string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.html, nil
}

// mockVerdictClient is a mock implementation of domain.ComplianceClient
type mockVerdictClient struct {
	reply     string
	err       error
	gotAPIKey string
}

func (m *mockVerdictClient) RequestVerdict(ctx context.Context, productName, ingredients, apiKey string) (string, error) {
	m.gotAPIKey = apiKey
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"chrome-extension://*", "http://localhost:3000"},
		},
		RateLimit: config.RateLimitConfig{
			PerMinute: 6000,
			Burst:     100,
		},
	}
}

// setupTestRouter wires real services over the given mocks.
func setupTestRouter(fetcher domain.PageFetcher, client domain.ComplianceClient) *gin.Engine {
	handler := NewHandler(
		usecase.NewExtractionService(fetcher),
		usecase.NewAnalysisService(client),
	)
	return SetupRouter(testConfig(), handler)
}

func postJSON(router *gin.Engine, path, payload string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", path, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	return response
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router := setupTestRouter(&mockFetcher{}, &mockVerdictClient{})

		req, _ := http.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		response := decodeBody(t, w)
		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "exportlens-backend" {
			t.Errorf("service = %v, want exportlens-backend", response["service"])
		}
		version, ok := response["version"].(string)
		if !ok || strings.TrimSpace(version) == "" {
			t.Errorf("version = %v, want non-empty string", response["version"])
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter(&mockFetcher{}, &mockVerdictClient{})

		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			req, _ := http.NewRequest(method, "/health", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

// TestExtractEndpoint tests product page extraction end to end over a mock
// fetcher
func TestExtractEndpoint(t *testing.T) {
	productPage := `<html><head><title>海鮮市場</title></head><body>
<h1>天然ぶりの照り焼き</h1>
<table><tr><th>原材料名</th><td>ぶり、しょうゆ、粗糖／増粘剤（加工デンプン）</td></tr></table>
</body></html>`

	t.Run("returns extracted product data", func(t *testing.T) {
		router := setupTestRouter(&mockFetcher{html: productPage}, &mockVerdictClient{})

		w := postJSON(router, "/api/v1/product/extract", `{"url":"https://example.jp/item/42"}`)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d, body %s", w.Code, http.StatusOK, w.Body.String())
		}

		response := decodeBody(t, w)
		product, ok := response["product"].(map[string]interface{})
		if !ok {
			t.Fatalf("response has no product object: %v", response)
		}
		if product["productName"] != "天然ぶりの照り焼き" {
			t.Errorf("productName = %v", product["productName"])
		}
		if product["ingredients"] != "ぶり、しょうゆ、粗糖／増粘剤（加工デンプン）" {
			t.Errorf("ingredients = %v", product["ingredients"])
		}
		if product["sourceUrl"] != "https://example.jp/item/42" {
			t.Errorf("sourceUrl = %v", product["sourceUrl"])
		}

		split, ok := response["split"].(map[string]interface{})
		if !ok {
			t.Fatalf("response has no split object: %v", response)
		}
		raw, _ := split["rawMaterials"].([]interface{})
		if len(raw) != 3 || raw[0] != "ぶり" {
			t.Errorf("rawMaterials = %v", split["rawMaterials"])
		}
		additives, _ := split["additives"].([]interface{})
		if len(additives) != 1 || additives[0] != "増粘剤（加工デンプン）" {
			t.Errorf("additives = %v", split["additives"])
		}
	})

	t.Run("returns 400 for missing url", func(t *testing.T) {
		router := setupTestRouter(&mockFetcher{html: productPage}, &mockVerdictClient{})

		w := postJSON(router, "/api/v1/product/extract", `{}`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
		if decodeBody(t, w)["error"] == nil {
			t.Error("expected error field in response")
		}
	})

	t.Run("returns 400 for invalid JSON", func(t *testing.T) {
		router := setupTestRouter(&mockFetcher{html: productPage}, &mockVerdictClient{})

		w := postJSON(router, "/api/v1/product/extract", `{invalid json}`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("returns 400 when the fetcher rejects the URL", func(t *testing.T) {
		router := setupTestRouter(&mockFetcher{err: domain.ErrInvalidRequest}, &mockVerdictClient{})

		w := postJSON(router, "/api/v1/product/extract", `{"url":"ftp://example.jp/item"}`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("returns 502 with diagnostics when every strategy fails", func(t *testing.T) {
		fetchErr := fmt.Errorf("%w: direct: status 403; allorigins: empty body; corsproxy: status 500; codetabs: status 404", domain.ErrFetchFailed)
		router := setupTestRouter(&mockFetcher{err: fetchErr}, &mockVerdictClient{})

		w := postJSON(router, "/api/v1/product/extract", `{"url":"https://example.jp/item/42"}`)

		if w.Code != http.StatusBadGateway {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadGateway)
		}

		response := decodeBody(t, w)
		if response["error"] != "Could not fetch the product page" {
			t.Errorf("error = %v", response["error"])
		}
		detail, _ := response["detail"].(string)
		if !strings.Contains(detail, "allorigins: empty body") {
			t.Errorf("detail = %q, want per-strategy diagnostics", detail)
		}
	})

	t.Run("returns 422 when the page has no declaration", func(t *testing.T) {
		router := setupTestRouter(&mockFetcher{html: `<body><h1>ぶり</h1></body>`}, &mockVerdictClient{})

		w := postJSON(router, "/api/v1/product/extract", `{"url":"https://example.jp/item/42"}`)

		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
		}
	})
}

// TestSplitEndpoint tests declaration splitting
func TestSplitEndpoint(t *testing.T) {
	t.Run("splits declaration into raw materials and additives", func(t *testing.T) {
		router := setupTestRouter(&mockFetcher{}, &mockVerdictClient{})

		w := postJSON(router, "/api/v1/product/split", `{"ingredients":"ぶり、しょうゆ、粗糖／増粘剤（加工デンプン）、調味料（アミノ酸等）"}`)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var split domain.IngredientSplit
		if err := json.Unmarshal(w.Body.Bytes(), &split); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if !reflect.DeepEqual(split.RawMaterials, []string{"ぶり", "しょうゆ", "粗糖"}) {
			t.Errorf("rawMaterials = %v", split.RawMaterials)
		}
		if !reflect.DeepEqual(split.Additives, []string{"増粘剤（加工デンプン）", "調味料（アミノ酸等）"}) {
			t.Errorf("additives = %v", split.Additives)
		}
	})

	t.Run("no slash puts everything in raw materials", func(t *testing.T) {
		router := setupTestRouter(&mockFetcher{}, &mockVerdictClient{})

		w := postJSON(router, "/api/v1/product/split", `{"ingredients":"米（国産）、食塩"}`)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		// Empty additives are an array, not null.
		if !strings.Contains(w.Body.String(), `"additives":[]`) {
			t.Errorf("body = %s, want empty additives array", w.Body.String())
		}
	})

	t.Run("returns 400 for missing ingredients", func(t *testing.T) {
		router := setupTestRouter(&mockFetcher{}, &mockVerdictClient{})

		w := postJSON(router, "/api/v1/product/split", `{}`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

// TestAnalyzeEndpoint tests compliance analysis end to end over a mock
// verdict client
func TestAnalyzeEndpoint(t *testing.T) {
	okReply := "VERDICT: Export OK\nENGLISH:\nAll ingredients are permitted.\nJAPANESE（日本語）:\nすべての原材料は許可されています。"
	analyzePayload := `{"productName":"ぶり照り焼き","ingredients":"ぶり、しょうゆ／増粘剤（加工デンプン）"}`

	t.Run("returns parsed verdict", func(t *testing.T) {
		router := setupTestRouter(&mockFetcher{}, &mockVerdictClient{reply: okReply})

		w := postJSON(router, "/api/v1/product/analyze", analyzePayload)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d, body %s", w.Code, http.StatusOK, w.Body.String())
		}

		response := decodeBody(t, w)
		if response["verdict"] != "Export OK" {
			t.Errorf("verdict = %v", response["verdict"])
		}
		if response["englishReason"] != "All ingredients are permitted." {
			t.Errorf("englishReason = %v", response["englishReason"])
		}
		if response["japaneseReason"] != "すべての原材料は許可されています。" {
			t.Errorf("japaneseReason = %v", response["japaneseReason"])
		}
		if response["rawResponse"] != okReply {
			t.Errorf("rawResponse = %v", response["rawResponse"])
		}
	})

	t.Run("forwards the caller's API key", func(t *testing.T) {
		client := &mockVerdictClient{reply: okReply}
		router := setupTestRouter(&mockFetcher{}, client)

		payload := `{"productName":"ぶり照り焼き","ingredients":"ぶり","apiKey":"caller-key"}`
		w := postJSON(router, "/api/v1/product/analyze", payload)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		if client.gotAPIKey != "caller-key" {
			t.Errorf("client received API key %q, want caller-key", client.gotAPIKey)
		}
	})

	t.Run("returns 400 for missing fields", func(t *testing.T) {
		router := setupTestRouter(&mockFetcher{}, &mockVerdictClient{reply: okReply})

		for _, payload := range []string{`{}`, `{"productName":"ぶり照り焼き"}`, `{"ingredients":"ぶり"}`} {
			w := postJSON(router, "/api/v1/product/analyze", payload)
			if w.Code != http.StatusBadRequest {
				t.Errorf("payload %s: Status = %d, want %d", payload, w.Code, http.StatusBadRequest)
			}
		}
	})

	t.Run("returns 401 when no API key is available", func(t *testing.T) {
		router := setupTestRouter(&mockFetcher{}, &mockVerdictClient{err: domain.ErrMissingAPIKey})

		w := postJSON(router, "/api/v1/product/analyze", analyzePayload)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("returns 502 for Gemini API failure", func(t *testing.T) {
		clientErr := fmt.Errorf("%w: status 503", domain.ErrGeminiAPIFailure)
		router := setupTestRouter(&mockFetcher{}, &mockVerdictClient{err: clientErr})

		w := postJSON(router, "/api/v1/product/analyze", analyzePayload)

		if w.Code != http.StatusBadGateway {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadGateway)
		}
		response := decodeBody(t, w)
		if response["error"] != "Gemini API temporarily unavailable" {
			t.Errorf("error = %v", response["error"])
		}
		detail, _ := response["detail"].(string)
		if !strings.Contains(detail, "status 503") {
			t.Errorf("detail = %q, want the upstream status", detail)
		}
	})

	t.Run("returns 502 when the reply has no verdict line", func(t *testing.T) {
		router := setupTestRouter(&mockFetcher{}, &mockVerdictClient{reply: "I cannot assess this."})

		w := postJSON(router, "/api/v1/product/analyze", analyzePayload)

		if w.Code != http.StatusBadGateway {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadGateway)
		}
		response := decodeBody(t, w)
		if response["error"] != "Model reply did not contain a verdict" {
			t.Errorf("error = %v", response["error"])
		}
		detail, _ := response["detail"].(string)
		if !strings.Contains(detail, "VERDICT") {
			t.Errorf("detail = %q, want the parser diagnostic", detail)
		}
	})

	t.Run("returns 503 when the service is not configured", func(t *testing.T) {
		handler := NewHandler(usecase.NewExtractionService(&mockFetcher{}), nil)
		router := SetupRouter(testConfig(), handler)

		w := postJSON(router, "/api/v1/product/analyze", analyzePayload)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
		errorMsg, _ := decodeBody(t, w)["error"].(string)
		if !strings.Contains(errorMsg, "not configured") {
			t.Errorf("error = %q, want to contain 'not configured'", errorMsg)
		}
	})
}

// TestCORSIntegration tests CORS headers work end-to-end with the full router
func TestCORSIntegration(t *testing.T) {
	t.Run("health endpoint has CORS for the extension", func(t *testing.T) {
		router := setupTestRouter(&mockFetcher{}, &mockVerdictClient{})

		req, _ := http.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "chrome-extension://abcdefghijklmnop")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "chrome-extension://abcdefghijklmnop" {
			t.Errorf("Access-Control-Allow-Origin = %q", got)
		}
		if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
			t.Errorf("Access-Control-Allow-Credentials not set to true")
		}
	})

	t.Run("analyze endpoint has CORS for localhost", func(t *testing.T) {
		router := setupTestRouter(&mockFetcher{}, &mockVerdictClient{})

		req, _ := http.NewRequest("POST", "/api/v1/product/analyze", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
			t.Errorf("Access-Control-Allow-Origin = %q", got)
		}
	})
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	router := setupTestRouter(&mockFetcher{}, &mockVerdictClient{})

	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	req, _ := http.NewRequest("GET", "/panic", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

// TestAPIVersioning tests that API v1 routes are correctly versioned
func TestAPIVersioning(t *testing.T) {
	t.Run("v1 routes are accessible", func(t *testing.T) {
		router := setupTestRouter(&mockFetcher{}, &mockVerdictClient{})

		w := postJSON(router, "/api/v1/product/split", `{"ingredients":"ぶり"}`)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("non-versioned routes return 404", func(t *testing.T) {
		router := setupTestRouter(&mockFetcher{}, &mockVerdictClient{})

		for _, path := range []string{"/api/product/split", "/product/split", "/api/v1/product", "/api/v1/split"} {
			w := postJSON(router, path, `{"ingredients":"ぶり"}`)
			if w.Code != http.StatusNotFound {
				t.Errorf("Path %s: Status = %d, want %d", path, w.Code, http.StatusNotFound)
			}
		}
	})
}

// TestJSONResponses tests that all endpoints respond with JSON
func TestJSONResponses(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"POST", "/api/v1/product/extract"},
		{"POST", "/api/v1/product/split"},
		{"POST", "/api/v1/product/analyze"},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			router := setupTestRouter(&mockFetcher{}, &mockVerdictClient{})

			req, _ := http.NewRequest(endpoint.method, endpoint.path, nil)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
				t.Errorf("Content-Type = %q, want application/json", got)
			}
			var response map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Errorf("Response should be valid JSON, got error: %v", err)
			}
		})
	}
}
