package middleware

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"github.com/rentwise/api/internal/audit"
)

// ============================================================================
// Chain Tests
// ============================================================================

func TestChain_NoMiddlewares_ReturnsHandler(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("handler"))
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()
	Chain(handler).ServeHTTP(rr, req)

	if rr.Body.String() != "handler" {
		t.Errorf("expected body 'handler', got %q", rr.Body.String())
	}
}

func TestChain_MultipleMiddlewares_AppliesInOrder(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("H"))
	})
	tag := func(s string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(s))
				next.ServeHTTP(w, r)
			})
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()
	Chain(handler, tag("1"), tag("2"), tag("3")).ServeHTTP(rr, req)

	if rr.Body.String() != "123H" {
		t.Errorf("expected '123H', got %q", rr.Body.String())
	}
}

// ============================================================================
// RequestID Tests
// ============================================================================

func TestRequestID_NoHeader_GeneratesNew(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()
	RequestID(handler).ServeHTTP(rr, req)

	id := GetRequestID(handler.ctx)
	if len(id) != 36 {
		t.Errorf("expected generated UUID request id, got %q", id)
	}
	if rr.Header().Get("X-Request-ID") != id {
		t.Errorf("expected response header to echo %q, got %q", id, rr.Header().Get("X-Request-ID"))
	}
}

func TestRequestID_WithHeader_PreservesExisting(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	rr := httptest.NewRecorder()
	RequestID(handler).ServeHTTP(rr, req)

	if got := GetRequestID(handler.ctx); got != "req-abc" {
		t.Errorf("expected 'req-abc', got %q", got)
	}
}

func TestGetRequestID_WrongType_ReturnsEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.WithValue(context.Background(), RequestIDKey, 42)

	if got := GetRequestID(ctx); got != "" {
		t.Errorf("expected empty string for wrong type, got %q", got)
	}
}

// ============================================================================
// ClientIP Tests
// ============================================================================

var testProxies = []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

func resolvedIP(t *testing.T, trusted []netip.Prefix, remote string, headers map[string]string) (string, *captureHandler) {
	t.Helper()
	handler := &captureHandler{}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = remote
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	ClientIP(trusted)(handler).ServeHTTP(httptest.NewRecorder(), req)
	return GetClientIP(handler.ctx), handler
}

func TestClientIP_RemoteAddr_StripsPort(t *testing.T) {
	t.Parallel()

	got, handler := resolvedIP(t, testProxies, "203.0.113.9:51234", nil)
	if got != "203.0.113.9" {
		t.Errorf("expected '203.0.113.9', got %q", got)
	}
	if got := audit.ClientIP(handler.ctx); got != "203.0.113.9" {
		t.Errorf("expected audit client ip '203.0.113.9', got %q", got)
	}
}

func TestClientIP_UntrustedPeer_IgnoresForwardingHeaders(t *testing.T) {
	t.Parallel()

	got, _ := resolvedIP(t, testProxies, "203.0.113.9:51234", map[string]string{
		"X-Forwarded-For": "198.51.100.7",
		"X-Real-IP":       "198.51.100.8",
	})
	if got != "203.0.113.9" {
		t.Errorf("expected socket address for untrusted peer, got %q", got)
	}
}

func TestClientIP_NoTrustedProxies_IgnoresForwardingHeaders(t *testing.T) {
	t.Parallel()

	got, _ := resolvedIP(t, nil, "10.0.0.1:80", map[string]string{"X-Forwarded-For": "198.51.100.7"})
	if got != "10.0.0.1" {
		t.Errorf("expected socket address, got %q", got)
	}
}

func TestClientIP_TrustedProxy_UsesRightMostUntrustedHop(t *testing.T) {
	t.Parallel()

	// The left-most hop is whatever the client claimed; only the hop the
	// trusted proxy appended is believed.
	got, _ := resolvedIP(t, testProxies, "10.0.0.1:80", map[string]string{
		"X-Forwarded-For": " 1.2.3.4 , 198.51.100.7, 10.0.0.2",
	})
	if got != "198.51.100.7" {
		t.Errorf("expected right-most untrusted hop, got %q", got)
	}
}

func TestClientIP_TrustedProxy_GarbageHopStopsWalk(t *testing.T) {
	t.Parallel()

	got, _ := resolvedIP(t, testProxies, "10.0.0.1:80", map[string]string{
		"X-Forwarded-For": "198.51.100.7, not-an-ip, 10.0.0.2",
	})
	if got != "10.0.0.2" {
		t.Errorf("expected last trusted hop, got %q", got)
	}
}

func TestClientIP_TrustedProxy_RealIPHeader_Used(t *testing.T) {
	t.Parallel()

	got, _ := resolvedIP(t, testProxies, "10.0.0.1:80", map[string]string{"X-Real-IP": "198.51.100.8"})
	if got != "198.51.100.8" {
		t.Errorf("expected X-Real-IP value, got %q", got)
	}
}

func TestClientIP_UnparseableRemoteAddr_KeptVerbatim(t *testing.T) {
	t.Parallel()

	got, _ := resolvedIP(t, testProxies, "pipe", map[string]string{"X-Forwarded-For": "198.51.100.7"})
	if got != "pipe" {
		t.Errorf("expected 'pipe', got %q", got)
	}
}

// ============================================================================
// Recovery Tests
// ============================================================================

func TestRecovery_NoPanic_ProceedsNormally(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("success"))
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()
	Recovery(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Body.String() != "success" {
		t.Errorf("expected body 'success', got %q", rr.Body.String())
	}
}

func TestRecovery_WithPanic_WritesProblemDocument(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("something went wrong")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()
	Recovery(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("expected problem+json content type, got %q", ct)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body, got %q", rr.Body.String())
	}
	if body["title"] != "Internal Server Error" {
		t.Errorf("expected internal error title, got %v", body["title"])
	}
	if !strings.HasSuffix(body["type"].(string), "/internal") {
		t.Errorf("expected internal problem type, got %v", body["type"])
	}
}

// ============================================================================
// CORS Tests
// ============================================================================

func TestCORS_AllowedOrigin_SetsHeader(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "https://app.rentwise.app")
	rr := httptest.NewRecorder()

	CORS([]string{"https://app.rentwise.app"})(handler).ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.rentwise.app" {
		t.Errorf("expected origin to be echoed, got %q", got)
	}
}

func TestCORS_DisallowedOrigin_NoHeader(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr := httptest.NewRecorder()

	CORS([]string{"https://app.rentwise.app"})(handler).ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no Allow-Origin header, got %q", got)
	}
}

func TestCORS_WildcardOrigin_AllowsAny(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "https://anything.example")
	rr := httptest.NewRecorder()

	CORS([]string{"*"})(handler).ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://anything.example" {
		t.Errorf("expected wildcard to allow origin, got %q", got)
	}
}

func TestCORS_Preflight_Returns204AndAllowsTokenHeader(t *testing.T) {
	t.Parallel()

	handler := &captureHandler{}
	req := httptest.NewRequest(http.MethodOptions, "/custom/userTracking", nil)
	req.Header.Set("Origin", "https://app.rentwise.app")
	rr := httptest.NewRecorder()

	CORS([]string{"https://app.rentwise.app"})(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", rr.Code)
	}
	if handler.called {
		t.Error("preflight should not reach the handler")
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Headers"), SharedSecretHeader) {
		t.Errorf("expected %q in allowed headers, got %q", SharedSecretHeader, rr.Header().Get("Access-Control-Allow-Headers"))
	}
	methods := rr.Header().Get("Access-Control-Allow-Methods")
	for _, m := range []string{"PUT", "PATCH", "DELETE"} {
		if !strings.Contains(methods, m) {
			t.Errorf("expected %s in allowed methods, got %q", m, methods)
		}
	}
}

// ============================================================================
// Compress Tests
// ============================================================================

func TestCompress_AcceptsGzip_CompressesResponse(t *testing.T) {
	t.Parallel()

	const payload = `{"data":[{"id":"listings:1","title":"Sunny loft"}]}`
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	})

	req := httptest.NewRequest(http.MethodGet, "/custom/listings", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rr := httptest.NewRecorder()
	Compress(handler).ServeHTTP(rr, req)

	if enc := rr.Header().Get("Content-Encoding"); enc != "gzip" {
		t.Fatalf("expected Content-Encoding 'gzip', got %q", enc)
	}

	reader, err := gzip.NewReader(rr.Body)
	if err != nil {
		t.Fatalf("failed to create gzip reader: %v", err)
	}
	defer func() { _ = reader.Close() }()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("failed to read decompressed data: %v", err)
	}
	if string(decompressed) != payload {
		t.Errorf("decompressed content mismatch: %q", string(decompressed))
	}
}

func TestCompress_NoGzipAccept_DoesNotCompress(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plain"))
	})

	req := httptest.NewRequest(http.MethodGet, "/custom/listings", nil)
	rr := httptest.NewRecorder()
	Compress(handler).ServeHTTP(rr, req)

	if rr.Header().Get("Content-Encoding") == "gzip" {
		t.Error("should not compress without gzip Accept-Encoding")
	}
	if rr.Body.String() != "plain" {
		t.Errorf("expected uncompressed body, got %q", rr.Body.String())
	}
}

func TestCompress_ImageDownload_PassesThrough(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})

	req := httptest.NewRequest(http.MethodGet, "/custom/images/65f000000000000000000001", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	Compress(handler).ServeHTTP(rr, req)

	if rr.Header().Get("Content-Encoding") == "gzip" {
		t.Error("should not compress image downloads")
	}
}

// ============================================================================
// Logger Tests
// ============================================================================

func TestResponseWriter_CapturesStatusCode(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rr, statusCode: http.StatusOK}
	rw.WriteHeader(http.StatusCreated)

	if rw.statusCode != http.StatusCreated {
		t.Errorf("expected captured status 201, got %d", rw.statusCode)
	}
	if rr.Code != http.StatusCreated {
		t.Errorf("expected underlying status 201, got %d", rr.Code)
	}
}

func TestLogger_CompletesRequest(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	})

	req := httptest.NewRequest(http.MethodPost, "/generic/listings", nil)
	rr := httptest.NewRecorder()
	Chain(handler, RequestID, ClientIP(nil), Logger).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, rr.Code)
	}
	if rr.Body.String() != "created" {
		t.Errorf("expected body 'created', got %q", rr.Body.String())
	}
}
