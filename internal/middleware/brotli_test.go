package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

func TestBrotliWriterReportsConsumedBytes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	bw := &brotliWriter{
		ResponseWriter: c.Writer,
		writer:         brotli.NewWriterLevel(c.Writer, brotli.DefaultCompression),
	}

	// 600 bytes buffers below the threshold; the second write crosses it
	// and flushes 1200 buffered bytes. Each call must still report only
	// its own input length.
	chunk := bytes.Repeat([]byte("x"), 600)
	for i := 0; i < 2; i++ {
		n, err := bw.Write(chunk)
		if err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
		if n != len(chunk) {
			t.Errorf("write %d returned %d, want %d", i, n, len(chunk))
		}
	}
}

func brotliTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Brotli())
	r.GET("/big", func(c *gin.Context) {
		c.String(http.StatusOK, strings.Repeat("quiz", 1024))
	})
	r.GET("/small", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestBrotliCompressesLargeResponses(t *testing.T) {
	r := brotliTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/big", nil)
	req.Header.Set("Accept-Encoding", "br")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Content-Encoding"); got != "br" {
		t.Fatalf("Content-Encoding = %q, want br", got)
	}
	decoded, err := io.ReadAll(brotli.NewReader(w.Body))
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(decoded) != strings.Repeat("quiz", 1024) {
		t.Error("decompressed body does not round-trip")
	}
}

func TestBrotliSkipsSmallResponses(t *testing.T) {
	r := brotliTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/small", nil)
	req.Header.Set("Accept-Encoding", "br")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Content-Encoding"); got == "br" {
		t.Error("small response was compressed")
	}
	if w.Body.String() != "ok" {
		t.Errorf("body = %q", w.Body.String())
	}
}
