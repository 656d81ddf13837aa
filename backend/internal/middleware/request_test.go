package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"patas-conectadas/backend/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestID(t *testing.T) {
	router := setupTestGin()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated when absent", "", false},
		{"propagated when uuid", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", true},
		{"replaced when not a uuid", "not-a-uuid", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			got := w.Header().Get(RequestIDHeader)
			if !utils.IsValidUUID(got) {
				t.Fatalf("header %q is not a uuid", got)
			}
			if w.Body.String() != got {
				t.Errorf("context id %q != header id %q", w.Body.String(), got)
			}
			if tt.keep != (got == tt.incoming) {
				t.Errorf("got %q for incoming %q", got, tt.incoming)
			}
		})
	}
}

func TestRequestLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	router := setupTestGin()
	router.Use(RequestID(), RequestLogger(zap.New(core)))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/missing/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/missing/3", "/boom"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("got %d log entries, want 3", len(entries))
	}
	wantLevels := []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		if e.Level != wantLevels[i] {
			t.Errorf("entry %d level = %v, want %v", i, e.Level, wantLevels[i])
		}
	}
	fields := entries[1].ContextMap()
	if fields["route"] != "/missing/:id" || fields["status"] != int64(http.StatusNotFound) {
		t.Errorf("fields = %v", fields)
	}
	if id, _ := fields["request_id"].(string); !utils.IsValidUUID(id) {
		t.Errorf("request_id = %v", fields["request_id"])
	}
}

func TestRecoveryWithLog(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	router := setupTestGin()
	router.Use(RecoveryWithLog(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) {
		panic("kennel on fire")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"error":"internal_error"`) {
		t.Errorf("body = %s", w.Body.String())
	}
	if logs.FilterMessage("Panic recovered").Len() != 1 {
		t.Errorf("panic was not logged: %v", logs.All())
	}
}

func TestSecureHeaders(t *testing.T) {
	router := setupTestGin()
	router.Use(SecureHeaders())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	} {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}
