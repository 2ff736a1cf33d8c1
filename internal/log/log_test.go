package log

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHTTPMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel zapcore.Level
	}{
		{name: "ok", status: http.StatusAccepted, wantLevel: zapcore.DebugLevel},
		{name: "client error", status: http.StatusBadRequest, wantLevel: zapcore.DebugLevel},
		{name: "server error", status: http.StatusServiceUnavailable, wantLevel: zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			h := HTTPMiddleware(zap.New(core).Sugar())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte("hello"))
			}))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/host/tap", nil))

			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("logged %d entries, want 1", len(entries))
			}
			e := entries[0]
			if e.Level != tt.wantLevel {
				t.Errorf("level = %v, want %v", e.Level, tt.wantLevel)
			}
			fields := e.ContextMap()
			if fields["path"] != "/host/tap" || fields["method"] != http.MethodPost {
				t.Errorf("fields = %v, want POST /host/tap", fields)
			}
			if fields["status"] != int64(tt.status) {
				t.Errorf("status field = %v (%T), want %d", fields["status"], fields["status"], tt.status)
			}
			if fields["size"] != int64(5) {
				t.Errorf("size field = %v, want 5", fields["size"])
			}
		})
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Errorf("OrNop(nil) = nil, want a no-op logger")
	}
	l := zap.NewExample().Sugar()
	if OrNop(l) != l {
		t.Errorf("OrNop(l) did not return l")
	}
}
