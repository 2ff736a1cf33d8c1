package companion

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chrissnell/weatherface/pkg/responseformat"
	"github.com/vmihailenco/msgpack/v5"
)

func newPushServer(t *testing.T) (*HTTPTransport, *httptest.Server, chan []DataEvent) {
	t.Helper()
	tr := NewHTTPTransport("127.0.0.1:0", nil)
	events := make(chan []DataEvent, 8)
	tr.AddListener(sink(events))
	srv := httptest.NewServer(tr.Handler())
	t.Cleanup(srv.Close)
	return tr, srv, events
}

func do(t *testing.T, method, url, contentType string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, url, err)
	}
	resp.Body.Close()
	return resp
}

func TestHTTPPutWeatherJSON(t *testing.T) {
	_, srv, events := newPushServer(t)

	resp := do(t, http.MethodPut, srv.URL+"/data/weather-data", "application/json",
		[]byte(`{"icon-id": 801, "high-temp": "75", "low-temp": "60"}`))
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}

	got := recv(t, events, "data events")
	if len(got) != 1 || got[0].Type != Changed || got[0].Path != WeatherPath {
		t.Fatalf("events = %+v, want one changed %s event", got, WeatherPath)
	}
	snap, err := DecodeWeather(got[0].Data)
	if err != nil {
		t.Fatalf("DecodeWeather() error = %v", err)
	}
	if *snap.IconCode != 801 || *snap.LowTemp != "60" {
		t.Errorf("snapshot = %+v, want 801/60", snap)
	}
}

func TestHTTPPutMsgPack(t *testing.T) {
	_, srv, events := newPushServer(t)

	body, err := msgpack.Marshal(map[string]any{KeyIconID: 500, KeyHighTemp: "58", KeyLowTemp: "49"})
	if err != nil {
		t.Fatal(err)
	}
	resp := do(t, http.MethodPut, srv.URL+"/data/weather-data", responseformat.ContentTypeMsgPack, body)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}
	got := recv(t, events, "data events")
	snap, err := DecodeWeather(got[0].Data)
	if err != nil {
		t.Fatalf("DecodeWeather() error = %v", err)
	}
	if *snap.IconCode != 500 {
		t.Errorf("icon = %d, want 500", *snap.IconCode)
	}
}

func TestHTTPNestedPathAndDelete(t *testing.T) {
	_, srv, events := newPushServer(t)

	do(t, http.MethodPut, srv.URL+"/data/other/data", "", []byte(`{"x": 1}`))
	if got := recv(t, events, "put event"); got[0].Path != "/other/data" {
		t.Errorf("path = %q, want /other/data", got[0].Path)
	}

	resp := do(t, http.MethodDelete, srv.URL+"/data/weather-data", "", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}
	if got := recv(t, events, "delete event"); got[0].Type != Deleted || got[0].Path != WeatherPath {
		t.Errorf("event = %+v, want deleted %s", got[0], WeatherPath)
	}
}

func TestHTTPPostEvents(t *testing.T) {
	_, srv, events := newPushServer(t)

	body := `[{"type": "changed", "path": "/weather-data", "data": {"icon-id": 200, "high-temp": "90", "low-temp": "70"}},
		{"type": "deleted", "path": "/other-data"}]`
	resp := do(t, http.MethodPost, srv.URL+"/events", "application/json", []byte(body))
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}
	got := recv(t, events, "batch")
	if len(got) != 2 || got[1].Type != Deleted {
		t.Errorf("events = %+v, want the batch of two", got)
	}
}

func TestHTTPRejects(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "bad json", method: http.MethodPut, path: "/data/weather-data", body: `{"icon-id":`, want: http.StatusBadRequest},
		{name: "unknown event type", method: http.MethodPost, path: "/events", body: `[{"type": "moved", "path": "/weather-data"}]`, want: http.StatusBadRequest},
		{name: "wrong method", method: http.MethodGet, path: "/data/weather-data", want: http.StatusMethodNotAllowed},
		{name: "no path", method: http.MethodPut, path: "/data/", body: `{}`, want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv, events := newPushServer(t)
			resp := do(t, tt.method, srv.URL+tt.path, "", []byte(tt.body))
			if resp.StatusCode != tt.want {
				t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, resp.StatusCode, tt.want)
			}
			select {
			case ev := <-events:
				t.Errorf("rejected request delivered %+v", ev)
			default:
			}
		})
	}
}

func TestHTTPWithoutListener(t *testing.T) {
	tr := NewHTTPTransport("127.0.0.1:0", nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/data/weather-data", strings.NewReader(`{}`))
	tr.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestHTTPConnectLifecycle(t *testing.T) {
	tr := NewHTTPTransport("127.0.0.1:0", nil)
	cb := newRecordingCallbacks()
	tr.Connect(context.Background(), cb)
	recv(t, cb.connected, "OnConnected")
	if tr.Addr() == nil {
		t.Fatal("Addr() = nil after OnConnected")
	}

	// A second transport on the same port cannot listen.
	busy := NewHTTPTransport(tr.Addr().String(), nil)
	busyCB := newRecordingCallbacks()
	busy.Connect(context.Background(), busyCB)
	if reason := recv(t, busyCB.failed, "OnConnectionFailed"); reason != ReasonAPIUnavailable {
		t.Errorf("failure reason = %v, want %v", reason, ReasonAPIUnavailable)
	}
	busy.Disconnect()

	addr := tr.Addr().String()
	if err := tr.Disconnect(); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if _, err := net.Dial("tcp", addr); err == nil {
		t.Errorf("server still accepting after Disconnect")
	}
}
