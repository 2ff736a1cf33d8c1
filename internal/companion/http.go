package companion

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/weatherface/internal/log"
	"github.com/chrissnell/weatherface/pkg/responseformat"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HTTPTransport lets the companion push data items to the face:
//
//	PUT    /data/{path}  body is the item's data map
//	DELETE /data/{path}
//	POST   /events       body is a list of WireEvents
//
// Bodies are JSON, or MessagePack with Content-Type application/x-msgpack.
type HTTPTransport struct {
	addr      string
	logger    *zap.SugaredLogger
	formatter *responseformat.Formatter
	router    *mux.Router

	listeners listeners

	mu     sync.Mutex
	server *http.Server
	bound  net.Addr
	wg     sync.WaitGroup
}

// NewHTTPTransport returns a transport that listens on addr once connected.
func NewHTTPTransport(addr string, logger *zap.SugaredLogger) *HTTPTransport {
	t := &HTTPTransport{
		addr:      addr,
		logger:    log.OrNop(logger),
		formatter: responseformat.NewFormatter(),
	}
	t.router = t.setupRouter()
	return t
}

func (t *HTTPTransport) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(log.HTTPMiddleware(t.logger))

	router.HandleFunc("/data/{path:.+}", t.putData).Methods("PUT")
	router.HandleFunc("/data/{path:.+}", t.deleteData).Methods("DELETE")
	router.HandleFunc("/events", t.postEvents).Methods("POST")
	return router
}

// Handler returns the transport's routes.
func (t *HTTPTransport) Handler() http.Handler {
	return t.router
}

// Addr returns the listening address, or nil before the listener is up.
func (t *HTTPTransport) Addr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bound
}

func (t *HTTPTransport) AddListener(l DataListener)    { t.listeners.add(l) }
func (t *HTTPTransport) RemoveListener(l DataListener) { t.listeners.remove(l) }

// Connect starts listening in the background. A listen failure is reported
// as an unavailable data service.
func (t *HTTPTransport) Connect(ctx context.Context, cb ConnectionCallbacks) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.server != nil {
		return
	}
	t.server = &http.Server{
		Handler:           t.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := t.server

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ln, err := net.Listen("tcp", t.addr)
		if err != nil {
			t.logger.Errorf("companion push server could not listen on %s: %v", t.addr, err)
			t.mu.Lock()
			t.server = nil
			t.mu.Unlock()
			cb.OnConnectionFailed(ReasonAPIUnavailable)
			return
		}
		t.mu.Lock()
		t.bound = ln.Addr()
		t.mu.Unlock()

		t.logger.Infof("companion push server listening on %s", ln.Addr())
		cb.OnConnected()

		go func() {
			<-ctx.Done()
			server.Shutdown(context.Background())
		}()

		if err := server.Serve(ln); err != http.ErrServerClosed {
			t.logger.Errorf("companion push server error: %v", err)
			cb.OnSuspended(CauseServiceDisconnected)
		}
	}()
}

// Disconnect shuts the server down and waits for it to exit.
func (t *HTTPTransport) Disconnect() error {
	t.mu.Lock()
	server := t.server
	t.mu.Unlock()

	var err error
	if server != nil {
		err = server.Shutdown(context.Background())
	}
	t.wg.Wait()

	t.mu.Lock()
	t.server = nil
	t.bound = nil
	t.mu.Unlock()
	return err
}

func (t *HTTPTransport) putData(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := t.formatter.DecodeRequest(r, &data); err != nil {
		t.formatter.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	t.deliver(w, r, []DataEvent{{Type: Changed, Path: itemPath(r), Data: data}})
}

func (t *HTTPTransport) deleteData(w http.ResponseWriter, r *http.Request) {
	t.deliver(w, r, []DataEvent{{Type: Deleted, Path: itemPath(r)}})
}

func (t *HTTPTransport) postEvents(w http.ResponseWriter, r *http.Request) {
	var wire []WireEvent
	if err := t.formatter.DecodeRequest(r, &wire); err != nil {
		t.formatter.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	events, dropped := convert(wire)
	if dropped > 0 {
		t.formatter.WriteError(w, r, http.StatusBadRequest, "unknown event type")
		return
	}
	t.deliver(w, r, events)
}

func (t *HTTPTransport) deliver(w http.ResponseWriter, r *http.Request, events []DataEvent) {
	if t.listeners.len() == 0 {
		t.formatter.WriteError(w, r, http.StatusServiceUnavailable, "face is not listening")
		return
	}
	t.listeners.dispatch(events)
	t.formatter.WriteResponse(w, r, http.StatusAccepted, map[string]int{"accepted": len(events)})
}

func itemPath(r *http.Request) string {
	return "/" + mux.Vars(r)["path"]
}
