package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vietddude/dappwallet/internal/core/domain"
)

const writeTimeout = 10 * time.Second

// wsFrame is the union of every frame exchanged with the extension relay.
// Requests carry ID, Net, Method and Params. Responses echo ID with Result or
// Error. Pushed events carry Event and Data.
type wsFrame struct {
	ID     string          `json:"id,omitempty"`
	Net    string          `json:"net,omitempty"`
	Method string          `json:"method,omitempty"`
	Params []any           `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorObject    `json:"error,omitempty"`
	Event  string          `json:"event,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type wsResult struct {
	resp Response
	err  error
}

// WSExtension relays requests to a browser-side extension over a websocket.
// One relay connection is active at a time; a new one replaces the old.
type WSExtension struct {
	upgrader websocket.Upgrader
	log      *slog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[string]chan wsResult
	subs    map[string]map[uint64]Handler
	nextSub uint64

	writeMu sync.Mutex
}

var _ Extension = (*WSExtension)(nil)

// NewWSExtension creates a relay. An empty allowedOrigins accepts any origin.
func NewWSExtension(allowedOrigins []string) *WSExtension {
	w := &WSExtension{
		log:     slog.Default().With("component", "ws_extension"),
		pending: make(map[string]chan wsResult),
		subs:    make(map[string]map[uint64]Handler),
	}
	w.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			return slices.Contains(allowedOrigins, r.Header.Get("Origin"))
		},
	}
	return w
}

// ServeHTTP upgrades the request and serves the relay until it disconnects.
func (w *WSExtension) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	w.mu.Lock()
	prev := w.conn
	w.conn = conn
	w.mu.Unlock()
	if prev != nil {
		prev.Close()
	}

	w.log.Info("Extension relay connected", "remote", r.RemoteAddr)
	w.readLoop(conn)
}

func (w *WSExtension) readLoop(conn *websocket.Conn) {
	defer w.detach(conn)

	for {
		var frame wsFrame
		if err := conn.ReadJSON(&frame); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				w.log.Debug("Relay read ended", "error", err)
			}
			return
		}

		switch {
		case frame.Event != "":
			w.dispatch(frame.Event, frame.Data)
		case frame.ID != "":
			w.resolve(frame.ID, wsResult{resp: Response{Result: frame.Result, Error: frame.Error}})
		default:
			w.log.Warn("Dropping relay frame without id or event")
		}
	}
}

// detach clears conn if it is still current and fails every pending request.
func (w *WSExtension) detach(conn *websocket.Conn) {
	conn.Close()

	w.mu.Lock()
	if w.conn != conn {
		w.mu.Unlock()
		return
	}
	w.conn = nil
	pending := w.pending
	w.pending = make(map[string]chan wsResult)
	w.mu.Unlock()

	for _, ch := range pending {
		ch <- wsResult{err: domain.ErrBridgeUnavailable}
	}
	w.log.Info("Extension relay disconnected", "failed_pending", len(pending))
}

func (w *WSExtension) resolve(id string, res wsResult) {
	w.mu.Lock()
	ch, ok := w.pending[id]
	delete(w.pending, id)
	w.mu.Unlock()

	if !ok {
		w.log.Debug("Response for unknown request", "id", id)
		return
	}
	ch <- res
}

func (w *WSExtension) dispatch(event string, data json.RawMessage) {
	w.mu.Lock()
	handlers := make([]Handler, 0, len(w.subs[event]))
	for _, h := range w.subs[event] {
		handlers = append(handlers, h)
	}
	w.mu.Unlock()

	for _, h := range handlers {
		h(data)
	}
}

func (w *WSExtension) Available() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn != nil
}

func (w *WSExtension) Request(ctx context.Context, env RequestEnvelope) (Response, error) {
	id := uuid.NewString()
	ch := make(chan wsResult, 1)

	w.mu.Lock()
	conn := w.conn
	if conn == nil {
		w.mu.Unlock()
		return Response{}, domain.ErrBridgeUnavailable
	}
	w.pending[id] = ch
	w.mu.Unlock()

	frame := wsFrame{ID: id, Net: env.Net, Method: env.Method, Params: env.Params}
	if err := w.write(conn, frame); err != nil {
		w.forget(id)
		return Response{}, errors.Join(domain.ErrBridgeUnavailable, err)
	}

	select {
	case res := <-ch:
		return res.resp, res.err
	case <-ctx.Done():
		w.forget(id)
		return Response{}, ctx.Err()
	}
}

func (w *WSExtension) write(conn *websocket.Conn, frame wsFrame) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(frame)
}

func (w *WSExtension) forget(id string) {
	w.mu.Lock()
	delete(w.pending, id)
	w.mu.Unlock()
}

func (w *WSExtension) Subscribe(event string, handler Handler) func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextSub++
	id := w.nextSub
	if w.subs[event] == nil {
		w.subs[event] = make(map[uint64]Handler)
	}
	w.subs[event][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.subs[event], id)
			w.mu.Unlock()
		})
	}
}

// Close drops the active relay connection, failing pending requests.
func (w *WSExtension) Close() error {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
