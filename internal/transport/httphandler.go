package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"rawhttpd/internal/handler"
	"rawhttpd/internal/http/httperr"
	"rawhttpd/internal/http/message"
	"rawhttpd/internal/http/stream"
	"rawhttpd/internal/metrics"
	"rawhttpd/internal/middleware"
	"rawhttpd/internal/registry"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// methodUnknown labels responses to requests whose start line never parsed.
const methodUnknown = "unknown"

// lingerTimeout bounds how long a closing connection drains client input
// after the write side is shut.
const lingerTimeout = 500 * time.Millisecond

type httpHandler struct {
	handler      handler.Handler
	connRegistry registry.Registry
	metrics      metrics.Metrics
	readTimeout  time.Duration
	maxPerHost   int64
	log          *zap.Logger
	now          func() time.Time
}

func newHTTPHandler(h handler.Handler, connRegistry registry.Registry, m metrics.Metrics, readTimeout time.Duration, maxPerHost int64, log *zap.Logger) *httpHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &httpHandler{
		handler:      h,
		connRegistry: connRegistry,
		metrics:      m,
		readTimeout:  readTimeout,
		maxPerHost:   maxPerHost,
		log:          log,
		now:          time.Now,
	}
}

// connection is a net.Conn as the registry tracks it.
type connection struct {
	net.Conn
	id        uuid.UUID
	startedAt time.Time
}

func (c *connection) ID() registry.Key     { return c.id }
func (c *connection) StartedAt() time.Time { return c.startedAt }

// deadlineReader re-arms the read deadline before every read, so the
// timeout bounds each wait for bytes rather than the whole connection.
type deadlineReader struct {
	conn    net.Conn
	timeout time.Duration
}

func (d *deadlineReader) Read(p []byte) (int, error) {
	if d.timeout > 0 {
		if err := d.conn.SetReadDeadline(time.Now().Add(d.timeout)); err != nil {
			return 0, err
		}
	}
	return d.conn.Read(p)
}

// exchangeResult is one response ready to be written.
type exchangeResult struct {
	resp      *message.Response
	method    string
	keepAlive bool
	start     time.Time
}

// Handler runs one connection until the client goes away or a response
// ends it.
func (hh *httpHandler) Handler(conn net.Conn) {
	c := &connection{Conn: conn, id: uuid.New(), startedAt: hh.now()}
	log := hh.log.With(zap.String("conn_id", c.id.String()), zap.Stringer("remote", conn.RemoteAddr()))

	defer hh.closeConnection(conn, log)
	if !hh.connRegistry.Register(c) {
		log.Warn("connection id already registered")
		return
	}
	defer hh.connRegistry.Remove(c.id)

	if hh.overHostLimit(conn.RemoteAddr()) {
		log.Warn("too many connections from host", zap.Int64("limit", hh.maxPerHost))
		return
	}

	hh.metrics.ConnectionOpened()
	defer hh.metrics.ConnectionClosed()
	log.Debug("connection opened")

	hs := stream.New(conn, &deadlineReader{conn: conn, timeout: hh.readTimeout}, conn.RemoteAddr(), log)
	hs.UseResponseMiddleware(middleware.NewDate(hh.now))
	hs.UseResponseMiddleware(middleware.NewServerName())

	for {
		res := hh.exchange(hs, log)
		if res == nil {
			return
		}
		if err := hs.WriteResponse(res.resp); err != nil {
			log.Debug("failed to write response", zap.Error(err))
			return
		}
		hh.metrics.ObserveRequest(res.method, res.resp.StatusCode(), time.Since(res.start))
		if !res.keepAlive {
			log.Debug("closing after response", zap.Int("status", res.resp.StatusCode()))
			hh.lingerClose(hs, conn, log)
			return
		}
	}
}

// overHostLimit reports whether the remote host now holds more registered
// connections than allowed. The caller's own connection is already counted.
func (hh *httpHandler) overHostLimit(addr net.Addr) bool {
	if hh.maxPerHost <= 0 {
		return false
	}
	conns := hh.connRegistry.GetAllFromHost(registry.HostOf(addr))
	return int64(len(conns)) > hh.maxPerHost
}

// exchange reads one request and produces its response. It returns nil when
// the stream ended and nothing should be written.
func (hh *httpHandler) exchange(hs stream.HTTP, log *zap.Logger) *exchangeResult {
	frame, err := hs.ReadMessage()
	if errors.Is(err, httperr.ErrStreamTerminated) {
		log.Debug("stream terminated", zap.Error(err))
		return nil
	}
	res := &exchangeResult{method: methodUnknown, start: time.Now()}
	if err != nil {
		res.resp, res.keepAlive = hh.fail(err, log), frame != nil && frame.KeepAlive()
		return res
	}

	req, err := message.ParseRequest(frame.Raw())
	if err != nil {
		res.resp, res.keepAlive = hh.fail(err, log), frame.KeepAlive()
		return res
	}

	res.method = string(req.Method())
	res.keepAlive = req.KeepAlive()
	res.resp, err = hh.dispatch(req)
	if err != nil {
		res.resp = hh.fail(err, log)
	}
	log.Debug("request served",
		zap.String("method", res.method),
		zap.String("path", req.Path()),
		zap.Int("status", res.resp.StatusCode()),
	)
	return res
}

func (hh *httpHandler) dispatch(req *message.Request) (resp *message.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, fmt.Errorf("panic serving %s %s: %v", req.Method(), req.Path(), r)
		}
	}()
	return hh.handler.Serve(req)
}

func (hh *httpHandler) fail(err error, log *zap.Logger) *message.Response {
	kind := httperr.KindOf(err)
	hh.metrics.ObserveError(string(kind))
	if kind == httperr.KindUnclassified {
		log.Error("request failed", zap.Error(err))
	} else {
		log.Info("bad request", zap.String("kind", string(kind)), zap.Error(err))
	}
	return errorResponse(err)
}

// lingerClose shuts the write side so the client sees the end of the
// response, then drains its input until it closes or lingerTimeout passes.
// Closing with unread input would reset the connection under the response.
func (hh *httpHandler) lingerClose(hs stream.HTTP, conn net.Conn, log *zap.Logger) {
	if err := hs.CloseWrite(); err != nil {
		log.Debug("failed to half-close connection", zap.Error(err))
		return
	}
	if err := conn.SetReadDeadline(time.Now().Add(lingerTimeout)); err != nil {
		return
	}
	_, _ = io.Copy(io.Discard, conn)
}

func (hh *httpHandler) closeConnection(conn net.Conn, log *zap.Logger) {
	err := conn.Close()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		log.Warn("error closing connection", zap.Error(err))
	}
}
