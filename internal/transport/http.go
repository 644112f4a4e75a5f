package transport

import (
	"context"
	"errors"
	"net"

	"rawhttpd/internal/config"
	"rawhttpd/internal/handler"
	"rawhttpd/internal/metrics"
	"rawhttpd/internal/registry"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

type httpServer struct {
	handler *httpHandler
	port    string
	sem     *semaphore.Weighted
	log     *zap.Logger
}

// NewHTTPServer serves conf.Port(). With MaxConnections above zero, Serve
// stops accepting while that many connections are open. With
// MaxConnectionsPerHost above zero, connections beyond that count from one
// remote host are closed on arrival.
func NewHTTPServer(conf config.Config, h handler.Handler, connRegistry registry.Registry, m metrics.Metrics, log *zap.Logger) Transport {
	var sem *semaphore.Weighted
	if conf.MaxConnections() > 0 {
		sem = semaphore.NewWeighted(conf.MaxConnections())
	}
	return &httpServer{
		handler: newHTTPHandler(h, connRegistry, m, conf.ReadTimeout(), conf.MaxConnectionsPerHost(), log),
		port:    conf.Port(),
		sem:     sem,
		log:     log,
	}
}

func (ht *httpServer) Listen() (net.Listener, error) {
	return net.Listen("tcp", ":"+ht.port)
}

func (ht *httpServer) Serve(listener net.Listener) error {
	ht.log.Info("HTTP server is starting", zap.String("port", ht.port))
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			ht.log.Warn("error accepting connection", zap.Error(err))
			continue
		}

		if ht.sem == nil {
			go ht.handler.Handler(conn)
			continue
		}

		if err = ht.sem.Acquire(context.Background(), 1); err != nil {
			ht.handler.closeConnection(conn, ht.log)
			continue
		}
		go func() {
			defer ht.sem.Release(1)
			ht.handler.Handler(conn)
		}()
	}
}
