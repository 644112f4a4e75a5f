// Package stream frames HTTP/1.x messages out of a connection and writes
// responses back to it.
package stream

import (
	"bufio"
	"io"
	"net"

	"rawhttpd/internal/http/message"
	"rawhttpd/internal/middleware"

	"go.uber.org/zap"
)

var DELIMITER = []byte{0x0D, 0x0A, 0x0D, 0x0A}

// DefaultMaxHeadBytes bounds the start line plus header block of one message.
const DefaultMaxHeadBytes = 1 << 20

type HTTP interface {
	io.Closer
	CloseWrite() error
	RemoteAddr() net.Addr
	ReadMessage() (*Frame, error)
	WriteResponse(resp *message.Response) error
	UseResponseMiddleware(mw middleware.ResponseMiddleware)
	ResponseMiddlewares() []middleware.ResponseMiddleware
	ApplyResponseMiddlewares(resp *message.Response) error
}

type http struct {
	remoteAddr   net.Addr
	writer       io.Writer
	reader       *bufio.Reader
	maxHeadBytes int
	respMW       []middleware.ResponseMiddleware
	log          *zap.Logger
}

func New(writer io.Writer, reader io.Reader, remoteAddr net.Addr, log *zap.Logger) HTTP {
	br, ok := reader.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(reader, 4096)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &http{
		remoteAddr:   remoteAddr,
		writer:       writer,
		reader:       br,
		maxHeadBytes: DefaultMaxHeadBytes,
		log:          log,
	}
}

func (hs *http) RemoteAddr() net.Addr {
	return hs.remoteAddr
}

func (hs *http) UseResponseMiddleware(mw middleware.ResponseMiddleware) {
	hs.respMW = append(hs.respMW, mw)
}

func (hs *http) ResponseMiddlewares() []middleware.ResponseMiddleware {
	return hs.respMW
}

func (hs *http) Close() error {
	if closer, ok := hs.writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (hs *http) CloseWrite() error {
	if closer, ok := hs.writer.(interface{ CloseWrite() error }); ok {
		return closer.CloseWrite()
	}
	return hs.Close()
}

func (hs *http) ApplyResponseMiddlewares(resp *message.Response) error {
	for _, m := range hs.ResponseMiddlewares() {
		if err := m.HandleResponse(resp); err != nil {
			hs.log.Warn("cannot apply response middleware", zap.Error(err))
			return err
		}
	}
	return nil
}
