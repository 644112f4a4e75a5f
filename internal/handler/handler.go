// Package handler turns a parsed request into a response by resolving its
// path against the resource store.
package handler

import (
	"net/url"
	"strings"

	"rawhttpd/internal/http/httperr"
	"rawhttpd/internal/http/message"
	"rawhttpd/internal/resolve"
	"rawhttpd/internal/store"
)

const textPlain = "text/plain"

const (
	msgMissingHost = "HTTP 1.1 requests must include the Host: header\r\n"
	msgNotFound    = "The requested file could not be found on this server.\r\n"
	msgNotWritable = "The requested file could not be written to.\r\n"
)

// IndexPath is where an empty HTTP/1.1 request target is redirected.
const IndexPath = "/index.html"

type Handler interface {
	Serve(req *message.Request) (*message.Response, error)
}

type handler struct {
	store store.Store
}

func New(s store.Store) Handler {
	return &handler{store: s}
}

func (h *handler) Serve(req *message.Request) (*message.Response, error) {
	if req.Version() == message.HTTP11 && !req.Header().Has(message.HeaderHost) {
		return message.NewResponseWithContent(message.HTTP11, 400, "Bad Request", []byte(msgMissingHost), textPlain), nil
	}

	path, err := resourcePath(req.Path())
	if err != nil {
		return nil, err
	}

	if path == "" && req.Version() == message.HTTP11 {
		resp := message.NewResponse(req.Version(), 303, "See Other")
		resp.Header().Set(message.HeaderLocation, IndexPath)
		return resp, nil
	}

	switch req.Method() {
	case message.MethodGet:
		return h.fetch(req, path)
	case message.MethodHead:
		resp, err := h.fetch(req, path)
		if err != nil {
			return nil, err
		}
		if err = resp.StripBody(); err != nil {
			return nil, err
		}
		return resp, nil
	case message.MethodPost:
		return h.write(req, path, true)
	case message.MethodPut:
		return h.write(req, path, false)
	default:
		return nil, httperr.UnsupportedMethod(string(req.Method()))
	}
}

// resourcePath strips the leading slash and reduces an absolute-form target
// to its path.
func resourcePath(target string) (string, error) {
	path := strings.TrimPrefix(target, "/")
	if strings.HasPrefix(path, "http://") {
		u, err := url.Parse(path)
		if err != nil {
			return "", httperr.MalformedRequest(target)
		}
		path = strings.TrimPrefix(u.Path, "/")
	}
	return path, nil
}

func (h *handler) fetch(req *message.Request, path string) (*message.Response, error) {
	if path == "" || !h.store.Exists(path) || h.store.IsDir(path) {
		return message.NewResponseWithContent(req.Version(), 404, "Not Found", []byte(msgNotFound), textPlain), nil
	}

	mtime, err := h.store.LastModified(path)
	if err != nil {
		return nil, err
	}

	outcome, err := resolve.Evaluate(req.Header(), mtime)
	if err != nil {
		return nil, err
	}
	switch outcome {
	case resolve.NotModified:
		return message.NewResponse(req.Version(), 304, "Not Modified"), nil
	case resolve.PreconditionFailed:
		return message.NewResponse(req.Version(), 412, "Precondition Failed"), nil
	}

	data, err := h.store.ReadAll(path)
	if err != nil {
		return nil, err
	}
	content := resolve.ContentFor(path, data)
	return message.NewResponseWithContent(req.Version(), 200, "OK", content.Body, content.Type), nil
}

// write handles POST (append) and PUT (overwrite). Appending to an existing
// resource puts a CRLF between the old content and the new.
func (h *handler) write(req *message.Request, path string, appendMode bool) (*message.Response, error) {
	if path == "" || h.store.IsDir(path) {
		return message.NewResponseWithContent(req.Version(), 400, "Bad Request", []byte(msgNotWritable), textPlain), nil
	}

	created, err := h.store.Create(path)
	if err != nil {
		return nil, err
	}

	if appendMode {
		body := req.Body()
		if !created {
			body = append([]byte("\r\n"), body...)
		}
		err = h.store.Append(path, body)
	} else {
		err = h.store.Overwrite(path, req.Body())
	}
	if err != nil {
		return nil, err
	}

	return message.NewResponse(req.Version(), 200, "OK"), nil
}
