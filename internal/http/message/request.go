package message

import "strings"

type Request struct {
	head
	method Method
	path   string
}

func NewRequest(method Method, path string, version Version) *Request {
	return &Request{
		head:   newHead(version),
		method: method,
		path:   normalizePath(path),
	}
}

// NewRequestWithContent builds a request whose content headers describe body.
func NewRequestWithContent(method Method, path string, version Version, body []byte, contentType string) *Request {
	req := NewRequest(method, path, version)
	req.SetContent(body, contentType)
	return req
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

func (req *Request) Method() Method { return req.method }
func (req *Request) Path() string   { return req.path }

func (req *Request) StartLine() string {
	return string(req.method) + " " + req.path + " " + req.version.String()
}

func (req *Request) Bytes() []byte {
	return req.serialize(req.StartLine())
}

// KeepAlive reports whether the connection may carry another request after
// this one has been answered.
func (req *Request) KeepAlive() bool {
	return KeepAlive(req.version, req.header.Get(HeaderConnection))
}

// KeepAlive applies the persistence rule: HTTP/1.0 always closes, HTTP/1.1
// closes only on "Connection: close".
func KeepAlive(version Version, connection string) bool {
	if version == HTTP10 {
		return false
	}
	return !strings.EqualFold(strings.TrimSpace(connection), "close")
}
