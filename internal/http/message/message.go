// Package message models HTTP/1.x requests and responses and parses them from
// raw bytes.
package message

import (
	"strconv"

	"rawhttpd/internal/http/httperr"
)

type Version int

const (
	HTTP10 Version = iota + 1
	HTTP11
)

func (v Version) String() string {
	switch v {
	case HTTP10:
		return "HTTP/1.0"
	case HTTP11:
		return "HTTP/1.1"
	default:
		return ""
	}
}

// ParseVersion matches token exactly against the supported versions.
func ParseVersion(token string) (Version, error) {
	switch token {
	case "HTTP/1.1":
		return HTTP11, nil
	case "HTTP/1.0":
		return HTTP10, nil
	default:
		return 0, httperr.UnsupportedVersion(token)
	}
}

type Method string

const (
	MethodGet  Method = "GET"
	MethodPost Method = "POST"
	MethodPut  Method = "PUT"
	MethodHead Method = "HEAD"
)

func ParseMethod(token string) (Method, error) {
	switch m := Method(token); m {
	case MethodGet, MethodPost, MethodPut, MethodHead:
		return m, nil
	default:
		return "", httperr.UnsupportedMethod(token)
	}
}

const (
	HeaderContentLength    = "content-length"
	HeaderContentType      = "content-type"
	HeaderConnection       = "connection"
	HeaderHost             = "host"
	HeaderTransferEncoding = "transfer-encoding"
	HeaderDate             = "date"
	HeaderLocation         = "location"
	HeaderServer           = "server"
)

// Message is what requests and responses have in common. Framing and
// serialization work on it; dispatch switches on the concrete type.
type Message interface {
	Version() Version
	Header() *Header
	Body() []byte
	StartLine() string
	Bytes() []byte
}

type head struct {
	version Version
	header  *Header
	body    []byte
}

func newHead(version Version) head {
	return head{version: version, header: NewHeader()}
}

func (h *head) Version() Version { return h.version }
func (h *head) Header() *Header  { return h.header }
func (h *head) Body() []byte     { return h.body }

// SetContent replaces the body and keeps content-length and content-type in
// step with it.
func (h *head) SetContent(body []byte, contentType string) {
	h.body = body
	h.header.Set(HeaderContentLength, strconv.Itoa(len(body)))
	h.header.Set(HeaderContentType, contentType)
}

func (h *head) serialize(startLine string) []byte {
	buf := make([]byte, 0, len(startLine)+2+h.header.size()+2+len(h.body))
	buf = append(buf, startLine...)
	buf = append(buf, '\r', '\n')
	buf = h.header.appendTo(buf)
	buf = append(buf, '\r', '\n')
	return append(buf, h.body...)
}
