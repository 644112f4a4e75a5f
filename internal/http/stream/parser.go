package stream

import (
	"bytes"
	"strings"

	"rawhttpd/internal/http/message"
)

// Frame is one message cut out of the stream: the head (start line, header
// lines, blank line) and its body. The fields it scans from the head are
// just enough to frame the body and decide persistence; full parsing is
// message's job.
type Frame struct {
	head []byte
	body []byte

	version           string
	connection        string
	transferEncoding  string
	contentLengthLine string
}

func (f *Frame) Head() []byte { return f.head }
func (f *Frame) Body() []byte { return f.body }

// Raw returns head and body as one buffer, ready for message.ParseRequest.
func (f *Frame) Raw() []byte {
	raw := make([]byte, 0, len(f.head)+len(f.body))
	raw = append(raw, f.head...)
	return append(raw, f.body...)
}

func (f *Frame) Chunked() bool {
	return strings.Contains(strings.ToLower(f.transferEncoding), "chunked")
}

// KeepAlive applies the persistence rule to the scanned head. A version
// token that does not parse falls back to the HTTP/1.1 default.
func (f *Frame) KeepAlive() bool {
	version, err := message.ParseVersion(f.version)
	if err != nil {
		version = message.HTTP11
	}
	return message.KeepAlive(version, f.connection)
}

func scanHead(head []byte) *Frame {
	f := &Frame{head: head}

	lines := bytes.Split(bytes.TrimSuffix(head, DELIMITER), []byte("\r\n"))
	startLine := strings.Split(string(lines[0]), " ")
	switch {
	case len(startLine) >= 3 && strings.HasPrefix(startLine[0], "HTTP/"):
		f.version = startLine[0]
	case len(startLine) >= 3:
		f.version = startLine[2]
	}

	for _, line := range lines[1:] {
		colonIdx := bytes.IndexByte(line, ':')
		if colonIdx == -1 {
			continue
		}
		value := strings.TrimSpace(string(line[colonIdx+1:]))
		switch strings.ToLower(strings.TrimSpace(string(line[:colonIdx]))) {
		case message.HeaderConnection:
			f.connection = value
		case message.HeaderTransferEncoding:
			f.transferEncoding = value
		case message.HeaderContentLength:
			f.contentLengthLine = string(line)
		}
	}
	return f
}

// withTrailers splices chunked trailer lines into the header block so they
// parse as ordinary headers.
func (f *Frame) withTrailers(trailers []byte) {
	if len(trailers) == 0 {
		return
	}
	head := make([]byte, 0, len(f.head)+len(trailers))
	head = append(head, f.head[:len(f.head)-2]...)
	head = append(head, trailers...)
	f.head = append(head, '\r', '\n')
}
