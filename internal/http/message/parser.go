package message

import (
	"bytes"
	"strconv"
	"strings"

	"rawhttpd/internal/http/httperr"
)

var (
	crlf      = []byte("\r\n")
	delimiter = []byte("\r\n\r\n")
)

// ParseRequest builds a Request from a complete raw message: start line,
// header lines, blank line, body.
func ParseRequest(raw []byte) (*Request, error) {
	startLine, headerBlock, body := splitMessage(raw)

	method, path, version, err := parseRequestLine(startLine)
	if err != nil {
		return nil, err
	}

	req := NewRequest(method, path, version)
	if err = setRemainingHeaders(headerBlock, req.header); err != nil {
		return nil, err
	}
	req.body = body
	return req, nil
}

// ParseResponse builds a Response from a complete raw message.
func ParseResponse(raw []byte) (*Response, error) {
	startLine, headerBlock, body := splitMessage(raw)

	version, code, text, err := parseStatusLine(startLine)
	if err != nil {
		return nil, err
	}

	resp := NewResponse(version, code, text)
	if err = setRemainingHeaders(headerBlock, resp.header); err != nil {
		return nil, err
	}
	resp.body = body
	return resp, nil
}

func splitMessage(raw []byte) (startLine string, headerBlock, body []byte) {
	headEnd := bytes.Index(raw, delimiter)
	headBytes := raw
	if headEnd != -1 {
		headBytes = raw[:headEnd]
		body = raw[headEnd+len(delimiter):]
	}

	lineEnd := bytes.Index(headBytes, crlf)
	if lineEnd == -1 {
		return string(headBytes), nil, body
	}
	return string(headBytes[:lineEnd]), headBytes[lineEnd+len(crlf):], body
}

// tokens splits on single spaces and drops trailing empty tokens.
func tokens(line string) []string {
	parts := strings.Split(line, " ")
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func parseRequestLine(line string) (Method, string, Version, error) {
	parts := tokens(line)
	if len(parts) < 3 {
		return "", "", 0, httperr.MalformedRequest(line)
	}

	method, err := ParseMethod(parts[0])
	if err != nil {
		return "", "", 0, err
	}

	version, err := ParseVersion(parts[2])
	if err != nil {
		return "", "", 0, err
	}

	return method, parts[1], version, nil
}

func parseStatusLine(line string) (Version, int, string, error) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 3 {
		return 0, 0, "", httperr.MalformedResponse(line)
	}

	version, err := ParseVersion(parts[0])
	if err != nil {
		return 0, 0, "", err
	}

	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, "", httperr.MalformedResponse(line)
	}

	return version, code, parts[2], nil
}

func setRemainingHeaders(remaining []byte, header *Header) error {
	last := ""
	for len(remaining) > 0 {
		lineEnd := bytes.Index(remaining, crlf)
		if lineEnd == -1 {
			lineEnd = len(remaining)
		}

		line := string(remaining[:lineEnd])

		if colonIdx := strings.IndexByte(line, ':'); colonIdx != -1 {
			last = normalize(line[:colonIdx])
			header.Set(last, strings.TrimLeft(line[colonIdx+1:], " \t"))
		} else {
			if header.Len() == 0 {
				return httperr.MalformedHeader(line)
			}
			header.fold(last, strings.TrimSpace(line))
		}

		if lineEnd == len(remaining) {
			break
		}
		remaining = remaining[lineEnd+len(crlf):]
	}
	return nil
}
