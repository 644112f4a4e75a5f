package stream

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"rawhttpd/internal/http/httperr"
)

// ReadMessage blocks until a full message is available and returns it. Read
// failures come back as httperr.StreamTerminated. When the head was read but
// the body could not be framed, the returned Frame is non-nil alongside the
// error so the caller can still apply the persistence rule.
func (hs *http) ReadMessage() (*Frame, error) {
	head, err := hs.readHead()
	if err != nil {
		return nil, err
	}

	f := scanHead(head)
	if f.Chunked() {
		body, trailers, err := hs.readChunkedBody()
		if err != nil {
			return f, err
		}
		f.body = body
		f.withTrailers(trailers)
		return f, nil
	}

	length, err := contentLength(f.contentLengthLine)
	if err != nil {
		return f, err
	}
	f.body, err = hs.readFixedBody(length)
	if err != nil {
		return f, err
	}
	return f, nil
}

// readHead reads up to and including the first CRLFCRLF. Blank lines ahead
// of the start line are skipped. The cap applies to partial lines too, so a
// line without a newline never buffers past maxHeadBytes.
func (hs *http) readHead() ([]byte, error) {
	var head []byte
	for {
		line, err := hs.readLine(hs.maxHeadBytes - len(head))
		if err != nil {
			return nil, err
		}
		if len(head) == 0 && (bytes.Equal(line, []byte("\r\n")) || bytes.Equal(line, []byte("\n"))) {
			continue
		}

		head = append(head, line...)
		if bytes.HasSuffix(head, DELIMITER) {
			return head, nil
		}
	}
}

// readLine returns the next line including its newline, failing once the
// line grows past limit bytes.
func (hs *http) readLine(limit int) ([]byte, error) {
	var line []byte
	for {
		frag, err := hs.reader.ReadSlice('\n')
		if len(line)+len(frag) > limit {
			return nil, httperr.MalformedHeader(fmt.Sprintf("head exceeds %d bytes", hs.maxHeadBytes))
		}
		line = append(line, frag...)
		switch {
		case err == nil:
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return nil, httperr.StreamTerminated(err)
		}
	}
}

// contentLength validates a raw Content-Length line. An absent line means no
// body.
func contentLength(line string) (int, error) {
	if line == "" {
		return 0, nil
	}
	parts := strings.Split(line, ":")
	if len(parts) != 2 {
		return 0, httperr.MalformedHeader(line)
	}
	length, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || length < 0 {
		return 0, httperr.MalformedHeader(line)
	}
	return length, nil
}

// readFixedBody grows the body as bytes arrive rather than trusting the
// declared length up front.
func (hs *http) readFixedBody(length int) ([]byte, error) {
	var body bytes.Buffer
	if _, err := io.CopyN(&body, hs.reader, int64(length)); err != nil {
		return nil, httperr.StreamTerminated(err)
	}
	return body.Bytes(), nil
}

func (hs *http) readChunkedBody() (body, trailers []byte, err error) {
	var buf bytes.Buffer
	for {
		line, err := hs.reader.ReadString('\n')
		if err != nil {
			return nil, nil, httperr.StreamTerminated(err)
		}

		sizeText := strings.TrimSpace(strings.SplitN(line, ";", 2)[0])
		size, err := strconv.ParseInt(sizeText, 16, 64)
		if err != nil || size < 0 {
			return nil, nil, fmt.Errorf("invalid chunk size %q", sizeText)
		}

		if size == 0 {
			break
		}

		if _, err = io.CopyN(&buf, hs.reader, size); err != nil {
			return nil, nil, httperr.StreamTerminated(err)
		}

		crlf := make([]byte, 2)
		if _, err = io.ReadFull(hs.reader, crlf); err != nil {
			return nil, nil, httperr.StreamTerminated(err)
		}
	}

	for {
		line, err := hs.reader.ReadBytes('\n')
		if err != nil {
			return nil, nil, httperr.StreamTerminated(err)
		}
		if len(bytes.TrimRight(line, "\r\n")) == 0 {
			break
		}
		trailers = append(trailers, line...)
	}

	body = buf.Bytes()
	if body == nil {
		body = []byte{}
	}
	return body, trailers, nil
}
