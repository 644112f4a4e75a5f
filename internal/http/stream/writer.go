package stream

import (
	"fmt"
	"strconv"

	"rawhttpd/internal/http/message"
)

// WriteResponse runs the response middlewares and writes resp in one call.
// Image content goes out as decoded bytes with content-length recomputed.
func (hs *http) WriteResponse(resp *message.Response) error {
	if err := hs.ApplyResponseMiddlewares(resp); err != nil {
		return err
	}

	body := resp.Body()
	if resp.IsImage() && len(body) > 0 {
		decoded, err := resp.WireBody()
		if err != nil {
			return fmt.Errorf("decode image body: %w", err)
		}
		body = decoded
		resp.Header().Set(message.HeaderContentLength, strconv.Itoa(len(body)))
	}

	return hs.writeHeaderAndBody(resp, body)
}

func (hs *http) writeHeaderAndBody(resp *message.Response, body []byte) error {
	startLine := resp.StartLine()
	fields := resp.Header().Fields()

	size := len(startLine) + 2
	for _, kv := range fields {
		size += len(kv[0]) + 2 + len(kv[1]) + 2
	}
	size += 2 + len(body)

	buf := make([]byte, 0, size)
	buf = append(buf, startLine...)
	buf = append(buf, '\r', '\n')
	for _, kv := range fields {
		buf = append(buf, kv[0]...)
		buf = append(buf, ':', ' ')
		buf = append(buf, kv[1]...)
		buf = append(buf, '\r', '\n')
	}
	buf = append(buf, '\r', '\n')
	buf = append(buf, body...)

	_, err := hs.writer.Write(buf)
	return err
}
