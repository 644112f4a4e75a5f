package stream

import "strconv"

// EncodeChunked renders body in chunked transfer coding using chunks of at
// most size bytes, terminated by the zero chunk and an empty trailer.
func EncodeChunked(body []byte, size int) []byte {
	if size <= 0 {
		size = len(body)
	}

	var out []byte
	for len(body) > 0 {
		n := size
		if n > len(body) {
			n = len(body)
		}
		out = append(out, strconv.FormatInt(int64(n), 16)...)
		out = append(out, '\r', '\n')
		out = append(out, body[:n]...)
		out = append(out, '\r', '\n')
		body = body[n:]
	}
	return append(out, "0\r\n\r\n"...)
}
