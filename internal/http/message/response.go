package message

import (
	"encoding/base64"
	"strconv"
	"strings"
)

type Response struct {
	head
	statusCode int
	statusText string
}

func NewResponse(version Version, statusCode int, statusText string) *Response {
	return &Response{
		head:       newHead(version),
		statusCode: statusCode,
		statusText: statusText,
	}
}

func NewResponseWithContent(version Version, statusCode int, statusText string, body []byte, contentType string) *Response {
	resp := NewResponse(version, statusCode, statusText)
	resp.SetContent(body, contentType)
	return resp
}

func (resp *Response) StatusCode() int    { return resp.statusCode }
func (resp *Response) StatusText() string { return resp.statusText }

func (resp *Response) StartLine() string {
	return resp.version.String() + " " + strconv.Itoa(resp.statusCode) + " " + resp.statusText
}

func (resp *Response) Bytes() []byte {
	return resp.serialize(resp.StartLine())
}

// IsImage reports whether the body holds base64 text standing in for binary
// image bytes.
func (resp *Response) IsImage() bool {
	return strings.Contains(resp.header.Get(HeaderContentType), "image")
}

// WireBody returns the bytes that go on the wire after the header block:
// the decoded image for image content, the body itself otherwise.
func (resp *Response) WireBody() ([]byte, error) {
	if !resp.IsImage() {
		return resp.body, nil
	}
	return base64.StdEncoding.DecodeString(string(resp.body))
}

// StripBody drops the body but keeps the content-length the full response
// would have sent.
func (resp *Response) StripBody() error {
	if len(resp.body) == 0 {
		return nil
	}
	wire, err := resp.WireBody()
	if err != nil {
		return err
	}
	resp.body = nil
	resp.header.Set(HeaderContentLength, strconv.Itoa(len(wire)))
	return nil
}
