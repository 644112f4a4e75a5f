package transport

import (
	"rawhttpd/internal/http/httperr"
	"rawhttpd/internal/http/message"
)

const textPlain = "text/plain"

const (
	msgMalformedHeader    = "Your HTTP request headers were malformed and could not be parsed. Error produced on line: "
	msgMalformedRequest   = "Your request was not a valid HTTP request and could not be parsed.\r\n"
	msgMalformedResponse  = "The HTTP response could not be parsed.\r\n"
	msgUnsupportedVersion = "The provided HTTP version is not supported by this server.\r\n"
	msgServerError        = "An internal server error occurred while processing your request. Please try again.\r\n"
)

// errorResponse maps a failed read, parse or dispatch to what the client
// sees. Error responses are always HTTP/1.1.
func errorResponse(err error) *message.Response {
	switch httperr.KindOf(err) {
	case httperr.KindMalformedHeader:
		body := msgMalformedHeader + httperr.LineOf(err) + "\r\n"
		return message.NewResponseWithContent(message.HTTP11, 400, "Bad Request", []byte(body), textPlain)
	case httperr.KindMalformedRequest:
		return message.NewResponseWithContent(message.HTTP11, 400, "Bad Request", []byte(msgMalformedRequest), textPlain)
	case httperr.KindMalformedResponse:
		return message.NewResponseWithContent(message.HTTP11, 400, "Bad Request", []byte(msgMalformedResponse), textPlain)
	case httperr.KindUnsupportedVersion:
		return message.NewResponseWithContent(message.HTTP11, 400, "Bad Request", []byte(msgUnsupportedVersion), textPlain)
	case httperr.KindUnsupportedMethod:
		return message.NewResponse(message.HTTP11, 501, "Not Implemented")
	default:
		return message.NewResponseWithContent(message.HTTP11, 500, "Server Error", []byte(msgServerError), textPlain)
	}
}
