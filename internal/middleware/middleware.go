package middleware

import (
	"rawhttpd/internal/http/message"
)

type ResponseMiddleware interface {
	HandleResponse(resp *message.Response) error
}
