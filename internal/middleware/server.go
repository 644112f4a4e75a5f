package middleware

import (
	"rawhttpd/internal/http/message"
	"rawhttpd/internal/version"
)

type ServerName struct {
	name string
}

func NewServerName() *ServerName {
	return &ServerName{name: version.ServerToken()}
}

func (s *ServerName) HandleResponse(resp *message.Response) error {
	resp.Header().Set(message.HeaderServer, s.name)
	return nil
}
