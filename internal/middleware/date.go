package middleware

import (
	"time"

	"rawhttpd/internal/http/message"
)

// TimeFormat is the IMF-fixdate layout used for the Date header.
const TimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

type Date struct {
	now func() time.Time
}

func NewDate(now func() time.Time) *Date {
	if now == nil {
		now = time.Now
	}
	return &Date{now: now}
}

func (d *Date) HandleResponse(resp *message.Response) error {
	resp.Header().Set(message.HeaderDate, d.now().UTC().Format(TimeFormat))
	return nil
}
