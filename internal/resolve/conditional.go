package resolve

import (
	"time"

	"rawhttpd/internal/http/httperr"
	"rawhttpd/internal/http/message"
)

const (
	HeaderIfModifiedSince   = "if-modified-since"
	HeaderIfUnmodifiedSince = "if-unmodified-since"
)

// Layouts tried in order by ParseHTTPDate.
var timeFormats = []string{
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
}

// ParseHTTPDate accepts RFC 1123, RFC 850 and asctime dates. The wall clock
// is read as UTC whatever zone name the string carries.
func ParseHTTPDate(value string) (time.Time, bool) {
	for _, layout := range timeFormats {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), true
	}
	return time.Time{}, false
}

type Outcome int

const (
	Proceed Outcome = iota
	NotModified
	PreconditionFailed
)

// Evaluate compares the conditional headers of h with a resource's
// modification time in epoch seconds. If-Unmodified-Since wins when both are
// present. An unparseable date is a malformed header naming the header.
func Evaluate(h *message.Header, lastModified int64) (Outcome, error) {
	key := ""
	switch {
	case h.Has(HeaderIfUnmodifiedSince):
		key = HeaderIfUnmodifiedSince
	case h.Has(HeaderIfModifiedSince):
		key = HeaderIfModifiedSince
	default:
		return Proceed, nil
	}

	value := h.Get(key)
	date, ok := ParseHTTPDate(value)
	if !ok {
		return Proceed, httperr.MalformedHeader(key + ": " + value)
	}

	since := date.Unix()
	switch key {
	case HeaderIfModifiedSince:
		if lastModified <= since {
			return NotModified, nil
		}
	case HeaderIfUnmodifiedSince:
		if lastModified > since {
			return PreconditionFailed, nil
		}
	}
	return Proceed, nil
}
