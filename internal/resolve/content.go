// Package resolve maps resources to content types and evaluates conditional
// request headers against their modification time.
package resolve

import (
	"encoding/base64"
	"path"
	"strings"
)

// ContentTypeUndefined labels resources whose extension is not recognized.
const ContentTypeUndefined = "undefined"

const textCharset = "; charset=utf-8"

var imageExtensions = map[string]struct{}{
	"jpeg": {}, "jpg": {}, "png": {}, "bmp": {}, "wbmp": {}, "gif": {},
}

var textTypes = map[string]string{
	"txt":  "text/plain",
	"html": "text/html",
	"js":   "text/javascript",
	"css":  "text/css",
}

// Content is a resource body ready to be placed in a response.
type Content struct {
	Body []byte
	Type string
}

// Extension returns the lower-cased text after the last dot of the final
// path segment, or "" when there is none.
func Extension(name string) string {
	base := path.Base(name)
	idx := strings.LastIndexByte(base, '.')
	if idx == -1 {
		return ""
	}
	return strings.ToLower(base[idx+1:])
}

// ContentFor picks the content type for name. Image data is carried as
// base64 text; everything else is passed through.
func ContentFor(name string, data []byte) Content {
	ext := Extension(name)
	if _, ok := imageExtensions[ext]; ok {
		return Content{
			Body: []byte(base64.StdEncoding.EncodeToString(data)),
			Type: "image/" + ext,
		}
	}
	if typ, ok := textTypes[ext]; ok {
		return Content{Body: data, Type: typ + textCharset}
	}
	return Content{Body: data, Type: ContentTypeUndefined}
}
