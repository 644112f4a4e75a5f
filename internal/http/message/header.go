package message

import "strings"

type field struct {
	key   string
	value string
}

// Header is an insertion-ordered set of header fields. Keys are lower-cased
// on the way in, so lookups are case-insensitive.
type Header struct {
	fields []field
	index  map[string]int
}

func NewHeader() *Header {
	return &Header{index: make(map[string]int, 16)}
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Set stores value under key. An existing key keeps its position.
func (h *Header) Set(key, value string) {
	key = normalize(key)
	if i, ok := h.index[key]; ok {
		h.fields[i].value = value
		return
	}
	h.index[key] = len(h.fields)
	h.fields = append(h.fields, field{key: key, value: value})
}

func (h *Header) Get(key string) string {
	if i, ok := h.index[normalize(key)]; ok {
		return h.fields[i].value
	}
	return ""
}

func (h *Header) Has(key string) bool {
	_, ok := h.index[normalize(key)]
	return ok
}

func (h *Header) Remove(key string) {
	key = normalize(key)
	i, ok := h.index[key]
	if !ok {
		return
	}
	h.fields = append(h.fields[:i], h.fields[i+1:]...)
	delete(h.index, key)
	for j := i; j < len(h.fields); j++ {
		h.index[h.fields[j].key] = j
	}
}

func (h *Header) Len() int {
	return len(h.fields)
}

// Fields returns the fields in insertion order as key/value pairs.
func (h *Header) Fields() [][2]string {
	out := make([][2]string, len(h.fields))
	for i, f := range h.fields {
		out[i] = [2]string{f.key, f.value}
	}
	return out
}

// fold appends a continuation line to the most recently parsed field.
func (h *Header) fold(last, continuation string) {
	i := h.index[last]
	h.fields[i].value += continuation
}

func (h *Header) appendTo(buf []byte) []byte {
	for _, f := range h.fields {
		buf = append(buf, f.key...)
		buf = append(buf, ':', ' ')
		buf = append(buf, f.value...)
		buf = append(buf, '\r', '\n')
	}
	return buf
}

func (h *Header) size() int {
	n := 0
	for _, f := range h.fields {
		n += len(f.key) + 2 + len(f.value) + 2
	}
	return n
}
