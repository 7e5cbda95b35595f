package host

import (
	"net/http"
	"sort"
	"strings"
)

// fields is an ordered multi-map of header values. Names match
// case-insensitively and enumerate in first-insertion order, keeping the
// spelling they were first inserted with.
type fields struct {
	order  []string
	names  map[string]string
	values map[string][]string
}

func newFields() *fields {
	return &fields{
		names:  make(map[string]string),
		values: make(map[string][]string),
	}
}

// fieldsFromHTTP copies h. Go does not keep wire order, so names are sorted
// for a stable enumeration.
func fieldsFromHTTP(h http.Header) *fields {
	f := newFields()
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range h[k] {
			f.append(k, v)
		}
	}
	return f
}

func (f *fields) list() []string {
	out := make([]string, len(f.order))
	for i, key := range f.order {
		out[i] = f.names[key]
	}
	return out
}

func (f *fields) get(name string) ([]string, bool) {
	v, ok := f.values[strings.ToLower(name)]
	return v, ok
}

func (f *fields) set(name string, values []string) {
	key := strings.ToLower(name)
	if len(values) == 0 {
		f.remove(name)
		return
	}
	if _, ok := f.values[key]; !ok {
		f.order = append(f.order, key)
		f.names[key] = name
	}
	f.values[key] = append([]string(nil), values...)
}

func (f *fields) append(name, value string) {
	key := strings.ToLower(name)
	if _, ok := f.values[key]; !ok {
		f.order = append(f.order, key)
		f.names[key] = name
	}
	f.values[key] = append(f.values[key], value)
}

func (f *fields) remove(name string) bool {
	key := strings.ToLower(name)
	if _, ok := f.values[key]; !ok {
		return false
	}
	delete(f.values, key)
	delete(f.names, key)
	for i, k := range f.order {
		if k == key {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return true
}

// copyTo writes every value into h, replacing what h held for those names.
func (f *fields) copyTo(h http.Header) {
	for _, key := range f.order {
		name := f.names[key]
		h.Del(name)
		for _, v := range f.values[key] {
			h.Add(name, v)
		}
	}
}

func (f *fields) clone() *fields {
	c := newFields()
	for _, key := range f.order {
		c.set(f.names[key], f.values[key])
	}
	return c
}
