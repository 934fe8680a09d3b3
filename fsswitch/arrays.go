package fsswitch

import "strings"

const (
	arrayHeader    = "ARRAY::"
	arraySeparator = "|:"
)

// EslArray parses and builds FreeSWITCH's `ARRAY::item1|:item2|:item3`
// multi-value header encoding.
type EslArray struct {
	items []string
}

// NewEslArray wraps items as an EslArray.
func NewEslArray(items []string) *EslArray {
	return &EslArray{items: append([]string(nil), items...)}
}

// ParseEslArray parses an `ARRAY::`-prefixed string. ok is false if the
// prefix is missing.
func ParseEslArray(s string) (*EslArray, bool) {
	body, ok := strings.CutPrefix(s, arrayHeader)
	if !ok {
		return nil, false
	}
	return &EslArray{items: strings.Split(body, arraySeparator)}, true
}

// Push appends value to the end.
func (a *EslArray) Push(value string) { a.items = append(a.items, value) }

// Unshift prepends value to the front.
func (a *EslArray) Unshift(value string) {
	a.items = append([]string{value}, a.items...)
}

// Items returns the parsed array items.
func (a *EslArray) Items() []string { return append([]string(nil), a.items...) }

// Len returns the number of items.
func (a *EslArray) Len() int { return len(a.items) }

// IsEmpty reports whether the array has no items.
func (a *EslArray) IsEmpty() bool { return len(a.items) == 0 }

// String renders the array back to `ARRAY::...` wire form.
func (a *EslArray) String() string {
	return arrayHeader + strings.Join(a.items, arraySeparator)
}

// MultipartItem is one part of a variable_sip_multipart body.
type MultipartItem struct {
	MimeType string
	Data     string
}

// MultipartBody parses the `variable_sip_multipart` ARRAY:: encoding,
// where each element is "mime/type:body_data" split on the first colon.
type MultipartBody struct {
	items []MultipartItem
}

// ParseMultipartBody parses s. ok is false if s is not an ARRAY:: string.
func ParseMultipartBody(s string) (*MultipartBody, bool) {
	arr, ok := ParseEslArray(s)
	if !ok {
		return nil, false
	}
	var items []MultipartItem
	for _, entry := range arr.Items() {
		mime, data, ok := strings.Cut(entry, ":")
		if !ok {
			continue
		}
		items = append(items, MultipartItem{MimeType: mime, Data: data})
	}
	return &MultipartBody{items: items}, true
}

// Items returns the parsed parts.
func (m *MultipartBody) Items() []MultipartItem {
	return append([]MultipartItem(nil), m.items...)
}

// ByMimeType returns the data of every part matching mime, in order.
func (m *MultipartBody) ByMimeType(mime string) []string {
	var out []string
	for _, it := range m.items {
		if it.MimeType == mime {
			out = append(out, it.Data)
		}
	}
	return out
}

// String renders m back to its variable_sip_multipart ARRAY:: wire form,
// the inverse of ParseMultipartBody.
func (m *MultipartBody) String() string {
	parts := make([]string, len(m.items))
	for i, it := range m.items {
		parts[i] = it.MimeType + ":" + it.Data
	}
	return arrayHeader + strings.Join(parts, arraySeparator)
}
