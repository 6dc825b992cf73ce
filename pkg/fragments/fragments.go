package fragments

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// GetFragments lists the current user's fragments in the order the service
// returns them. With expand set, each entry carries full metadata; otherwise
// entries carry only IDs.
func (c *Client) GetFragments(ctx context.Context, expand bool) ([]Entry, error) {
	const op = "GetFragments"

	var query url.Values
	if expand {
		query = url.Values{"expand": []string{"1"}}
	}

	res, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodGet,
		path:        fragmentsPath,
		query:       query,
		contentType: contentTypeJSON,
	})
	if err != nil {
		return nil, err
	}
	if res.noContent() {
		return nil, nil
	}

	entries, err := decodeEntries(res.data)
	if err != nil {
		return nil, invalidJSON(op, res, err)
	}
	return entries, nil
}

// GetFragment fetches a fragment and returns the normalized body, parsed as
// JSON when the service declares a JSON type.
func (c *Client) GetFragment(ctx context.Context, id string) (*Payload, error) {
	const op = "GetFragment"
	if err := validateID(op, id); err != nil {
		return nil, err
	}

	res, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodGet,
		path:        fragmentPath(id),
		contentType: contentTypeJSON,
	})
	if err != nil {
		return nil, err
	}
	return payload(op, res)
}

// GetFragmentData fetches a fragment's content and returns the body verbatim,
// whatever its declared type.
func (c *Client) GetFragmentData(ctx context.Context, id string) ([]byte, error) {
	const op = "GetFragmentData"
	if err := validateID(op, id); err != nil {
		return nil, err
	}

	res, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodGet,
		path:        fragmentPath(id),
		contentType: contentTypeAny,
	})
	if err != nil {
		return nil, err
	}
	if res.noContent() {
		return nil, nil
	}
	return res.data, nil
}

// GetFragmentMetadata fetches a fragment's metadata without its content.
func (c *Client) GetFragmentMetadata(ctx context.Context, id string) (*Fragment, error) {
	const op = "GetFragmentMetadata"
	if err := validateID(op, id); err != nil {
		return nil, err
	}

	res, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodGet,
		path:        fragmentPath(id) + "/info",
		contentType: contentTypeJSON,
	})
	if err != nil {
		return nil, err
	}
	return fragmentResult(op, res)
}

// CreateFragment stores content as a new fragment of the given type and
// returns the metadata the service assigned, including its ID.
func (c *Client) CreateFragment(ctx context.Context, content []byte, contentType string) (*Fragment, error) {
	const op = "CreateFragment"
	if contentType == "" {
		contentType = DefaultContentType
	}

	res, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        fragmentsPath,
		contentType: contentType,
		body:        nonNil(content),
	})
	if err != nil {
		return nil, err
	}
	return fragmentResult(op, res)
}

// UpdateFragment replaces a fragment's content and returns its updated
// metadata.
func (c *Client) UpdateFragment(ctx context.Context, id string, content []byte, contentType string) (*Fragment, error) {
	const op = "UpdateFragment"
	if err := validateID(op, id); err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = DefaultContentType
	}

	res, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodPut,
		path:        fragmentPath(id),
		contentType: contentType,
		body:        nonNil(content),
	})
	if err != nil {
		return nil, err
	}
	return fragmentResult(op, res)
}

// DeleteFragment deletes a fragment. It returns true when the service
// acknowledged the delete with a 2xx status.
func (c *Client) DeleteFragment(ctx context.Context, id string) (bool, error) {
	const op = "DeleteFragment"
	if err := validateID(op, id); err != nil {
		return false, err
	}

	if _, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodDelete,
		path:        fragmentPath(id),
		contentType: contentTypeAny,
	}); err != nil {
		return false, err
	}
	return true, nil
}

func fragmentPath(id string) string {
	return fragmentsPath + "/" + url.PathEscape(id)
}

func validateID(op, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Op: op, Field: "id", Message: "fragment id is required"}
	}
	return nil
}

// nonNil makes an empty body explicit so the request still carries a
// Content-Length of zero.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

// fragmentResult decodes a metadata response. A 204, an empty body or a
// body declared as something other than JSON yields nil.
func fragmentResult(op string, res *response) (*Fragment, error) {
	if res.noContent() || len(bytes.TrimSpace(res.data)) == 0 {
		return nil, nil
	}
	if mt := mediaType(res.contentType); mt != "" && !isJSONMediaType(mt) {
		return nil, nil
	}
	frag, err := decodeFragment(res.data)
	if err != nil {
		return nil, invalidJSON(op, res, err)
	}
	return frag, nil
}

// decodeFragment accepts either {"fragment": {...}} or the bare metadata
// object.
func decodeFragment(data []byte) (*Fragment, error) {
	var envelope struct {
		Fragment *Fragment `json:"fragment"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	if envelope.Fragment != nil {
		return envelope.Fragment, nil
	}

	var frag Fragment
	if err := json.Unmarshal(data, &frag); err != nil {
		return nil, err
	}
	return &frag, nil
}

// decodeEntries unwraps {"fragments": [...]} or a bare array. A missing
// envelope field yields an empty listing and null elements are skipped.
func decodeEntries(data []byte) ([]Entry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []Entry{}, nil
	}

	if data[0] == '[' {
		var entries []Entry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
		return compactEntries(entries), nil
	}

	var envelope struct {
		Fragments []Entry `json:"fragments"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	return compactEntries(envelope.Fragments), nil
}

func compactEntries(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.isZero() {
			out = append(out, e)
		}
	}
	return out
}
