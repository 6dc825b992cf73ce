package fragments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"strings"
	"time"
)

// Fragment is the metadata the service keeps for a stored fragment.
type Fragment struct {
	ID      string    `json:"id" yaml:"id"`
	OwnerID string    `json:"ownerId" yaml:"ownerId"`
	Created time.Time `json:"created" yaml:"created"`
	Updated time.Time `json:"updated" yaml:"updated"`
	Type    string    `json:"type" yaml:"type"`
	Size    int64     `json:"size" yaml:"size"`
}

// MediaType returns Type without parameters such as charset.
func (f *Fragment) MediaType() string {
	return mediaType(f.Type)
}

// IsText reports whether the fragment content is text.
func (f *Fragment) IsText() bool {
	return strings.HasPrefix(f.MediaType(), "text/")
}

// IsJSON reports whether the fragment content is JSON.
func (f *Fragment) IsJSON() bool {
	return isJSONMediaType(f.MediaType())
}

// Entry is one element of a fragment listing. Unexpanded listings only carry
// the ID; expanded listings also carry the metadata.
type Entry struct {
	ID       string    `json:"id" yaml:"id"`
	Fragment *Fragment `json:"fragment,omitempty" yaml:"fragment,omitempty"`
}

// UnmarshalJSON accepts either a bare ID string or a metadata object. A JSON
// null leaves the entry untouched.
func (e *Entry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*e = Entry{ID: id}
		return nil
	}

	var frag Fragment
	if err := json.Unmarshal(data, &frag); err != nil {
		return fmt.Errorf("fragment entry is neither an ID nor metadata: %w", err)
	}
	*e = Entry{ID: frag.ID, Fragment: &frag}
	return nil
}

// isZero reports whether e carries neither an ID nor metadata.
func (e Entry) isZero() bool {
	return e.ID == "" && e.Fragment == nil
}

// IDs returns the IDs of entries in order.
func IDs(entries []Entry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}

// Payload is a normalized response body.
type Payload struct {
	Status      int
	ContentType string
	Data        []byte

	// JSON holds the parsed body when the response declared a JSON media type.
	JSON any
}

// IsJSON reports whether the payload was parsed as JSON.
func (p *Payload) IsJSON() bool {
	return p.JSON != nil
}

// Text returns the body as a string.
func (p *Payload) Text() string {
	return string(p.Data)
}

// Decode unmarshals the body into v.
func (p *Payload) Decode(v any) error {
	return json.Unmarshal(p.Data, v)
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
		return strings.ToLower(strings.TrimSpace(mt))
	}
	return mt
}

func isJSONMediaType(mt string) bool {
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
