package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type Account struct {
	ID        string    `json:"$id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"$createdAt"`
}

type Session struct {
	ID     string    `json:"$id"`
	UserID string    `json:"userId"`
	Secret string    `json:"secret"`
	Expire time.Time `json:"expire"`
}

type File struct {
	ID        string    `json:"$id"`
	BucketID  string    `json:"bucketId"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mimeType"`
	Size      int64     `json:"sizeOriginal"`
	CreatedAt time.Time `json:"$createdAt"`
}

// Document is a schema-flexible record. System attributes are lifted out of
// Data; the remaining attributes stay as decoded JSON values.
type Document struct {
	ID           string
	CollectionID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Data         map[string]any
}

type DocumentList struct {
	Total     int         `json:"total"`
	Documents []*Document `json:"documents"`
}

func (d *Document) UnmarshalJSON(b []byte) error {
	raw := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	d.ID, _ = raw["$id"].(string)
	d.CollectionID, _ = raw["$collectionId"].(string)
	d.CreatedAt = parseTime(raw["$createdAt"])
	d.UpdatedAt = parseTime(raw["$updatedAt"])
	for _, k := range []string{"$id", "$collectionId", "$databaseId", "$createdAt", "$updatedAt", "$permissions"} {
		delete(raw, k)
	}
	d.Data = raw
	return nil
}

func (d *Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Data)+4)
	for k, v := range d.Data {
		out[k] = v
	}
	out["$id"] = d.ID
	out["$collectionId"] = d.CollectionID
	out["$createdAt"] = d.CreatedAt.UTC().Format(time.RFC3339Nano)
	out["$updatedAt"] = d.UpdatedAt.UTC().Format(time.RFC3339Nano)
	return json.Marshal(out)
}

// Decode fills v (a pointer to a struct with `json` tags) from the document,
// system attributes included.
func (d *Document) Decode(v any) error {
	b, err := d.MarshalJSON()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	return nil
}

func parseTime(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Ref is a relationship attribute: either a bare document id or an expanded
// document carrying at least "$id".
type Ref struct {
	ID  string
	Doc map[string]any
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &r.ID)
	}
	doc := map[string]any{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	r.ID, _ = doc["$id"].(string)
	r.Doc = doc
	return nil
}

func (r Ref) MarshalJSON() ([]byte, error) {
	if r.Doc != nil {
		return json.Marshal(r.Doc)
	}
	return json.Marshal(r.ID)
}

// IDs is a to-many relationship reduced to the related ids.
type IDs []string

func (ids *IDs) UnmarshalJSON(b []byte) error {
	var refs []Ref
	if err := json.Unmarshal(b, &refs); err != nil {
		return err
	}
	out := make(IDs, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.ID)
	}
	*ids = out
	return nil
}

// Attributes returns the user attributes with expanded relationships reduced
// to their ids, ready to be written back.
func (d *Document) Attributes() map[string]any {
	out := make(map[string]any, len(d.Data))
	for k, v := range d.Data {
		out[k] = collapse(v)
	}
	return out
}

func collapse(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if id, ok := t["$id"].(string); ok {
			return id
		}
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = collapse(e)
		}
		return out
	}
	return v
}

// Restorable returns Attributes plus the system timestamps, so a re-created
// document keeps its place in time-ordered lists.
func (d *Document) Restorable() map[string]any {
	out := d.Attributes()
	out[AttrCreatedAt] = d.CreatedAt.UTC().Format(time.RFC3339Nano)
	out[AttrUpdatedAt] = d.UpdatedAt.UTC().Format(time.RFC3339Nano)
	return out
}

// SplitTimestamps separates explicit "$createdAt"/"$updatedAt" values from the
// user attributes. Missing or malformed timestamps come back zero.
func SplitTimestamps(data map[string]any) (attrs map[string]any, createdAt, updatedAt time.Time) {
	attrs = make(map[string]any, len(data))
	for k, v := range data {
		switch k {
		case AttrCreatedAt:
			createdAt = parseTime(v)
		case AttrUpdatedAt:
			updatedAt = parseTime(v)
		default:
			attrs[k] = v
		}
	}
	return attrs, createdAt, updatedAt
}
