package remote

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dezobq/snapgram/internal/errs"
)

func TestQueryString(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"equal", Equal("accountId", "a1"), `{"method":"equal","attribute":"accountId","values":["a1"]}`},
		{"orderDesc", OrderDesc(AttrUpdatedAt), `{"method":"orderDesc","attribute":"$updatedAt"}`},
		{"limit", Limit(9), `{"method":"limit","values":[9]}`},
		{"cursorAfter", CursorAfter("p9"), `{"method":"cursorAfter","values":["p9"]}`},
		{"search", Search("caption", "sunset"), `{"method":"search","attribute":"caption","values":["sunset"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, tt.query.String())
		})
	}
}

func TestQueryIntValueAfterDecode(t *testing.T) {
	var q Query
	require.NoError(t, json.Unmarshal([]byte(Limit(20).String()), &q))
	assert.Equal(t, 20, q.IntValue())
}

func TestDocumentDecode(t *testing.T) {
	payload := `{
		"$id": "p1",
		"$collectionId": "posts",
		"$createdAt": "2024-01-02T10:00:00.000+00:00",
		"$updatedAt": "2024-01-03T10:00:00.000+00:00",
		"$permissions": [],
		"caption": "hello",
		"creator": {"$id": "u1", "name": "Ada"},
		"likes": [{"$id": "u2"}, "u3"]
	}`

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(payload), &doc))
	assert.Equal(t, "p1", doc.ID)
	assert.Equal(t, "posts", doc.CollectionID)
	assert.Equal(t, 2024, doc.UpdatedAt.Year())
	assert.NotContains(t, doc.Data, "$permissions")

	var out struct {
		ID        string    `json:"$id"`
		UpdatedAt time.Time `json:"$updatedAt"`
		Caption   string    `json:"caption"`
		Creator   Ref       `json:"creator"`
		Likes     IDs       `json:"likes"`
	}
	require.NoError(t, doc.Decode(&out))
	assert.Equal(t, "p1", out.ID)
	assert.Equal(t, "hello", out.Caption)
	assert.Equal(t, "u1", out.Creator.ID)
	assert.Equal(t, "Ada", out.Creator.Doc["name"])
	assert.Equal(t, IDs{"u2", "u3"}, out.Likes)
	assert.True(t, out.UpdatedAt.After(doc.CreatedAt))
}

func TestUniqueID(t *testing.T) {
	a, b := UniqueID(), UniqueID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 32)
	assert.NotContains(t, a, "-")
}

func TestAPIErrorClassification(t *testing.T) {
	notFound := fmt.Errorf("get: %w", &APIError{Status: 404, Type: "document_not_found"})
	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsInvalid(notFound))

	assert.True(t, IsInvalid(&APIError{Status: 409}))
	assert.True(t, IsUnauthorized(&APIError{Status: 401}))
	assert.Equal(t, 0, StatusOf(fmt.Errorf("dial tcp: refused")))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"404", &APIError{Status: 404}, errs.ErrNotFound},
		{"400", &APIError{Status: 400}, errs.ErrValidation},
		{"401", &APIError{Status: 401}, errs.ErrUnauthorized},
		{"500", &APIError{Status: 500}, errs.ErrRemote},
		{"transport", fmt.Errorf("dial tcp: refused"), errs.ErrRemote},
		{"already typed", errs.Validation("x", "bad"), errs.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify("getPostById", tt.err)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
	assert.NoError(t, Classify("noop", nil))
}

func TestDocumentAttributesCollapsesRelationships(t *testing.T) {
	doc := &Document{ID: "p1", Data: map[string]any{
		"caption": "hi",
		"creator": map[string]any{"$id": "u1", "name": "Ada"},
		"likes":   []any{map[string]any{"$id": "u2"}, "u3"},
	}}

	attrs := doc.Attributes()
	assert.Equal(t, "hi", attrs["caption"])
	assert.Equal(t, "u1", attrs["creator"])
	assert.Equal(t, []any{"u2", "u3"}, attrs["likes"])
}

func TestRestorableRoundTrip(t *testing.T) {
	created := time.Date(2024, 2, 3, 4, 5, 6, 7000000, time.UTC)
	doc := &Document{
		ID:        "p1",
		CreatedAt: created,
		UpdatedAt: created.Add(time.Minute),
		Data:      map[string]any{"caption": "hi", "creator": map[string]any{"$id": "u1"}},
	}

	attrs, gotCreated, gotUpdated := SplitTimestamps(doc.Restorable())
	assert.True(t, created.Equal(gotCreated))
	assert.True(t, doc.UpdatedAt.Equal(gotUpdated))
	assert.Equal(t, map[string]any{"caption": "hi", "creator": "u1"}, attrs)

	_, zeroCreated, _ := SplitTimestamps(map[string]any{AttrCreatedAt: "yesterday"})
	assert.True(t, zeroCreated.IsZero())
}
