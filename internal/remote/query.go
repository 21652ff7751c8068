package remote

import "encoding/json"

// Query methods understood by the platform.
const (
	MethodEqual       = "equal"
	MethodOrderDesc   = "orderDesc"
	MethodLimit       = "limit"
	MethodCursorAfter = "cursorAfter"
	MethodSearch      = "search"
)

// System attributes usable in queries.
const (
	AttrID        = "$id"
	AttrCreatedAt = "$createdAt"
	AttrUpdatedAt = "$updatedAt"
)

// Query is one filter predicate, serialized the way the platform expects it in
// the queries[] parameter.
type Query struct {
	Method    string `json:"method"`
	Attribute string `json:"attribute,omitempty"`
	Values    []any  `json:"values,omitempty"`
}

func Equal(attribute string, values ...any) Query {
	return Query{Method: MethodEqual, Attribute: attribute, Values: values}
}

func OrderDesc(attribute string) Query {
	return Query{Method: MethodOrderDesc, Attribute: attribute}
}

func Limit(n int) Query {
	return Query{Method: MethodLimit, Values: []any{n}}
}

func CursorAfter(documentID string) Query {
	return Query{Method: MethodCursorAfter, Values: []any{documentID}}
}

func Search(attribute, term string) Query {
	return Query{Method: MethodSearch, Attribute: attribute, Values: []any{term}}
}

func (q Query) String() string {
	b, _ := json.Marshal(q)
	return string(b)
}

// StringValue returns the first value as a string, "" if absent.
func (q Query) StringValue() string {
	if len(q.Values) == 0 {
		return ""
	}
	s, _ := q.Values[0].(string)
	return s
}

// IntValue returns the first value as an int, 0 if absent.
func (q Query) IntValue() int {
	if len(q.Values) == 0 {
		return 0
	}
	switch v := q.Values[0].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	}
	return 0
}
