package model

// DocumentSnapshot is the state of a whole document at fetch time.
// Callers must not modify a snapshot they received; it may be shared with
// the cache.
type DocumentSnapshot struct {
	PageCount int            `json:"pageCount"`
	Fonts     []DocumentFont `json:"fonts,omitempty"`
	Pages     []PageSnapshot `json:"pages"`
}

// PageSnapshot is one page and the elements on it, in document order.
type PageSnapshot struct {
	PageRef  *PageRef       `json:"pageRef"`
	Elements []Ref          `json:"elements"`
	Fonts    []DocumentFont `json:"fonts,omitempty"`
}

// TypedDocumentSnapshot is a document snapshot decoded for a single
// reference variant.
type TypedDocumentSnapshot struct {
	Variant   Variant             `json:"-"`
	PageCount int                 `json:"pageCount"`
	Fonts     []DocumentFont      `json:"fonts,omitempty"`
	Pages     []TypedPageSnapshot `json:"pages"`
}

// TypedPageSnapshot is a page snapshot decoded for a single reference
// variant. Elements are narrowed with selection.Project.
type TypedPageSnapshot struct {
	Variant  Variant        `json:"-"`
	PageRef  *PageRef       `json:"pageRef"`
	Elements []Ref          `json:"elements"`
	Fonts    []DocumentFont `json:"fonts,omitempty"`
}
