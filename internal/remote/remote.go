// Package remote describes the backend-as-a-service contract the data access
// layer is written against: accounts and sessions, document collections with
// filter queries, and a single file bucket.
package remote

import (
	"context"
	"io"
)

type Accounts interface {
	// Create registers a new identity. The returned account is nil only on error.
	Create(ctx context.Context, id, email, password, name string) (*Account, error)
	// Delete removes an identity with server privileges.
	Delete(ctx context.Context, id string) error
	CreateEmailSession(ctx context.Context, email, password string) (*Session, error)
	// Get resolves the account owning the session.
	Get(ctx context.Context, session *Session) (*Account, error)
	DeleteSession(ctx context.Context, session *Session) error
}

type Databases interface {
	CreateDocument(ctx context.Context, collection, id string, data map[string]any) (*Document, error)
	GetDocument(ctx context.Context, collection, id string) (*Document, error)
	UpdateDocument(ctx context.Context, collection, id string, data map[string]any) (*Document, error)
	DeleteDocument(ctx context.Context, collection, id string) error
	ListDocuments(ctx context.Context, collection string, queries ...Query) (*DocumentList, error)
}

type Storage interface {
	CreateFile(ctx context.Context, id string, upload Upload) (*File, error)
	GetFile(ctx context.Context, id string) (*File, error)
	DeleteFile(ctx context.Context, id string) error
	// PreviewURL builds the public preview URL of a stored file without any
	// network call.
	PreviewURL(id string, opts Preview) (string, error)
}

type Avatars interface {
	// InitialsURL derives an avatar image URL from a display name.
	InitialsURL(name string) string
}

// Upload is a file about to be sent to the bucket.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Preview struct {
	Width   int
	Height  int
	Gravity string
	Quality int
}

// Service bundles the platform handles and the collection identifiers.
type Service struct {
	Accounts  Accounts
	Databases Databases
	Storage   Storage
	Avatars   Avatars

	UserCollection  string
	PostCollection  string
	SavesCollection string
}
