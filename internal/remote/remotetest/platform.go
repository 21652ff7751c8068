// Package remotetest provides an in-memory platform implementing every
// interface of package remote, with call recording and failure injection.
package remotetest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dezobq/snapgram/internal/remote"
)

// Operation names recorded by the platform and accepted by Fail.
const (
	OpCreateAccount   = "accounts.create"
	OpDeleteAccount   = "accounts.delete"
	OpCreateSession   = "accounts.createEmailSession"
	OpGetAccount      = "accounts.get"
	OpDeleteSession   = "accounts.deleteSession"
	OpCreateDocument  = "databases.createDocument"
	OpGetDocument     = "databases.getDocument"
	OpUpdateDocument  = "databases.updateDocument"
	OpDeleteDocument  = "databases.deleteDocument"
	OpListDocuments   = "databases.listDocuments"
	OpCreateFile      = "storage.createFile"
	OpGetFile         = "storage.getFile"
	OpDeleteFile      = "storage.deleteFile"
	OpPreviewURL      = "storage.previewURL"
	defaultListLimit  = 25
	previewURLPattern = "fake://storage/%s/preview?width=%d&height=%d&gravity=%s&quality=%d"
)

type account struct {
	remote.Account
	password string
}

type collection struct {
	order []string
	docs  map[string]*remote.Document
}

type Platform struct {
	mu          sync.Mutex
	now         time.Time
	accounts    map[string]*account
	sessions    map[string]*remote.Session
	collections map[string]*collection
	files       map[string]*remote.File
	contents    map[string][]byte
	calls       []string
	failures    map[string][]error

	// OnCall, when set, runs before each operation executes, outside the lock.
	OnCall func(op string)

	// SessionLifetime bounds new sessions. Their Expire is measured on the
	// wall clock, like the real platform.
	SessionLifetime time.Duration
}

var (
	_ remote.Accounts  = (*Platform)(nil)
	_ remote.Databases = (*Platform)(nil)
	_ remote.Storage   = (*Platform)(nil)
	_ remote.Avatars   = (*Platform)(nil)
)

func New() *Platform {
	return &Platform{
		now:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		accounts:    map[string]*account{},
		sessions:    map[string]*remote.Session{},
		collections: map[string]*collection{},
		files:       map[string]*remote.File{},
		contents:    map[string][]byte{},
		failures:    map[string][]error{},

		SessionLifetime: 365 * 24 * time.Hour,
	}
}

// Service returns a remote.Service backed by p with collections "users",
// "posts" and "saves".
func (p *Platform) Service() *remote.Service {
	return &remote.Service{
		Accounts:        p,
		Databases:       p,
		Storage:         p,
		Avatars:         p,
		UserCollection:  "users",
		PostCollection:  "posts",
		SavesCollection: "saves",
	}
}

// Fail queues err as the result of the next call to op.
func (p *Platform) Fail(op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[op] = append(p.failures[op], err)
}

func (p *Platform) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *Platform) CallCount(op string) int {
	n := 0
	for _, c := range p.Calls() {
		if c == op {
			n++
		}
	}
	return n
}

func (p *Platform) ResetCalls() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
}

func (p *Platform) FileExists(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.files[id]
	return ok
}

func (p *Platform) FileCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.files)
}

// Doc returns a copy of the stored document, nil when absent.
func (p *Platform) Doc(collectionID, id string) *remote.Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.collections[collectionID]
	if !ok {
		return nil
	}
	d, ok := c.docs[id]
	if !ok {
		return nil
	}
	return cloneDoc(d)
}

func (p *Platform) DocCount(collectionID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.collections[collectionID]; ok {
		return len(c.docs)
	}
	return 0
}

func (p *Platform) AccountExists(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.accounts[id]
	return ok
}

func (p *Platform) enter(ctx context.Context, op string) error {
	p.mu.Lock()
	p.calls = append(p.calls, op)
	var err error
	if q := p.failures[op]; len(q) > 0 {
		err, p.failures[op] = q[0], q[1:]
	}
	hook := p.OnCall
	p.mu.Unlock()

	if hook != nil {
		hook(op)
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (p *Platform) tick() time.Time {
	p.now = p.now.Add(time.Millisecond)
	return p.now
}

func notFound(kind, id string) error {
	return &remote.APIError{Status: http.StatusNotFound, Type: kind + "_not_found", Message: fmt.Sprintf("%s %s not found", kind, id)}
}

// Accounts

func (p *Platform) Create(ctx context.Context, id, email, password, name string) (*remote.Account, error) {
	if err := p.enter(ctx, OpCreateAccount); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, a := range p.accounts {
		if strings.EqualFold(a.Email, email) {
			return nil, &remote.APIError{Status: http.StatusConflict, Type: "user_already_exists", Message: "email already used"}
		}
	}
	a := &account{Account: remote.Account{ID: id, Name: name, Email: email, CreatedAt: p.tick()}, password: password}
	p.accounts[id] = a
	out := a.Account
	return &out, nil
}

func (p *Platform) Delete(ctx context.Context, id string) error {
	if err := p.enter(ctx, OpDeleteAccount); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.accounts[id]; !ok {
		return notFound("user", id)
	}
	delete(p.accounts, id)
	return nil
}

func (p *Platform) CreateEmailSession(ctx context.Context, email, password string) (*remote.Session, error) {
	if err := p.enter(ctx, OpCreateSession); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, a := range p.accounts {
		if strings.EqualFold(a.Email, email) && a.password == password {
			s := &remote.Session{
				ID:     remote.UniqueID(),
				UserID: a.ID,
				Secret: remote.UniqueID(),
				Expire: time.Now().Add(p.SessionLifetime),
			}
			p.sessions[s.Secret] = s
			out := *s
			return &out, nil
		}
	}
	return nil, &remote.APIError{Status: http.StatusUnauthorized, Type: "user_invalid_credentials", Message: "invalid credentials"}
}

func (p *Platform) Get(ctx context.Context, session *remote.Session) (*remote.Account, error) {
	if err := p.enter(ctx, OpGetAccount); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if session == nil {
		return nil, &remote.APIError{Status: http.StatusUnauthorized, Type: "general_unauthorized_scope"}
	}
	s, ok := p.sessions[session.Secret]
	if !ok {
		return nil, &remote.APIError{Status: http.StatusUnauthorized, Type: "user_session_not_found"}
	}
	a, ok := p.accounts[s.UserID]
	if !ok {
		return nil, notFound("user", s.UserID)
	}
	out := a.Account
	return &out, nil
}

func (p *Platform) DeleteSession(ctx context.Context, session *remote.Session) error {
	if err := p.enter(ctx, OpDeleteSession); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if session == nil {
		return &remote.APIError{Status: http.StatusUnauthorized, Type: "general_unauthorized_scope"}
	}
	if _, ok := p.sessions[session.Secret]; !ok {
		return notFound("session", session.ID)
	}
	delete(p.sessions, session.Secret)
	return nil
}

// Databases

func (p *Platform) coll(id string) *collection {
	c, ok := p.collections[id]
	if !ok {
		c = &collection{docs: map[string]*remote.Document{}}
		p.collections[id] = c
	}
	return c
}

func (p *Platform) CreateDocument(ctx context.Context, collectionID, id string, data map[string]any) (*remote.Document, error) {
	if err := p.enter(ctx, OpCreateDocument); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.coll(collectionID)
	if _, ok := c.docs[id]; ok {
		return nil, &remote.APIError{Status: http.StatusConflict, Type: "document_already_exists"}
	}
	attrs, createdAt, updatedAt := remote.SplitTimestamps(data)
	now := p.tick()
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = now
	}
	d := &remote.Document{ID: id, CollectionID: collectionID, CreatedAt: createdAt, UpdatedAt: updatedAt, Data: cloneData(attrs)}
	c.docs[id] = d
	c.order = append(c.order, id)
	return cloneDoc(d), nil
}

func (p *Platform) GetDocument(ctx context.Context, collectionID, id string) (*remote.Document, error) {
	if err := p.enter(ctx, OpGetDocument); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.coll(collectionID).docs[id]
	if !ok {
		return nil, notFound("document", id)
	}
	return cloneDoc(d), nil
}

func (p *Platform) UpdateDocument(ctx context.Context, collectionID, id string, data map[string]any) (*remote.Document, error) {
	if err := p.enter(ctx, OpUpdateDocument); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.coll(collectionID).docs[id]
	if !ok {
		return nil, notFound("document", id)
	}
	for k, v := range data {
		d.Data[k] = v
	}
	d.UpdatedAt = p.tick()
	return cloneDoc(d), nil
}

func (p *Platform) DeleteDocument(ctx context.Context, collectionID, id string) error {
	if err := p.enter(ctx, OpDeleteDocument); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.coll(collectionID)
	if _, ok := c.docs[id]; !ok {
		return notFound("document", id)
	}
	delete(c.docs, id)
	for i, o := range c.order {
		if o == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (p *Platform) ListDocuments(ctx context.Context, collectionID string, queries ...remote.Query) (*remote.DocumentList, error) {
	if err := p.enter(ctx, OpListDocuments); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.coll(collectionID)

	docs := make([]*remote.Document, 0, len(c.order))
	for _, id := range c.order {
		docs = append(docs, c.docs[id])
	}

	limit := defaultListLimit
	cursor := ""
	for _, q := range queries {
		switch q.Method {
		case remote.MethodEqual:
			docs = filter(docs, func(d *remote.Document) bool {
				v := attr(d, q.Attribute)
				for _, want := range q.Values {
					if fmt.Sprint(want) == fmt.Sprint(v) {
						return true
					}
				}
				return false
			})
		case remote.MethodSearch:
			term := strings.ToLower(q.StringValue())
			docs = filter(docs, func(d *remote.Document) bool {
				return strings.Contains(strings.ToLower(fmt.Sprint(attr(d, q.Attribute))), term)
			})
		case remote.MethodOrderDesc:
			sort.SliceStable(docs, func(i, j int) bool { return less(docs[j], docs[i], q.Attribute) })
		case remote.MethodLimit:
			limit = q.IntValue()
		case remote.MethodCursorAfter:
			cursor = q.StringValue()
		default:
			return nil, &remote.APIError{Status: http.StatusBadRequest, Type: "general_query_invalid", Message: q.Method}
		}
	}
	total := len(docs)

	if cursor != "" {
		idx := -1
		for i, d := range docs {
			if d.ID == cursor {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, &remote.APIError{Status: http.StatusBadRequest, Type: "general_cursor_not_found", Message: cursor}
		}
		docs = docs[idx+1:]
	}
	if limit < len(docs) {
		docs = docs[:limit]
	}

	out := &remote.DocumentList{Total: total, Documents: make([]*remote.Document, 0, len(docs))}
	for _, d := range docs {
		out.Documents = append(out.Documents, cloneDoc(d))
	}
	return out, nil
}

func filter(docs []*remote.Document, keep func(*remote.Document) bool) []*remote.Document {
	out := docs[:0:0]
	for _, d := range docs {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

func attr(d *remote.Document, name string) any {
	switch name {
	case remote.AttrID:
		return d.ID
	case remote.AttrCreatedAt:
		return d.CreatedAt
	case remote.AttrUpdatedAt:
		return d.UpdatedAt
	}
	return d.Data[name]
}

func less(a, b *remote.Document, name string) bool {
	switch name {
	case remote.AttrCreatedAt:
		return a.CreatedAt.Before(b.CreatedAt)
	case remote.AttrUpdatedAt:
		return a.UpdatedAt.Before(b.UpdatedAt)
	}
	return fmt.Sprint(attr(a, name)) < fmt.Sprint(attr(b, name))
}

// Storage

func (p *Platform) CreateFile(ctx context.Context, id string, upload remote.Upload) (*remote.File, error) {
	if err := p.enter(ctx, OpCreateFile); err != nil {
		return nil, err
	}
	var body []byte
	if upload.Body != nil {
		b, err := io.ReadAll(upload.Body)
		if err != nil {
			return nil, err
		}
		body = b
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	f := &remote.File{ID: id, BucketID: "media", Name: upload.Name, MimeType: upload.ContentType, Size: int64(len(body)), CreatedAt: p.tick()}
	p.files[id] = f
	p.contents[id] = body
	out := *f
	return &out, nil
}

func (p *Platform) GetFile(ctx context.Context, id string) (*remote.File, error) {
	if err := p.enter(ctx, OpGetFile); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.files[id]
	if !ok {
		return nil, notFound("storage_file", id)
	}
	out := *f
	return &out, nil
}

func (p *Platform) DeleteFile(ctx context.Context, id string) error {
	if err := p.enter(ctx, OpDeleteFile); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.files[id]; !ok {
		return notFound("storage_file", id)
	}
	delete(p.files, id)
	delete(p.contents, id)
	return nil
}

func (p *Platform) PreviewURL(id string, opts remote.Preview) (string, error) {
	if err := p.enter(context.Background(), OpPreviewURL); err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("preview: empty file id")
	}
	return fmt.Sprintf(previewURLPattern, id, opts.Width, opts.Height, opts.Gravity, opts.Quality), nil
}

func (p *Platform) InitialsURL(name string) string {
	return "fake://avatars/initials?name=" + url.QueryEscape(name)
}

func cloneData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func cloneDoc(d *remote.Document) *remote.Document {
	out := *d
	out.Data = cloneData(d.Data)
	return &out
}
