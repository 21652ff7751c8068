package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dezobq/snapgram/internal/remote"
)

// defaultLimit reprend la taille de page par défaut d'Appwrite.
const defaultLimit = 25

// documentRow stocke un document de n'importe quelle collection ; les
// attributs vivent dans la colonne jsonb.
type documentRow struct {
	Collection string    `gorm:"primaryKey;size:64"`
	ID         string    `gorm:"primaryKey;size:64"`
	Data       []byte    `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time `gorm:"index"`
	UpdatedAt  time.Time `gorm:"index"`
}

func (documentRow) TableName() string { return "documents" }

// Documents implémente remote.Databases sur Postgres.
type Documents struct {
	db  *gorm.DB
	now func() time.Time
}

var _ remote.Databases = (*Documents)(nil)

func NewDocuments(db *gorm.DB) *Documents {
	return &Documents{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (d *Documents) Migrate(ctx context.Context) error {
	return d.db.WithContext(ctx).AutoMigrate(&documentRow{})
}

func (d *Documents) CreateDocument(ctx context.Context, collection, id string, data map[string]any) (*remote.Document, error) {
	attrs, createdAt, updatedAt := remote.SplitTimestamps(data)
	raw, err := json.Marshal(attrs)
	if err != nil {
		return nil, invalid("document_invalid_structure", err.Error())
	}

	now := d.now()
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = now
	}
	row := documentRow{Collection: collection, ID: id, Data: raw, CreatedAt: createdAt, UpdatedAt: updatedAt}
	if err := d.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &remote.APIError{Status: http.StatusConflict, Type: "document_already_exists", Message: id}
		}
		return nil, fmt.Errorf("insert document: %w", err)
	}
	return row.document()
}

func (d *Documents) GetDocument(ctx context.Context, collection, id string) (*remote.Document, error) {
	row, err := d.find(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	return row.document()
}

// UpdateDocument fusionne data dans les attributs existants.
func (d *Documents) UpdateDocument(ctx context.Context, collection, id string, data map[string]any) (*remote.Document, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, invalid("document_invalid_structure", err.Error())
	}

	res := d.db.WithContext(ctx).
		Model(&documentRow{}).
		Where("collection = ? AND id = ?", collection, id).
		Updates(map[string]any{
			"data":       gorm.Expr("data || ?::jsonb", string(raw)),
			"updated_at": d.now(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("update document: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, notFound(id)
	}
	return d.GetDocument(ctx, collection, id)
}

func (d *Documents) DeleteDocument(ctx context.Context, collection, id string) error {
	res := d.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&documentRow{})
	if res.Error != nil {
		return fmt.Errorf("delete document: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(id)
	}
	return nil
}

func (d *Documents) ListDocuments(ctx context.Context, collection string, queries ...remote.Query) (*remote.DocumentList, error) {
	plan, err := planQueries(queries)
	if err != nil {
		return nil, err
	}

	filtered := func() *gorm.DB {
		tx := d.db.WithContext(ctx).Model(&documentRow{}).Where("collection = ?", collection)
		for _, w := range plan.where {
			tx = tx.Where(w.sql, w.args...)
		}
		return tx
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	tx := filtered()
	if plan.cursor != "" {
		cursor, err := d.find(ctx, collection, plan.cursor)
		if err != nil {
			if remote.IsNotFound(err) {
				return nil, invalid("general_cursor_not_found", "cursor document "+plan.cursor+" not found")
			}
			return nil, err
		}
		op := ">"
		if plan.order.desc {
			op = "<"
		}
		tx = tx.Where(fmt.Sprintf("(%s, id) %s (?, ?)", plan.order.expr, op), plan.order.value(cursor), cursor.ID)
	}

	var rows []documentRow
	err = tx.
		Order(plan.order.clause()).
		Limit(plan.limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	list := &remote.DocumentList{Total: int(total), Documents: make([]*remote.Document, 0, len(rows))}
	for i := range rows {
		doc, err := rows[i].document()
		if err != nil {
			return nil, err
		}
		list.Documents = append(list.Documents, doc)
	}
	return list, nil
}

func (d *Documents) find(ctx context.Context, collection, id string) (*documentRow, error) {
	var row documentRow
	err := d.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &row, nil
}

func (r *documentRow) document() (*remote.Document, error) {
	data := map[string]any{}
	if len(r.Data) > 0 {
		dec := json.NewDecoder(bytes.NewReader(r.Data))
		dec.UseNumber()
		if err := dec.Decode(&data); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", r.ID, err)
		}
	}
	return &remote.Document{
		ID:           r.ID,
		CollectionID: r.Collection,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		Data:         data,
	}, nil
}

func notFound(id string) error {
	return &remote.APIError{Status: http.StatusNotFound, Type: "document_not_found", Message: id}
}

func invalid(typ, msg string) error {
	return &remote.APIError{Status: http.StatusBadRequest, Type: typ, Message: msg}
}

// attrExpr traduit un attribut en expression SQL. Les noms d'attributs sont
// restreints pour pouvoir être interpolés.
func attrExpr(attr string) (string, error) {
	switch attr {
	case remote.AttrID:
		return "id", nil
	case remote.AttrCreatedAt:
		return "created_at", nil
	case remote.AttrUpdatedAt:
		return "updated_at", nil
	}
	if attr == "" || strings.IndexFunc(attr, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}) >= 0 {
		return "", invalid("general_query_invalid", "invalid attribute "+attr)
	}
	return "data->>'" + attr + "'", nil
}
