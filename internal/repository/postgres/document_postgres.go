package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"docportal/internal/model"
	"docportal/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `d.id, d.title, COALESCE(d.description, ''), d.tags, d.owner_id, u.username,
		COALESCE(d.tenant_id, ''), d.status,
		(SELECT MAX(v.version_number) FROM document_versions v WHERE v.document_id = d.id),
		d.created_at, d.updated_at`

// sortColumns whitelists the columns a caller may order by.
var sortColumns = map[repository.SortField]string{
	repository.SortCreatedAt: "d.created_at",
	repository.SortUpdatedAt: "d.updated_at",
	repository.SortTitle:     "d.title",
	repository.SortStatus:    "d.status",
}

// likeEscaper neutralises LIKE wildcards in user input.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d       model.Document
		tags    []byte
		current sql.NullInt32
		status  string
	)
	if err := row.Scan(
		&d.ID,
		&d.Title,
		&d.Description,
		&tags,
		&d.OwnerID,
		&d.OwnerUsername,
		&d.TenantID,
		&status,
		&current,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.Status = model.DocumentStatus(status)
	d.Tags = make([]string, 0)
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &d.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	if current.Valid {
		v := int(current.Int32)
		d.CurrentVersion = &v
	}
	return &d, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	tags, err := encodeTags(doc.Tags)
	if err != nil {
		return nil, err
	}
	const q = `
		WITH d AS (
			INSERT INTO documents (title, description, tags, owner_id, tenant_id, status, created_at, updated_at)
			VALUES ($1, NULLIF($2, ''), $3::jsonb, $4, NULLIF($5, ''), $6, $7, $7)
			RETURNING *
		)
		SELECT ` + documentColumns + `
		FROM d
		JOIN users u ON u.id = d.owner_id
	`
	row := r.db.QueryRowContext(ctx, q,
		doc.Title,
		doc.Description,
		tags,
		doc.OwnerID,
		doc.TenantID,
		string(doc.Status),
		doc.CreatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id int64) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents d
		JOIN users u ON u.id = d.owner_id
		WHERE d.id = $1
	`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// List returns documents matching the filters using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, dq repository.DocumentQuery) (*repository.PageResult[model.Document], error) {
	var (
		where []string
		args  []any
	)
	if t := strings.TrimSpace(dq.Title); t != "" {
		args = append(args, "%"+likeEscaper.Replace(strings.ToUpper(t))+"%")
		where = append(where, fmt.Sprintf(`upper(d.title) LIKE $%d ESCAPE '\'`, len(args)))
	}
	if dq.Status != "" {
		args = append(args, string(dq.Status))
		where = append(where, fmt.Sprintf("d.status = $%d", len(args)))
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	// Count total rows
	var total int64
	qCount := "SELECT COUNT(*) FROM documents d " + whereSQL
	if err := r.db.QueryRowContext(ctx, qCount, args...).Scan(&total); err != nil {
		return nil, err
	}

	col, ok := sortColumns[dq.SortBy]
	if !ok {
		col = sortColumns[repository.SortCreatedAt]
	}
	dir := "DESC"
	if dq.Ascending {
		dir = "ASC"
	}

	// Fetch page
	qList := fmt.Sprintf(`
		SELECT %s
		FROM documents d
		JOIN users u ON u.id = d.owner_id
		%s
		ORDER BY %s %s, d.id %s
		LIMIT $%d OFFSET $%d
	`, documentColumns, whereSQL, col, dir, dir, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, qList, append(args, dq.Limit, dq.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// Update overwrites the mutable metadata of a document and returns the stored record.
func (r *DocumentPostgres) Update(ctx context.Context, doc *model.Document) (*model.Document, error) {
	tags, err := encodeTags(doc.Tags)
	if err != nil {
		return nil, err
	}
	const q = `
		UPDATE documents
		SET title = $2, description = NULLIF($3, ''), tags = $4::jsonb, tenant_id = NULLIF($5, ''), updated_at = $6
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, q, doc.ID, doc.Title, doc.Description, tags, doc.TenantID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, doc.ID)
}

// UpdateStatus sets the status of a document and returns the stored record.
func (r *DocumentPostgres) UpdateStatus(ctx context.Context, id int64, status model.DocumentStatus) (*model.Document, error) {
	const q = `UPDATE documents SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, string(status), time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM documents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// Exists reports whether a document row with the ID is present.
func (r *DocumentPostgres) Exists(ctx context.Context, id int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
