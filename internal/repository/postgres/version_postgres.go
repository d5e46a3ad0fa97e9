package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"docportal/internal/model"
	"docportal/internal/repository"
)

// uniqueViolation is the Postgres SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

// VersionPostgres is a PostgreSQL implementation of repository.VersionRepository.
type VersionPostgres struct {
	db *sql.DB
}

// NewVersionPostgres creates a new VersionPostgres repository.
func NewVersionPostgres(db *sql.DB) *VersionPostgres {
	return &VersionPostgres{db: db}
}

var _ repository.VersionRepository = (*VersionPostgres)(nil)

const versionColumns = `v.id, v.document_id, v.version_number, v.file_key, v.file_name, v.file_size,
		v.mime_type, v.uploaded_by, u.username, v.uploaded_at`

func scanVersion(row rowScanner) (*model.DocumentVersion, error) {
	var v model.DocumentVersion
	if err := row.Scan(
		&v.ID,
		&v.DocumentID,
		&v.VersionNumber,
		&v.FileKey,
		&v.FileName,
		&v.FileSize,
		&v.MimeType,
		&v.UploadedByID,
		&v.UploadedBy,
		&v.UploadedAt,
	); err != nil {
		return nil, err
	}
	return &v, nil
}

// Append inserts the next version of a document. The version number is computed
// inside the INSERT so it stays monotonic; a concurrent writer that loses the race
// hits the (document_id, version_number) unique key and gets ErrConflict.
func (r *VersionPostgres) Append(ctx context.Context, in *model.DocumentVersion) (*model.DocumentVersion, error) {
	const q = `
		WITH v AS (
			INSERT INTO document_versions
				(document_id, version_number, file_key, file_name, file_size, mime_type, uploaded_by, uploaded_at)
			SELECT $1::bigint, COALESCE(MAX(version_number), 0) + 1, $2::text, $3::text, $4::bigint, $5::text, $6::bigint, $7::timestamptz
			FROM document_versions
			WHERE document_id = $1::bigint
			RETURNING *
		)
		SELECT ` + versionColumns + `
		FROM v
		JOIN users u ON u.id = v.uploaded_by
	`
	out, err := scanVersion(r.db.QueryRowContext(ctx, q,
		in.DocumentID,
		in.FileKey,
		in.FileName,
		in.FileSize,
		in.MimeType,
		in.UploadedByID,
		in.UploadedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, repository.ErrConflict
		}
		return nil, err
	}
	return out, nil
}

// FindByID fetches a single version by its ID.
func (r *VersionPostgres) FindByID(ctx context.Context, id int64) (*model.DocumentVersion, error) {
	const q = `
		SELECT ` + versionColumns + `
		FROM document_versions v
		JOIN users u ON u.id = v.uploaded_by
		WHERE v.id = $1
	`
	v, err := scanVersion(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

// ListByDocument returns all versions of a document, oldest first.
func (r *VersionPostgres) ListByDocument(ctx context.Context, documentID int64) ([]model.DocumentVersion, error) {
	const q = `
		SELECT ` + versionColumns + `
		FROM document_versions v
		JOIN users u ON u.id = v.uploaded_by
		WHERE v.document_id = $1
		ORDER BY v.version_number ASC
	`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentVersion, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
