package blog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/anadolic/inkwell/internal/telemetry/tracing"
	"github.com/anadolic/inkwell/pkg"
)

// DefaultLastEditDate is stored when a new entry comes without an edit date.
const DefaultLastEditDate = "Today"

var _ entriesRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Add stores a new entry and assigns it a fresh ID. The caller must not
// set the ID, an entry with a preset ID is rejected.
func (r *Repo) Add(ctx context.Context, entry *Entry) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "entriesRepo.Add")
	defer span.End()

	if entry.ID != "" {
		return &ValidationError{Field: "id", Reason: "must not be set for new entries"}
	}
	if entry.Status == "" {
		entry.Status = StatusDraft
	}
	if entry.LastEditDate == "" {
		entry.LastEditDate = DefaultLastEditDate
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	entry.ID = uuid.NewString()
	_, err := r.db.Exec(
		ctx,
		`INSERT INTO blog_entry (id, title, content, author, last_edit_date, status)
			VALUES ($1, $2, $3, $4, $5, $6);`,
		entry.ID, entry.Title, entry.Content, entry.Author, entry.LastEditDate, entry.Status,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrEntryAlreadyExists
		}
		return fmt.Errorf("insert blog entry: %w", err)
	}

	return nil
}

func (r *Repo) Update(ctx context.Context, entry *Entry) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "entriesRepo.Update")
	span.SetAttributes(attribute.String("id", entry.ID))
	defer span.End()

	if entry.ID == "" {
		return &ValidationError{Field: "id", Reason: "must be set for updates"}
	}
	if entry.LastEditDate == "" {
		entry.LastEditDate = DefaultLastEditDate
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE blog_entry
			SET title = $1, content = $2, author = $3, last_edit_date = $4, status = $5
			WHERE id = $6`,
		entry.Title, entry.Content, entry.Author, entry.LastEditDate, entry.Status, entry.ID,
	)
	if err != nil {
		return fmt.Errorf("update blog entry: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "entriesRepo.Delete")
	span.SetAttributes(attribute.String("id", id))
	defer span.End()

	tag, err := r.db.Exec(ctx, `DELETE FROM blog_entry WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete blog entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// ListVisible returns entries sorted by title. Without editor access only
// published entries are included.
func (r *Repo) ListVisible(ctx context.Context, includeDrafts bool) ([]*Entry, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "entriesRepo.ListVisible")
	span.SetAttributes(attribute.Bool("includeDrafts", includeDrafts))
	defer span.End()

	query := `
		SELECT id, title, content, author, last_edit_date, status
		FROM blog_entry
		WHERE status = $1
		ORDER BY title ASC, id ASC;`
	args := []any{StatusPublished}
	if includeDrafts {
		query = `
			SELECT id, title, content, author, last_edit_date, status
			FROM blog_entry
			ORDER BY title ASC, id ASC;`
		args = nil
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return r.rows2entries(rows)
}

func (r *Repo) Get(ctx context.Context, id string) (*Entry, error) {
	log.Tracef("getting blog entry %s", id)

	ctx, span := tracing.GlobalTracer.Start(ctx, "entriesRepo.Get")
	span.SetAttributes(attribute.String("id", id))
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`
			SELECT id, title, content, author, last_edit_date, status
			FROM blog_entry
			WHERE id = $1;
		`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, ErrEntryNotFound
	}

	var entry Entry
	if err := rows.Scan(
		&entry.ID, &entry.Title, &entry.Content,
		&entry.Author, &entry.LastEditDate, &entry.Status,
	); err != nil {
		return nil, err
	}

	return &entry, nil
}

func (r *Repo) EntriesCount(ctx context.Context) (int, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "entriesRepo.EntriesCount")
	defer span.End()

	rows, err := r.db.Query(ctx, `SELECT COUNT(*) FROM blog_entry`)
	if err != nil {
		return -1, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return -1, err
	}

	if rows.Next() {
		var count int
		if err := rows.Scan(&count); err == nil {
			return count, nil
		}
	}

	return -1, errors.New("unexpected error, failed to get entries count")
}

func (r *Repo) rows2entries(rows pgx.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(
			&entry.ID, &entry.Title, &entry.Content,
			&entry.Author, &entry.LastEditDate, &entry.Status,
		); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}
