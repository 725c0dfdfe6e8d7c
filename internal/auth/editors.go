package auth

import (
	"context"
	"fmt"

	"github.com/coocood/freecache"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/anadolic/inkwell/internal/telemetry/tracing"
	"github.com/anadolic/inkwell/pkg"
)

const (
	editorsCacheSize = 512 * 1024
	// seconds, short on purpose so revoked editors lose access quickly
	editorsCacheExpire = 60
)

var (
	editorCacheHit  = []byte("1")
	editorCacheMiss = []byte("0")
)

// EditorsStore keeps the allow list of user IDs with editor access.
// Membership checks are cached briefly to keep the hot path off the db.
type EditorsStore struct {
	db    *pgxpool.Pool
	cache *freecache.Cache
}

func NewEditorsStore(db *pgxpool.Pool) *EditorsStore {
	return &EditorsStore{
		db:    db,
		cache: freecache.NewCache(editorsCacheSize),
	}
}

// IsAuthorized reports whether the user ID is on the allow list. Authorized
// means exactly one matching row, duplicates are treated as a data problem
// and deny access.
func (s *EditorsStore) IsAuthorized(ctx context.Context, userID string) (bool, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "editorsStore.IsAuthorized")
	span.SetAttributes(attribute.String("userID", userID))
	defer span.End()

	if userID == "" {
		return false, nil
	}

	cacheKey := []byte("editor||" + userID)
	if cached, err := s.cache.Get(cacheKey); err == nil {
		return string(cached) == string(editorCacheHit), nil
	}

	rows, err := s.db.Query(ctx, `SELECT COUNT(*) FROM editor WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("count editor rows: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return false, err
	}

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return false, err
		}
	}

	if count > 1 {
		log.Errorf("editors store, user %s has %d allow list rows", userID, count)
	}
	authorized := count == 1

	cacheVal := editorCacheMiss
	if authorized {
		cacheVal = editorCacheHit
	}
	if err := s.cache.Set(cacheKey, cacheVal, editorsCacheExpire); err != nil {
		log.Warnf("editors store, cache set for %s: %s", userID, err)
	}

	return authorized, nil
}

// AddEditor puts a user ID on the allow list.
func (s *EditorsStore) AddEditor(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user id empty")
	}

	_, err := s.db.Exec(ctx, `INSERT INTO editor (user_id) VALUES ($1)`, userID)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return fmt.Errorf("user %s is already an editor", userID)
		}
		return fmt.Errorf("insert editor: %w", err)
	}

	s.cache.Del([]byte("editor||" + userID))

	return nil
}

// RemoveEditor takes a user ID off the allow list.
func (s *EditorsStore) RemoveEditor(ctx context.Context, userID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM editor WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete editor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s is not an editor", userID)
	}

	s.cache.Del([]byte("editor||" + userID))

	return nil
}

// ListEditors returns all user IDs on the allow list.
func (s *EditorsStore) ListEditors(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT user_id FROM editor ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("select editors: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var editors []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		editors = append(editors, userID)
	}

	return editors, nil
}

// Ping checks the connection to the underlying store.
func (s *EditorsStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
