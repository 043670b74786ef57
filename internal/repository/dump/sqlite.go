package dump

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jaennil/guide_helper/backend/terrain/pkg/logger"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore keeps zstd compressed images in the tile_dump table.
type SQLiteStore struct {
	db     *sql.DB
	codec  *codec
	logger logger.Logger
}

func NewSQLiteStore(path string, l logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	c, err := newCodec()
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{
		db:     db,
		codec:  c,
		logger: l,
	}

	if err := s.runMigrations(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to migrate dump database: %w", err)
	}

	l.Info("sqlite dump store initialized", "path", path)

	return s, nil
}

func (s *SQLiteStore) runMigrations() error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.Up(s.db, "migrations")
}

var _ Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) Get(k Key) (v Value, exists bool, err error) {
	defer func(start time.Time) { observe("sqlite", "get", start, err) }(time.Now())
	s.logger.Debug("sqlite dump get", "key", k.String())

	query := `SELECT data
	FROM tile_dump
	WHERE layer = ? AND tree = ? AND lod = ? AND x = ? AND y = ?`

	var blob []byte
	err = s.db.QueryRow(query, k.Layer, k.Tree, k.LOD, k.X, k.Y).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		s.logger.Error("sqlite dump get failed", "key", k.String(), "error", err)
		return nil, false, err
	}

	v, err = s.codec.decompress(blob)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *SQLiteStore) Set(k Key, v Value) (err error) {
	defer func(start time.Time) { observe("sqlite", "set", start, err) }(time.Now())
	s.logger.Debug("sqlite dump set", "key", k.String(), "size", len(v))

	query := `INSERT INTO tile_dump (layer, tree, lod, x, y, data, raw_size, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(layer, tree, lod, x, y) DO UPDATE SET
		data = excluded.data,
		raw_size = excluded.raw_size,
		updated_at = excluded.updated_at`

	_, err = s.db.Exec(query, k.Layer, k.Tree, k.LOD, k.X, k.Y, s.codec.compress(v), len(v))
	if err != nil {
		s.logger.Error("sqlite dump set failed", "key", k.String(), "error", err)
		return err
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.codec.close()
	return s.db.Close()
}
