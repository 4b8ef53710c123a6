package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"genres/internal/descriptor"
	"genres/internal/graph"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is written into new databases. Databases with the same major version open.
const SchemaVersion = "1.1.0"

const schemaConstraint = "^1.0"

// ErrIncompatibleSchema is returned when a database was written by an incompatible version.
var ErrIncompatibleSchema = errors.New("incompatible database schema")

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	if err := s.checkVersion(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS units (
			path TEXT PRIMARY KEY,
			package TEXT,
			imports JSON,
			content_hash TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS decls (
			id TEXT PRIMARY KEY,
			path TEXT,
			ordinal INTEGER,
			data JSON
		);`,
		`CREATE TABLE IF NOT EXISTS edges (
			from_id TEXT,
			to_id TEXT,
			kind TEXT,
			PRIMARY KEY (from_id, to_id, kind)
		);`,
		`CREATE TABLE IF NOT EXISTS scans (
			id TEXT PRIMARY KEY,
			at INTEGER,
			units INTEGER,
			types INTEGER,
			edges INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_decls_path ON decls(path);`,
		`CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_id);`,
		`INSERT INTO meta (key, value) VALUES ('schema_version', '` + SchemaVersion + `')
			ON CONFLICT(key) DO NOTHING;`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) checkVersion() error {
	var raw string
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&raw); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	return checkSchemaVersion(raw)
}

func checkSchemaVersion(raw string) error {
	v, err := semver.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("%w: bad version %q: %v", ErrIncompatibleSchema, raw, err)
	}
	c, err := semver.NewConstraint(schemaConstraint)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: database is %s, want %s", ErrIncompatibleSchema, v, schemaConstraint)
	}
	return nil
}

// --- DeclarationStore Implementation ---

func (s *SQLiteStore) SaveGraph(ctx context.Context, g *graph.Graph) (*ScanInfo, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// 0. Replace the previous snapshot
	for _, table := range []string{"units", "decls", "edges"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return nil, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// 1. Save Units and their declarations as written
	unitStmt, err := tx.PrepareContext(ctx, `INSERT INTO units (path, package, imports, content_hash) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer unitStmt.Close()

	declStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO decls (id, path, ordinal, data) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET path=excluded.path, ordinal=excluded.ordinal, data=excluded.data
	`)
	if err != nil {
		return nil, err
	}
	defer declStmt.Close()

	info := &ScanInfo{ID: uuid.NewString(), At: time.Now().UTC()}
	for _, path := range g.Units() {
		u, _ := g.Unit(path)
		imports, err := json.Marshal(u.Imports)
		if err != nil {
			return nil, err
		}
		if _, err := unitStmt.ExecContext(ctx, u.Path, u.Package, imports, u.ContentHash); err != nil {
			return nil, fmt.Errorf("failed to save unit %s: %w", u.Path, err)
		}
		info.Units++

		for i, d := range u.Decls {
			data, err := descriptor.MarshalDecl(d)
			if err != nil {
				return nil, fmt.Errorf("failed to encode %s: %w", d.ID, err)
			}
			if _, err := declStmt.ExecContext(ctx, string(d.ID), u.Path, i, data); err != nil {
				return nil, fmt.Errorf("failed to save %s: %w", d.ID, err)
			}
			info.Types++
		}
	}

	// 2. Save Edges
	edgeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edges (from_id, to_id, kind) VALUES (?, ?, ?)
		ON CONFLICT(from_id, to_id, kind) DO NOTHING
	`)
	if err != nil {
		return nil, err
	}
	defer edgeStmt.Close()

	for _, edge := range g.Edges {
		if _, err := edgeStmt.ExecContext(ctx, string(edge.From), string(edge.To), string(edge.Kind)); err != nil {
			return nil, err
		}
		info.Edges++
	}

	// 3. Record the scan
	if _, err := tx.ExecContext(ctx, `INSERT INTO scans (id, at, units, types, edges) VALUES (?, ?, ?, ?, ?)`,
		info.ID, info.At.UnixNano(), info.Units, info.Types, info.Edges); err != nil {
		return nil, fmt.Errorf("failed to record scan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return info, nil
}

func (s *SQLiteStore) LoadGraph(ctx context.Context) (*graph.Graph, error) {
	g := graph.NewGraph().WithCoreTypes()

	// 1. Load Units
	rows, err := s.db.QueryContext(ctx, "SELECT path, package, imports, content_hash FROM units ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("failed to query units: %w", err)
	}
	var units []*graph.Unit
	for rows.Next() {
		var u graph.Unit
		var imports []byte
		if err := rows.Scan(&u.Path, &u.Package, &imports, &u.ContentHash); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		if len(imports) > 0 {
			if err := json.Unmarshal(imports, &u.Imports); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to decode imports of %s: %w", u.Path, err)
			}
		}
		units = append(units, &u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 2. Load Declarations per unit, in source order
	for _, u := range units {
		decls, err := s.unitDecls(ctx, u.Path)
		if err != nil {
			return nil, err
		}
		u.Decls = decls
		g.AddUnit(u)
	}

	g.LinkRelations()
	return g, nil
}

func (s *SQLiteStore) unitDecls(ctx context.Context, path string) ([]*descriptor.TypeDecl, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT data FROM decls WHERE path = ? ORDER BY ordinal", path)
	if err != nil {
		return nil, fmt.Errorf("failed to query declarations: %w", err)
	}
	defer rows.Close()

	var decls []*descriptor.TypeDecl
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan declaration: %w", err)
		}
		d, err := descriptor.UnmarshalDecl(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode declaration in %s: %w", path, err)
		}
		decls = append(decls, d)
	}
	return decls, rows.Err()
}

func (s *SQLiteStore) FileHashes(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path, content_hash FROM units")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, err
		}
		hashes[path] = hash
	}
	return hashes, rows.Err()
}

func (s *SQLiteStore) Dependents(ctx context.Context, id descriptor.TypeID) ([]descriptor.TypeID, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT from_id FROM edges WHERE to_id = ? AND kind != ? ORDER BY from_id",
		string(id), string(graph.RelationNestedIn))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []descriptor.TypeID
	for rows.Next() {
		var from string
		if err := rows.Scan(&from); err != nil {
			return nil, err
		}
		ids = append(ids, descriptor.TypeID(from))
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) LastScan(ctx context.Context) (*ScanInfo, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, at, units, types, edges FROM scans ORDER BY at DESC LIMIT 1")

	var info ScanInfo
	var at int64
	if err := row.Scan(&info.ID, &at, &info.Units, &info.Types, &info.Edges); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	info.At = time.Unix(0, at).UTC()
	return &info, nil
}
