// Package mbtiles implements tilesource.ArchiveSource against a local
// .mbtiles file — a SQLite3 container storing a "tiles" table keyed by
// zoom_level/tile_column/tile_row, per spec.md §4.6 and §6's mention of
// local-archive tile sources.
package mbtiles

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"mapscii/tilesource"
)

// Archive opens .mbtiles files as a tilesource.ArchiveSource.
type Archive struct{}

// Open opens the SQLite3 file at path and returns a Fetcher reading tiles
// from its "tiles" table.
func (Archive) Open(path string) (tilesource.Fetcher, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("mbtiles: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("mbtiles: ping %s: %w", path, err)
	}

	return func(z, x, y int) ([]byte, error) {
		// .mbtiles stores rows in TMS order (flipped from the XYZ scheme
		// used everywhere else in this module).
		tmsRow := (1 << uint(z)) - 1 - y

		var data []byte
		row := db.QueryRow(
			`SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?`,
			z, x, tmsRow,
		)
		if err := row.Scan(&data); err != nil {
			if err == sql.ErrNoRows {
				return nil, fmt.Errorf("mbtiles: no tile at z=%d x=%d y=%d", z, x, y)
			}
			return nil, fmt.Errorf("mbtiles: query z=%d x=%d y=%d: %w", z, x, y, err)
		}
		return data, nil
	}, nil
}
