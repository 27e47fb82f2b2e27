package gox

import (
	"database/sql"
	"fmt"

	"github.com/bodgit/gox/voxel"
	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

// Catalog is an sqlite index of imported files, their layers and the
// distinct atlases they use.
type Catalog struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Digest returns the catalog key of a file or atlas payload.
func Digest(b []byte) string {
	return fmt.Sprintf("%016X", xxhash.Sum64(b))
}

// NewCatalog opens or creates the catalog in file.
func NewCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	for _, stmt := range []string{
		"CREATE TABLE IF NOT EXISTS file (id INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL, digest TEXT NOT NULL UNIQUE, version INTEGER NOT NULL)",
		"CREATE TABLE IF NOT EXISTS atlas (id INTEGER PRIMARY KEY NOT NULL, digest TEXT NOT NULL UNIQUE, data BLOB NOT NULL)",
		"CREATE TABLE IF NOT EXISTS layer (id INTEGER PRIMARY KEY NOT NULL, file_id INTEGER NOT NULL, idx INTEGER NOT NULL, name TEXT NOT NULL, voxels INTEGER NOT NULL, data BLOB NOT NULL, UNIQUE(file_id, idx), FOREIGN KEY(file_id) REFERENCES file(id) ON DELETE CASCADE)",
		"CREATE TABLE IF NOT EXISTS block (layer_id INTEGER NOT NULL, idx INTEGER NOT NULL, atlas_id INTEGER, x INTEGER NOT NULL, y INTEGER NOT NULL, z INTEGER NOT NULL, FOREIGN KEY(layer_id) REFERENCES layer(id) ON DELETE CASCADE, FOREIGN KEY(atlas_id) REFERENCES atlas(id))",
	} {
		if _, err = db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, err
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db:  db,
		enc: enc,
		dec: dec,
	}, nil
}

// Close closes the underlying database.
func (cat *Catalog) Close() error {
	cat.dec.Close()
	if err := cat.enc.Close(); err != nil {
		return err
	}
	return cat.db.Close()
}

func (cat *Catalog) addAtlas(tx *sql.Tx, a *Atlas) (int64, error) {
	sum := Digest(a.Data)

	var id int64
	switch err := tx.QueryRow("SELECT id FROM atlas WHERE digest = ?", sum).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := tx.Exec("INSERT INTO atlas (digest, data) VALUES (?, ?)", sum, cat.enc.EncodeAll(a.Data, nil))
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		return id, nil
	default:
		return 0, err
	}
}

func (cat *Catalog) addLayer(tx *sql.Tx, file int64, index int, l *Layer, m *voxel.Map, atlases map[int32]int64) error {
	b, err := m.MarshalBinary()
	if err != nil {
		return err
	}

	result, err := tx.Exec("INSERT INTO layer (file_id, idx, name, voxels, data) VALUES (?, ?, ?, ?, ?)", file, index, l.Name(), m.Len(), cat.enc.EncodeAll(b, nil))
	if err != nil {
		return err
	}
	layer, err := result.LastInsertId()
	if err != nil {
		return err
	}

	for i, blk := range l.Blocks {
		var atlas sql.NullInt64
		if id, ok := atlases[blk.Index]; ok {
			atlas.Int64 = id
			atlas.Valid = true
		}
		if _, err := tx.Exec("INSERT INTO block (layer_id, idx, atlas_id, x, y, z) VALUES (?, ?, ?, ?, ?, ?)", layer, i, atlas, blk.X, blk.Y, blk.Z); err != nil {
			return err
		}
	}

	return nil
}

// Import records the file named name, whose contents are data and which
// decoded to c with layer voxels voxels. Importing the same contents again
// replaces the earlier rows.
func (cat *Catalog) Import(name string, data []byte, c *Container, voxels []LayerVoxels) (err error) {
	tx, err := cat.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	sum := Digest(data)
	if _, err = tx.Exec("DELETE FROM file WHERE digest = ?", sum); err != nil {
		return err
	}

	result, err := tx.Exec("INSERT INTO file (name, digest, version) VALUES (?, ?, ?)", name, sum, c.Version)
	if err != nil {
		return err
	}
	file, err := result.LastInsertId()
	if err != nil {
		return err
	}

	atlases := map[int32]int64{}
	for i, a := range c.Atlases() {
		if a == nil {
			continue
		}
		if atlases[int32(i)], err = cat.addAtlas(tx, a); err != nil {
			return err
		}
	}

	for i, lv := range voxels {
		m := lv.Voxels
		if m == nil {
			m = voxel.New()
		}
		if err = cat.addLayer(tx, file, i, lv.Layer, m, atlases); err != nil {
			return err
		}
	}

	return nil
}

// Files returns the names of the imported files.
func (cat *Catalog) Files() ([]string, error) {
	rows, err := cat.db.Query("SELECT name FROM file ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Layer returns the stored voxels of layer index of the file named file, or
// nil if there is no such layer.
func (cat *Catalog) Layer(file string, index int) (*voxel.Map, error) {
	var b []byte
	switch err := cat.db.QueryRow("SELECT l.data FROM layer AS l JOIN file AS f ON l.file_id = f.id WHERE f.name = ? AND l.idx = ? ORDER BY f.id DESC LIMIT 1", file, index).Scan(&b); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		raw, err := cat.dec.DecodeAll(b, nil)
		if err != nil {
			return nil, err
		}
		m := voxel.New()
		if err := m.UnmarshalBinary(raw); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, err
	}
}

// Atlas returns the stored payload of the atlas with the given digest, or nil
// if there is none.
func (cat *Catalog) Atlas(sum string) ([]byte, error) {
	var b []byte
	switch err := cat.db.QueryRow("SELECT data FROM atlas WHERE digest = ?", sum).Scan(&b); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return cat.dec.DecodeAll(b, nil)
	default:
		return nil, err
	}
}
