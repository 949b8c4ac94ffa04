package chat

import (
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/zonewatch/docreport/internal/domain"
)

// Cache persists embedding vectors in SQLite so report chunks are embedded
// once across chat sessions. Entries are keyed by content hash and model, so
// switching the embedding model never serves stale vectors.
type Cache struct {
	db    *sql.DB
	model string
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS embeddings (
	hash   TEXT NOT NULL,
	model  TEXT NOT NULL,
	vector BLOB NOT NULL,
	PRIMARY KEY (hash, model)
)`

// OpenCache opens (creating if needed) the embedding cache at path.
func OpenCache(path, model string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, domain.ConfigError("create cache directory "+dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, domain.ConfigError("open embedding cache "+path, err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, domain.ConfigError("initialize embedding cache", err)
	}
	return &Cache{db: db, model: model}, nil
}

// Get returns the cached vector for text, if present.
func (c *Cache) Get(text string) ([]float32, bool, error) {
	var blob []byte
	err := c.db.QueryRow(
		"SELECT vector FROM embeddings WHERE hash = ? AND model = ?",
		hashText(text), c.model,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	vec, err := decodeVector(blob)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Put stores the vector for text, replacing any previous entry.
func (c *Cache) Put(text string, vector []float32) error {
	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO embeddings (hash, model, vector) VALUES (?, ?, ?)",
		hashText(text), c.model, encodeVector(vector),
	)
	return err
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Vectors are stored as little-endian float32 sequences.
func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, errors.New("malformed vector blob")
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return vec, nil
}
