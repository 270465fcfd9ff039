// Package maskdb persists computed masks in a KV store keyed by a
// hash of their inputs, with an LRU cache in front to spare the disk
// on repeat grids. Values are gzipped JSON; masks compress very well.
package maskdb

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rotblauer/gridmask/mask"
	"github.com/rotblauer/gridmask/params"
	"github.com/rotblauer/gridmask/types/featureset"
	"github.com/rotblauer/gridmask/types/grid"
	bbolt "go.etcd.io/bbolt"
)

type Store struct {
	db     *bbolt.DB
	cache  *lru.Cache[string, *mask.Mask]
	logger *slog.Logger
}

// Open opens (creating as needed) the mask store under root.
func Open(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0770); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(filepath.Join(root, params.MaskDBName), 0660, nil)
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[string, *mask.Mask](params.MaskCacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{
		db:     db,
		cache:  cache,
		logger: slog.With("pkg", "maskdb"),
	}, nil
}

// Key derives the store key for a (grid, feature set, containment
// mode) triple. Identical inputs always rehash identically.
func Key(g *grid.Grid, fs *featureset.FeatureSet, planar bool) (string, error) {
	fsum, err := fs.Checksum()
	if err != nil {
		return "", err
	}
	gsum, err := hashstructure.Hash(g, hashstructure.FormatV2, nil)
	if err != nil {
		return "", err
	}
	mode := "geodesic"
	if planar {
		mode = "planar"
	}
	return fmt.Sprintf("%x.%x.%s", gsum, fsum, mode), nil
}

func (s *Store) Get(key string) (*mask.Mask, bool) {
	if m, ok := s.cache.Get(key); ok {
		return m, true
	}
	var m *mask.Mask
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(params.MasksBucket))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		decoded, err := decodeValue(v)
		if err != nil {
			return err
		}
		m = decoded
		return nil
	})
	if err != nil {
		s.logger.Warn("Failed to read mask", "key", key, "error", err)
		return nil, false
	}
	if m == nil {
		return nil, false
	}
	s.cache.Add(key, m)
	return m, true
}

func (s *Store) Put(key string, m *mask.Mask) error {
	encoded, err := encodeValue(m)
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(params.MasksBucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), encoded)
	})
	if err != nil {
		return err
	}
	s.cache.Add(key, m)
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func encodeValue(m *mask.Mask) ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(nil)
	w, err := gzip.NewWriterLevel(buf, params.DefaultGZipCompressionLevel)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeValue(v []byte) (*mask.Mask, error) {
	r, err := gzip.NewReader(bytes.NewReader(v))
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(r)
	_ = r.Close()
	if err != nil {
		return nil, err
	}
	m := &mask.Mask{}
	if err := json.Unmarshal(raw, m); err != nil {
		return nil, err
	}
	return m, nil
}
