package headerstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
	bolt "go.etcd.io/bbolt"
)

var (
	headersBucket = []byte("headers_by_hash")
	metaBucket    = []byte("meta")
	tipKey        = []byte("tip")
)

// headerRecordSize is the 80-byte wire header followed by a big-endian height.
const headerRecordSize = wire.MaxBlockHeaderPayload + 4

// BoltBackend persists headers in a bbolt file so a restart resumes from the
// stored tip instead of a checkpoint.
type BoltBackend struct {
	db *bolt.DB
}

// OpenBolt opens or creates the header database at path.
func OpenBolt(path string) (*BoltBackend, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(headersBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(metaBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init bolt buckets: %w", err)
	}
	return &BoltBackend{db: db}, nil
}

func (b *BoltBackend) PutHeader(_ context.Context, header model.BlockHeader) error {
	record, err := encodeHeader(header)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		headers := tx.Bucket(headersBucket)
		meta := tx.Bucket(metaBucket)
		if err := headers.Put([]byte(header.Hash), record); err != nil {
			return err
		}
		if cur := meta.Get(tipKey); cur != nil {
			if raw := headers.Get(cur); raw != nil {
				tip, err := decodeHeader(raw)
				if err != nil {
					return err
				}
				if header.Height < tip.Height {
					return nil
				}
			}
		}
		return meta.Put(tipKey, []byte(header.Hash))
	})
}

func (b *BoltBackend) HeaderByHash(_ context.Context, hash string) (header model.BlockHeader, ok bool, err error) {
	err = b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(headersBucket).Get([]byte(hash))
		if raw == nil {
			return nil
		}
		header, err = decodeHeader(raw)
		ok = err == nil
		return err
	})
	return header, ok, err
}

func (b *BoltBackend) TipHeader(_ context.Context) (header model.BlockHeader, ok bool, err error) {
	err = b.db.View(func(tx *bolt.Tx) error {
		hash := tx.Bucket(metaBucket).Get(tipKey)
		if hash == nil {
			return nil
		}
		raw := tx.Bucket(headersBucket).Get(hash)
		if raw == nil {
			return fmt.Errorf("tip %s missing from headers bucket", hash)
		}
		header, err = decodeHeader(raw)
		ok = err == nil
		return err
	})
	return header, ok, err
}

func (b *BoltBackend) Close() error {
	return b.db.Close()
}

func encodeHeader(header model.BlockHeader) ([]byte, error) {
	w, err := header.Wire()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(headerRecordSize)
	if err := w.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("serialize header %s: %w", header.Hash, err)
	}
	var height [4]byte
	binary.BigEndian.PutUint32(height[:], header.Height)
	buf.Write(height[:])
	return buf.Bytes(), nil
}

func decodeHeader(raw []byte) (model.BlockHeader, error) {
	if len(raw) != headerRecordSize {
		return model.BlockHeader{}, errors.New("corrupt header record")
	}
	var w wire.BlockHeader
	if err := w.Deserialize(bytes.NewReader(raw[:wire.MaxBlockHeaderPayload])); err != nil {
		return model.BlockHeader{}, fmt.Errorf("deserialize header: %w", err)
	}
	return model.NewBlockHeader(w, binary.BigEndian.Uint32(raw[wire.MaxBlockHeaderPayload:])), nil
}
