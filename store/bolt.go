package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/rushteam/shopreco/core"
)

var (
	bucketKV    = []byte("kv")
	bucketHash  = []byte("hash")
	bucketLists = []byte("list")
)

// BoltStore 是基于 bbolt 的单机持久化 KeyValueStore。
//
//   - 普通 key 存放在 kv bucket
//   - 每个 Hash / List 对应 hash / list 下的一个子 bucket
//   - List 以自增序号（大端 uint64）为 key，只追加
//
// 不支持 TTL，ttl 参数会被忽略。
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketKV, bucketHash, bucketLists} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Name() string { return "bolt" }

func (s *BoltStore) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketKV).Get([]byte(key))
		if v == nil {
			return core.ErrStoreNotFound
		}
		out = bytes.Clone(v)
		return nil
	})
	return out, err
}

func (s *BoltStore) Set(_ context.Context, key string, value []byte, _ ...int) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketKV).Put([]byte(key), value)
	})
}

func (s *BoltStore) Delete(_ context.Context, key string) error {
	k := []byte(key)
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketKV).Delete(k); err != nil {
			return err
		}
		for _, parent := range [][]byte{bucketHash, bucketLists} {
			err := tx.Bucket(parent).DeleteBucket(k)
			if err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) BatchGet(_ context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketKV)
		for _, k := range keys {
			if v := b.Get([]byte(k)); v != nil {
				result[k] = bytes.Clone(v)
			}
		}
		return nil
	})
	return result, err
}

func (s *BoltStore) BatchSet(_ context.Context, kvs map[string][]byte, _ ...int) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketKV)
		for k, v := range kvs {
			if err := b.Put([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) HGet(_ context.Context, key, field string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		h := tx.Bucket(bucketHash).Bucket([]byte(key))
		if h == nil {
			return core.ErrStoreNotFound
		}
		v := h.Get([]byte(field))
		if v == nil {
			return core.ErrStoreNotFound
		}
		out = bytes.Clone(v)
		return nil
	})
	return out, err
}

func (s *BoltStore) HSet(_ context.Context, key, field string, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		h, err := tx.Bucket(bucketHash).CreateBucketIfNotExists([]byte(key))
		if err != nil {
			return err
		}
		return h.Put([]byte(field), value)
	})
}

func (s *BoltStore) HMGet(_ context.Context, key string, fields ...string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(fields))
	err := s.db.View(func(tx *bbolt.Tx) error {
		h := tx.Bucket(bucketHash).Bucket([]byte(key))
		if h == nil {
			return nil
		}
		for _, f := range fields {
			if v := h.Get([]byte(f)); v != nil {
				result[f] = bytes.Clone(v)
			}
		}
		return nil
	})
	return result, err
}

func (s *BoltStore) HGetAll(_ context.Context, key string) (map[string][]byte, error) {
	result := make(map[string][]byte)
	err := s.db.View(func(tx *bbolt.Tx) error {
		h := tx.Bucket(bucketHash).Bucket([]byte(key))
		if h == nil {
			return nil
		}
		return h.ForEach(func(k, v []byte) error {
			result[string(k)] = bytes.Clone(v)
			return nil
		})
	})
	return result, err
}

func (s *BoltStore) HLen(_ context.Context, key string) (int64, error) {
	var n int64
	err := s.db.View(func(tx *bbolt.Tx) error {
		h := tx.Bucket(bucketHash).Bucket([]byte(key))
		if h == nil {
			return nil
		}
		n = int64(h.Stats().KeyN)
		return nil
	})
	return n, err
}

func (s *BoltStore) RPush(_ context.Context, key string, values ...[]byte) error {
	if len(values) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		l, err := tx.Bucket(bucketLists).CreateBucketIfNotExists([]byte(key))
		if err != nil {
			return err
		}
		for _, v := range values {
			seq, err := l.NextSequence()
			if err != nil {
				return err
			}
			if err := l.Put(seqKey(seq), v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) LRange(_ context.Context, key string, start, stop int64) ([][]byte, error) {
	out := [][]byte{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		l := tx.Bucket(bucketLists).Bucket([]byte(key))
		if l == nil {
			return nil
		}
		lo, hi, ok := listRange(int64(l.Sequence()), start, stop)
		if !ok {
			return nil
		}
		// 序号从 1 开始
		for i := lo; i <= hi; i++ {
			if v := l.Get(seqKey(uint64(i) + 1)); v != nil {
				out = append(out, bytes.Clone(v))
			}
		}
		return nil
	})
	return out, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func seqKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

var _ core.KeyValueStore = (*BoltStore)(nil)
