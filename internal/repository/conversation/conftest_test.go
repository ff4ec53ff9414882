package conversation

import (
	"context"
	"strings"
)

// fakeStore is an in-memory store for repo tests.
type fakeStore struct {
	hashes map[string]map[string]string
	lists  map[string][][]byte

	hsetErr   error
	scanErr   error
	rpushErr  error
	lrangeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		hashes: make(map[string]map[string]string),
		lists:  make(map[string][][]byte),
	}
}

func (f *fakeStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if f.hsetErr != nil {
		return f.hsetErr
	}
	m, ok := f.hashes[key]
	if !ok {
		m = make(map[string]string)
		f.hashes[key] = m
	}
	for k, v := range fields {
		m[k] = v
	}
	return nil
}

func (f *fakeStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	return f.hashes[key], nil
}

func (f *fakeStore) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, key := range keys {
		out[i] = f.hashes[key]
	}
	return out, nil
}

func (f *fakeStore) Del(_ context.Context, key string) error {
	delete(f.hashes, key)
	delete(f.lists, key)
	return nil
}

func (f *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.hashes[key]
	return ok, nil
}

func (f *fakeStore) Scan(_ context.Context, pattern string) ([]string, error) {
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for key := range f.hashes {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (f *fakeStore) RPush(_ context.Context, key string, values ...[]byte) error {
	if f.rpushErr != nil {
		return f.rpushErr
	}
	f.lists[key] = append(f.lists[key], values...)
	return nil
}

func (f *fakeStore) LRange(_ context.Context, key string, _, _ int64) ([][]byte, error) {
	if f.lrangeErr != nil {
		return nil, f.lrangeErr
	}
	return f.lists[key], nil
}
