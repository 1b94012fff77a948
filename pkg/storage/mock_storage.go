package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MockStorage implements the Storage interface backed by a map. For tests.
type MockStorage struct {
	data map[string][]byte
	lock sync.Mutex
}

func NewMockStorage() *MockStorage {
	return &MockStorage{
		data: make(map[string][]byte),
	}
}

func (m *MockStorage) Write(ctx context.Context, key string, body []byte,
	options *Options) error {

	m.lock.Lock()
	defer m.lock.Unlock()

	b := make([]byte, len(body))
	copy(b, body)
	m.data[key] = b

	return nil
}

func (m *MockStorage) Read(ctx context.Context, key string) ([]byte, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	body, exists := m.data[key]
	if !exists {
		return nil, ErrNotFound
	}

	b := make([]byte, len(body))
	copy(b, body)

	return b, nil
}

func (m *MockStorage) Remove(ctx context.Context, key string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if _, exists := m.data[key]; !exists {
		return ErrNotFound
	}

	delete(m.data, key)

	return nil
}

func (m *MockStorage) Search(ctx context.Context,
	query map[string]string) ([][]byte, error) {

	keys, err := m.List(ctx, query["path"])
	if err != nil {
		return nil, err
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	objects := [][]byte{}
	for _, key := range keys {
		objects = append(objects, m.data[key])
	}

	return objects, nil
}

func (m *MockStorage) List(ctx context.Context, path string) ([]string, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	prefix := strings.TrimSuffix(path, "/") + "/"

	keys := []string{}
	for key := range m.data {
		if len(path) == 0 || strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)

	return keys, nil
}

func (m *MockStorage) Clear(ctx context.Context, query map[string]string) error {
	keys, err := m.List(ctx, query["path"])
	if err != nil {
		return err
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	for _, key := range keys {
		delete(m.data, key)
	}

	return nil
}
