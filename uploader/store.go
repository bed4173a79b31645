// Package uploader moves finished recordings into object storage and hands
// back the public URL the processing backend will fetch them from.
package uploader

import "context"

// ObjectStore is the minimal storage surface the pipeline needs. The real
// implementation is S3-compatible; tests use FakeStore.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}

// FakeStore records puts in memory for tests.
type FakeStore struct {
	Objects map[string]FakeObject
	FailPut error
}

type FakeObject struct {
	Data        []byte
	ContentType string
}

func (f *FakeStore) PutObject(_ context.Context, key string, data []byte, contentType string) error {
	if f.FailPut != nil {
		return f.FailPut
	}
	if f.Objects == nil {
		f.Objects = make(map[string]FakeObject)
	}
	f.Objects[key] = FakeObject{Data: data, ContentType: contentType}
	return nil
}

func (f *FakeStore) PublicURL(key string) string {
	return "https://fake.store/" + key
}
