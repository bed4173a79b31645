package uploader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeArtifact(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("pcm"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUploadKeyLayout(t *testing.T) {
	store := &FakeStore{}
	p := NewPipeline(store)
	p.now = func() time.Time { return time.UnixMilli(1700000000123) }

	got, err := p.Upload(context.Background(), writeArtifact(t, "recording-1.wav"), "user-42")
	if err != nil {
		t.Fatal(err)
	}

	wantKey := "user-42/1700000000123.wav"
	if _, ok := store.Objects[wantKey]; !ok {
		t.Fatalf("object stored under %v, want key %q", keys(store), wantKey)
	}
	if got.PublicURL != "https://fake.store/"+wantKey {
		t.Errorf("PublicURL = %q", got.PublicURL)
	}
	if got.OwnerID != "user-42" {
		t.Errorf("OwnerID = %q, want user-42", got.OwnerID)
	}
}

func TestUploadKeysUniquePerTimestamp(t *testing.T) {
	store := &FakeStore{}
	p := NewPipeline(store)

	ts := int64(1700000000000)
	p.now = func() time.Time { ts++; return time.UnixMilli(ts) }

	path := writeArtifact(t, "recording-1.flac")
	for i := 0; i < 3; i++ {
		if _, err := p.Upload(context.Background(), path, "u"); err != nil {
			t.Fatal(err)
		}
	}
	if len(store.Objects) != 3 {
		t.Errorf("stored %d objects, want 3 distinct keys", len(store.Objects))
	}
}

func TestUploadContentTypes(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"a.m4a", "audio/m4a"},
		{"a.wav", "audio/wav"},
		{"a.flac", "audio/flac"},
		{"a.mp3", "audio/mpeg"},
		{"a.WAV", "audio/wav"},
		{"a.xyz", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := ContentTypeFor(tt.name); got != tt.want {
			t.Errorf("ContentTypeFor(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestUploadStoreFailureWrapped(t *testing.T) {
	cause := errors.New("bucket gone")
	p := NewPipeline(&FakeStore{FailPut: cause})

	_, err := p.Upload(context.Background(), writeArtifact(t, "a.wav"), "u")
	if !errors.Is(err, cause) {
		t.Fatalf("err = %v, want wrapped %v", err, cause)
	}
	if !strings.HasPrefix(err.Error(), "upload failed: ") {
		t.Errorf("err = %q, want upload failed prefix", err)
	}
}

func TestUploadMissingFile(t *testing.T) {
	p := NewPipeline(&FakeStore{})

	_, err := p.Upload(context.Background(), filepath.Join(t.TempDir(), "nope.wav"), "u")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.HasPrefix(err.Error(), "upload failed: ") {
		t.Errorf("err = %q, want upload failed prefix", err)
	}
}

func keys(s *FakeStore) []string {
	var out []string
	for k := range s.Objects {
		out = append(out, k)
	}
	return out
}
