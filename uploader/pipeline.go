package uploader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"recap/log"
)

// contentTypes maps the extensions the recorder can produce. Anything else
// uploads as an opaque byte stream.
var contentTypes = map[string]string{
	"m4a":  "audio/m4a",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"flac": "audio/flac",
	"webm": "audio/webm",
}

func ContentTypeFor(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// UploadedRecording is what the dispatcher needs to submit a processing job.
type UploadedRecording struct {
	PublicURL string
	OwnerID   string
}

// Pipeline reads a recording artifact from disk and puts it in object storage
// under a per-owner, timestamped key. It does not retry: transient failures
// surface to the caller, who owns the user-facing error state.
type Pipeline struct {
	store ObjectStore
	now   func() time.Time
}

func NewPipeline(store ObjectStore) *Pipeline {
	return &Pipeline{store: store, now: time.Now}
}

// Upload stores the file at filePath under "<ownerID>/<unixMillis>.<ext>".
// The millisecond timestamp keeps keys unique per owner without coordination.
func (p *Pipeline) Upload(ctx context.Context, filePath, ownerID string) (UploadedRecording, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return UploadedRecording{}, fmt.Errorf("upload failed: %w", err)
	}

	ext := strings.TrimPrefix(filepath.Ext(filePath), ".")
	if ext == "" {
		ext = "m4a"
	}
	key := fmt.Sprintf("%s/%d.%s", ownerID, p.now().UnixMilli(), ext)

	start := time.Now()
	if err := p.store.PutObject(ctx, key, data, ContentTypeFor(filePath)); err != nil {
		return UploadedRecording{}, fmt.Errorf("upload failed: %w", err)
	}

	log.UploadDone(key, float64(len(data))/1024, time.Since(start).Milliseconds())
	return UploadedRecording{
		PublicURL: p.store.PublicURL(key),
		OwnerID:   ownerID,
	}, nil
}
