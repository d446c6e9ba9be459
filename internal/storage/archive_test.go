package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/eventdesk/apiserver/config"
	"github.com/eventdesk/apiserver/types"
)

type memoryObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
}

type memoryBucket struct {
	objects map[string]memoryObject
	putErr  error
}

func newMemoryBucket() *memoryBucket {
	return &memoryBucket{objects: map[string]memoryObject{}}
}

func (b *memoryBucket) EnsureBucket(ctx context.Context) error { return nil }

func (b *memoryBucket) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string, metadata map[string]string) error {
	if b.putErr != nil {
		return b.putErr
	}
	if _, exists := b.objects[key]; exists {
		return errors.New("object exists")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.New("size mismatch")
	}
	b.objects[key] = memoryObject{data: data, contentType: contentType, metadata: metadata}
	return nil
}

func (b *memoryBucket) Bucket() string { return "test-bucket" }

func (b *memoryBucket) Close() error { return nil }

var snapshotKeyPattern = regexp.MustCompile(`^events/7/cancelled-[0-9a-f-]{36}\.json$`)

func TestArchiveEventWritesSnapshot(t *testing.T) {
	bucket := newMemoryBucket()
	archive := NewArchive(bucket)
	archivedAt := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	archive.now = func() time.Time { return archivedAt }

	event := types.Event{
		ID:       7,
		Title:    "Meetup",
		Date:     types.NewDate(time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC)),
		Time:     "06:30 PM",
		Location: "Hall A",
		Capacity: 10,
		UserID:   1,
	}
	registrants := []types.Registration{{ID: 1, EventID: 7, UserID: 2, Username: "ana", Email: "ana@example.com"}}

	key, err := archive.ArchiveEvent(context.Background(), event, registrants)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !snapshotKeyPattern.MatchString(key) {
		t.Fatalf("unexpected key %q", key)
	}

	obj, ok := bucket.objects[key]
	if !ok {
		t.Fatalf("object %q not written", key)
	}
	if obj.contentType != "application/json" {
		t.Fatalf("unexpected content type %q", obj.contentType)
	}
	if obj.metadata["event-id"] != "7" || obj.metadata["owner-id"] != "1" || obj.metadata["registrants"] != "1" {
		t.Fatalf("unexpected metadata %v", obj.metadata)
	}

	var snapshot EventSnapshot
	if err := json.Unmarshal(obj.data, &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snapshot.Event.ID != 7 || snapshot.Event.Date.String() != "2026-03-20" {
		t.Fatalf("unexpected event in snapshot: %+v", snapshot.Event)
	}
	if len(snapshot.Registrants) != 1 || snapshot.Registrants[0].Email != "ana@example.com" {
		t.Fatalf("unexpected registrants: %+v", snapshot.Registrants)
	}
	if !snapshot.ArchivedAt.Equal(archivedAt) {
		t.Fatalf("archived at %v, want %v", snapshot.ArchivedAt, archivedAt)
	}
}

func TestArchiveEventKeepsEveryCopy(t *testing.T) {
	bucket := newMemoryBucket()
	archive := NewArchive(bucket)
	event := types.Event{ID: 7, Title: "Meetup"}

	first, err := archive.ArchiveEvent(context.Background(), event, nil)
	if err != nil {
		t.Fatalf("first archive: %v", err)
	}
	second, err := archive.ArchiveEvent(context.Background(), event, nil)
	if err != nil {
		t.Fatalf("second archive: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct keys, got %q twice", first)
	}
	if len(bucket.objects) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(bucket.objects))
	}

	var snapshot map[string]json.RawMessage
	if err := json.Unmarshal(bucket.objects[first].data, &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if string(snapshot["registrants"]) != "[]" {
		t.Fatalf("nil registrants should encode as [], got %s", snapshot["registrants"])
	}
}

func TestArchiveEventPutFailure(t *testing.T) {
	bucket := newMemoryBucket()
	bucket.putErr = errors.New("bucket unavailable")
	archive := NewArchive(bucket)

	_, err := archive.ArchiveEvent(context.Background(), types.Event{ID: 3}, nil)
	if !errors.Is(err, bucket.putErr) {
		t.Fatalf("expected wrapped put error, got %v", err)
	}
}

func TestOpenDisabledAndUnknownBackends(t *testing.T) {
	for _, backend := range []string{"", "none"} {
		got, err := Open(context.Background(), config.ArchiveConfig{Backend: backend})
		if err != nil || got != nil {
			t.Fatalf("backend %q: got %v, %v", backend, got, err)
		}
	}
	if _, err := Open(context.Background(), config.ArchiveConfig{Backend: "ftp"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
