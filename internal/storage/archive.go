package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/eventdesk/apiserver/types"
	"github.com/google/uuid"
)

const snapshotContentType = "application/json"

// EventSnapshot is the archived state of an event at the moment it was removed.
type EventSnapshot struct {
	Event       types.Event          `json:"event"`
	Registrants []types.Registration `json:"registrants"`
	ArchivedAt  time.Time            `json:"archived_at"`
}

// Archive stores event snapshots as JSON objects.
type Archive struct {
	backend ObjectStorage
	now     func() time.Time
}

func NewArchive(backend ObjectStorage) *Archive {
	return &Archive{backend: backend, now: time.Now}
}

// ArchiveEvent writes a snapshot of event and its registrants and returns
// the object key. Keys never collide, so repeated archives of the same
// event are all kept.
func (a *Archive) ArchiveEvent(ctx context.Context, event types.Event, registrants []types.Registration) (string, error) {
	if registrants == nil {
		registrants = []types.Registration{}
	}
	data, err := json.Marshal(EventSnapshot{
		Event:       event,
		Registrants: registrants,
		ArchivedAt:  a.now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key := SnapshotKey(event.ID, uuid.NewString())
	metadata := map[string]string{
		"event-id":    strconv.Itoa(event.ID),
		"owner-id":    strconv.Itoa(event.UserID),
		"registrants": strconv.Itoa(len(registrants)),
	}
	if err := a.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), snapshotContentType, metadata); err != nil {
		return "", fmt.Errorf("put %s/%s: %w", a.backend.Bucket(), key, err)
	}
	return key, nil
}

// SnapshotKey returns the object key for one archived copy of an event.
func SnapshotKey(eventID int, id string) string {
	return fmt.Sprintf("events/%d/cancelled-%s.json", eventID, id)
}
