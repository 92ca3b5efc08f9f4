package stores

import (
	"context"
	"testing"
	"time"

	"github.com/deckhand-io/deckhand/pkg/engine"
)

// setupTestArchive creates an in-memory SQLite archive for testing.
func setupTestArchive(t *testing.T) *SQLiteArchive {
	t.Helper()

	archive, err := NewSQLiteArchive(SQLiteConfig{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}

	ctx := context.Background()
	if err := archive.Init(ctx); err != nil {
		t.Fatalf("failed to initialize archive: %v", err)
	}
	if err := archive.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate archive: %v", err)
	}
	return archive
}

func TestArchiveLifecycle(t *testing.T) {
	archive := setupTestArchive(t)

	if err := archive.HealthCheck(context.Background()); err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	if err := archive.Close(); err != nil {
		t.Fatalf("failed to close archive: %v", err)
	}
}

func TestArchiveRecordRoundTrip(t *testing.T) {
	ctx := context.Background()
	archive := setupTestArchive(t)
	defer archive.Close()

	now := time.Now().UTC().Truncate(time.Second)
	record := &engine.ProvisioningRecord{
		ID:             "prov-1",
		OrgID:          "org-1",
		DockID:         "dock-1",
		Provider:       "vultr",
		Kind:           engine.KindServer,
		Spec:           engine.Spec{"name": "web-1", "region": "ams"},
		ValidatedSpec:  engine.Spec{"name": "web-1", "region": "ams", "validated": true},
		ProvisioningID: "prov-1",
		Status:         engine.StatusProvisioning,
		Progress:       40,
		Message:        "creating instance",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := archive.SaveRecord(ctx, record); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	got, err := archive.GetRecord(ctx, "prov-1")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got.Provider != "vultr" || got.Kind != engine.KindServer {
		t.Errorf("got record %+v", got)
	}
	if got.Spec["region"] != "ams" {
		t.Errorf("spec region = %v, want ams", got.Spec["region"])
	}
	if got.ValidatedSpec["validated"] != true {
		t.Errorf("validated spec not round-tripped: %+v", got.ValidatedSpec)
	}

	// Upsert: a terminal update replaces the row.
	record.Status = engine.StatusSuccess
	record.Progress = 100
	record.ResourceID = "srv-9"
	record.UpdatedAt = now.Add(time.Minute)
	if err := archive.SaveRecord(ctx, record); err != nil {
		t.Fatalf("SaveRecord (update): %v", err)
	}
	got, err = archive.GetRecord(ctx, "prov-1")
	if err != nil {
		t.Fatalf("GetRecord after update: %v", err)
	}
	if got.Status != engine.StatusSuccess || got.ResourceID != "srv-9" {
		t.Errorf("updated record = %+v", got)
	}
}

func TestArchiveGetRecordNotFound(t *testing.T) {
	archive := setupTestArchive(t)
	defer archive.Close()

	_, err := archive.GetRecord(context.Background(), "missing")
	if !engine.IsNotFound(err) {
		t.Errorf("GetRecord(missing) error = %v, want not found", err)
	}
}

func TestArchiveListRecordsNewestFirst(t *testing.T) {
	ctx := context.Background()
	archive := setupTestArchive(t)
	defer archive.Close()

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"prov-a", "prov-b", "prov-c"} {
		record := &engine.ProvisioningRecord{
			ID: id, OrgID: "org-1", DockID: "dock-1", Provider: "vultr",
			Kind: engine.KindServer, ProvisioningID: id,
			Status:    engine.StatusSuccess,
			CreatedAt: base,
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := archive.SaveRecord(ctx, record); err != nil {
			t.Fatalf("SaveRecord(%s): %v", id, err)
		}
	}
	archive.SaveRecord(ctx, &engine.ProvisioningRecord{
		ID: "prov-x", OrgID: "org-2", DockID: "dock-2", Provider: "aws",
		Kind: engine.KindServer, ProvisioningID: "prov-x",
		Status: engine.StatusError, CreatedAt: base, UpdatedAt: base,
	})

	records, err := archive.ListRecords(ctx, "org-1")
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("ListRecords = %d, want 3", len(records))
	}
	if records[0].ID != "prov-c" || records[2].ID != "prov-a" {
		t.Errorf("order = [%s %s %s], want newest first", records[0].ID, records[1].ID, records[2].ID)
	}
}

func TestArchiveEvents(t *testing.T) {
	ctx := context.Background()
	archive := setupTestArchive(t)
	defer archive.Close()

	ts := time.Now().UTC().Truncate(time.Second)
	messages := []string{"idle -> validating", "validating -> provisioning", "provisioning -> monitoring"}
	for _, msg := range messages {
		err := archive.AppendEvent(ctx, &engine.Event{
			RecordID:  "prov-1",
			Type:      "state_changed",
			Level:     engine.EventLevelInfo,
			Message:   msg,
			Details:   map[string]any{"note": msg},
			Timestamp: ts,
		})
		if err != nil {
			t.Fatalf("AppendEvent: %v", err)
		}
	}

	events, err := archive.GetEvents(ctx, "prov-1")
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("GetEvents = %d, want 3", len(events))
	}
	for i, e := range events {
		if e.Message != messages[i] {
			t.Errorf("event %d = %q, want %q", i, e.Message, messages[i])
		}
		if e.Details["note"] != messages[i] {
			t.Errorf("event %d details = %v", i, e.Details)
		}
		if e.ID == "" {
			t.Error("event persisted without an assigned ID")
		}
	}

	other, err := archive.GetEvents(ctx, "prov-2")
	if err != nil {
		t.Fatalf("GetEvents(prov-2): %v", err)
	}
	if len(other) != 0 {
		t.Errorf("GetEvents(prov-2) = %d, want 0", len(other))
	}
}
