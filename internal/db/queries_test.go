package db

import (
	"context"
	"database/sql"
	"testing"
)

func stringPtr(s string) *string {
	return &s
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetSlot_Missing(t *testing.T) {
	db := openTestDB(t)

	slot, err := GetSlot(context.Background(), db, SlotNotes)
	if err != nil {
		t.Fatalf("GetSlot() error = %v", err)
	}
	if slot != nil {
		t.Errorf("GetSlot() = %+v, want nil", slot)
	}
}

func TestPutSlot_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := PutSlot(ctx, db, SlotSettings, []byte(`{"theme":"dark"}`)); err != nil {
		t.Fatalf("PutSlot() error = %v", err)
	}

	slot, err := GetSlot(ctx, db, SlotSettings)
	if err != nil {
		t.Fatalf("GetSlot() error = %v", err)
	}
	if slot == nil {
		t.Fatal("GetSlot() = nil, want slot")
	}
	if string(slot.Value) != `{"theme":"dark"}` {
		t.Errorf("Value = %s", slot.Value)
	}
	if slot.UpdatedAt == 0 {
		t.Error("UpdatedAt = 0, want timestamp")
	}
}

func TestPutSlot_LastWriteWins(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, v := range []string{`[1]`, `[2]`, `[3]`} {
		if err := PutSlot(ctx, db, SlotNotes, []byte(v)); err != nil {
			t.Fatalf("PutSlot(%s) error = %v", v, err)
		}
	}

	slot, err := GetSlot(ctx, db, SlotNotes)
	if err != nil {
		t.Fatalf("GetSlot() error = %v", err)
	}
	if string(slot.Value) != `[3]` {
		t.Errorf("Value = %s, want [3]", slot.Value)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM slots").Scan(&count); err != nil {
		t.Fatalf("count error = %v", err)
	}
	if count != 1 {
		t.Errorf("slot rows = %d, want 1", count)
	}
}

func TestPutSlots_WritesAll(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := PutSlots(ctx, db, map[string][]byte{
		SlotNotes:   []byte(`[]`),
		SlotFolders: []byte(`[{"id":"all"}]`),
	})
	if err != nil {
		t.Fatalf("PutSlots() error = %v", err)
	}

	for _, key := range []string{SlotNotes, SlotFolders} {
		slot, err := GetSlot(ctx, db, key)
		if err != nil || slot == nil {
			t.Errorf("GetSlot(%s) = %v, %v", key, slot, err)
		}
	}
}

func TestPutSlots_CancelledContext(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := PutSlots(ctx, db, map[string][]byte{SlotNotes: []byte(`[]`)}); err == nil {
		t.Fatal("PutSlots() with cancelled context error = nil, want error")
	}

	slot, err := GetSlot(context.Background(), db, SlotNotes)
	if err != nil {
		t.Fatalf("GetSlot() error = %v", err)
	}
	if slot != nil {
		t.Errorf("slot written despite failed transaction: %s", slot.Value)
	}
}

func TestDeleteSlot(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := PutSlot(ctx, db, SlotFolders, []byte(`[]`)); err != nil {
		t.Fatalf("PutSlot() error = %v", err)
	}
	if err := DeleteSlot(ctx, db, SlotFolders); err != nil {
		t.Fatalf("DeleteSlot() error = %v", err)
	}
	slot, err := GetSlot(ctx, db, SlotFolders)
	if err != nil {
		t.Fatalf("GetSlot() error = %v", err)
	}
	if slot != nil {
		t.Errorf("GetSlot() after delete = %+v, want nil", slot)
	}
}

func TestRecordings_InsertAndList(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	recs := []*Recording{
		{ID: "r1", NoteID: "n1", StartedAt: 1000, StoppedAt: 2000, Outcome: "captured", SegmentCount: 3, AudioPath: stringPtr("/tmp/r1.wav")},
		{ID: "r2", NoteID: "n1", StartedAt: 3000, StoppedAt: 3500, Outcome: "nothing_captured"},
		{ID: "r3", NoteID: "n2", StartedAt: 4000, StoppedAt: 4100, Outcome: "connection_lost", ErrorCode: stringPtr("CONNECTION_LOST")},
	}
	for _, r := range recs {
		if err := InsertRecording(ctx, db, r); err != nil {
			t.Fatalf("InsertRecording(%s) error = %v", r.ID, err)
		}
	}

	got, err := ListRecordings(ctx, db, "n1", 0)
	if err != nil {
		t.Fatalf("ListRecordings() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "r2" || got[1].ID != "r1" {
		t.Errorf("order = %s,%s, want r2,r1", got[0].ID, got[1].ID)
	}
	if got[1].AudioPath == nil || *got[1].AudioPath != "/tmp/r1.wav" {
		t.Errorf("AudioPath = %v, want /tmp/r1.wav", got[1].AudioPath)
	}
	if got[0].AudioPath != nil {
		t.Errorf("AudioPath = %v, want nil", *got[0].AudioPath)
	}

	all, err := ListRecordings(ctx, db, "", 1)
	if err != nil {
		t.Fatalf("ListRecordings(all) error = %v", err)
	}
	if len(all) != 1 || all[0].ID != "r3" {
		t.Fatalf("ListRecordings(all, 1) = %+v, want [r3]", all)
	}
	if all[0].ErrorCode == nil || *all[0].ErrorCode != "CONNECTION_LOST" {
		t.Errorf("ErrorCode = %v, want CONNECTION_LOST", all[0].ErrorCode)
	}

	if err := DeleteRecordingsForNote(ctx, db, "n1"); err != nil {
		t.Fatalf("DeleteRecordingsForNote() error = %v", err)
	}
	got, err = ListRecordings(ctx, db, "n1", 0)
	if err != nil {
		t.Fatalf("ListRecordings() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len after delete = %d, want 0", len(got))
	}
}
