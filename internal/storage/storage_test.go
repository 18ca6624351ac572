package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/theramind/theramind/pkg/types"
)

func testRecord(id string) *types.CounselingRecord {
	return &types.CounselingRecord{
		ID:             id,
		CurrentTherapy: "CBT",
		LastUpdated:    time.Now().UTC(),
		AllSessions: []types.SessionRecord{
			{Index: 0, Therapy: "CBT", CreatedAt: time.Now().UTC()},
		},
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	rec := testRecord("counseling_20250301_100000")
	rec.AllSessions[0].Dialogue = []types.DialogueTurn{
		{Role: types.RolePatient, Content: "hello"},
		{Role: types.RoleCounselor, Content: "welcome"},
	}

	if err := s.SaveRecord(ctx, rec); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(s.Dir(), rec.ID+".json")); os.IsNotExist(err) {
		t.Fatal("record file was not created")
	}

	loaded, err := s.LoadRecord(ctx, rec.ID)
	if err != nil {
		t.Fatalf("LoadRecord failed: %v", err)
	}
	if loaded.ID != rec.ID || loaded.CurrentTherapy != "CBT" {
		t.Errorf("record mismatch: got %+v", loaded)
	}
	if len(loaded.AllSessions) != 1 || len(loaded.AllSessions[0].Dialogue) != 2 {
		t.Errorf("sessions did not round-trip: %+v", loaded.AllSessions)
	}
}

func TestStore_SaveWithoutID(t *testing.T) {
	s := New(t.TempDir())
	if err := s.SaveRecord(context.Background(), &types.CounselingRecord{}); err == nil {
		t.Error("expected error saving a record without an id")
	}
}

func TestStore_LoadNotFound(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.LoadRecord(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	rec := testRecord("counseling_20250301_100000")
	if err := s.SaveRecord(ctx, rec); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}
	if err := s.DeleteRecord(ctx, rec.ID); err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	if _, err := s.LoadRecord(ctx, rec.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got: %v", err)
	}

	// Deleting again is fine
	if err := s.DeleteRecord(ctx, rec.ID); err != nil {
		t.Errorf("delete of missing record should not error: %v", err)
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{
		"counseling_20250101_090000",
		"counseling_20250301_100000",
		"counseling_20250201_120000",
	} {
		if err := s.SaveRecord(ctx, testRecord(id)); err != nil {
			t.Fatalf("SaveRecord failed: %v", err)
		}
	}

	ids, err := s.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	want := []string{
		"counseling_20250301_100000",
		"counseling_20250201_120000",
		"counseling_20250101_090000",
	}
	if len(ids) != len(want) {
		t.Fatalf("expected %d records, got %d: %v", len(want), len(ids), ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
}

func TestStore_ListEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nonexistent"))
	ids, err := s.ListRecords(context.Background())
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected empty list, got: %v", ids)
	}
}

func TestStore_Latest(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	if _, err := s.LatestRecord(ctx); err != ErrNotFound {
		t.Errorf("expected ErrNotFound on empty store, got: %v", err)
	}

	s.SaveRecord(ctx, testRecord("counseling_20250101_090000"))
	s.SaveRecord(ctx, testRecord("counseling_20250301_100000"))

	latest, err := s.LatestRecord(ctx)
	if err != nil {
		t.Fatalf("LatestRecord failed: %v", err)
	}
	if latest.ID != "counseling_20250301_100000" {
		t.Errorf("LatestRecord = %s, want the newest id", latest.ID)
	}
}

func TestStore_Exists(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	if s.Exists(ctx, "counseling_20250301_100000") {
		t.Error("record should not exist yet")
	}
	s.SaveRecord(ctx, testRecord("counseling_20250301_100000"))
	if !s.Exists(ctx, "counseling_20250301_100000") {
		t.Error("record should exist after save")
	}
}

func TestStore_ConcurrentSaves(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			rec := testRecord("counseling_20250301_100000")
			rec.CurrentTherapy = fmt.Sprintf("therapy-%d", n)
			if err := s.SaveRecord(ctx, rec); err != nil {
				t.Errorf("concurrent SaveRecord failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	// The file must be a complete record from one of the writers.
	loaded, err := s.LoadRecord(ctx, "counseling_20250301_100000")
	if err != nil {
		t.Fatalf("LoadRecord after concurrent saves failed: %v", err)
	}
	if loaded.CurrentTherapy == "" {
		t.Error("loaded record is incomplete")
	}
}

func TestStore_AtomicWrite(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	rec := testRecord("counseling_20250301_100000")
	if err := s.SaveRecord(ctx, rec); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}

	tmpPath := filepath.Join(s.Dir(), rec.ID+".json.tmp")
	if _, err := os.Stat(tmpPath); !os.IsNotExist(err) {
		t.Error("temp file should not exist after successful write")
	}
}
