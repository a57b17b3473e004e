package cas_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.trai.ch/bext/internal/adapters/cas"
	"go.trai.ch/bext/internal/core/domain"
)

func TestStore_PutAndGet(t *testing.T) {
	tmpDir := t.TempDir()
	storePath := filepath.Join(tmpDir, "builds.json")

	store, err := cas.NewStore(storePath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	info := domain.BuildInfo{
		BuildID:     "build1",
		SourceHash:  "abc",
		ArchivePath: "/tmp/out/my_ext-0.1.0-linux-x64.zip",
		Timestamp:   time.Now(),
	}

	if err := store.Put(info); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get("build1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil")
	}

	if got.BuildID != info.BuildID {
		t.Errorf("expected BuildID %q, got %q", info.BuildID, got.BuildID)
	}
	if got.SourceHash != info.SourceHash {
		t.Errorf("expected SourceHash %q, got %q", info.SourceHash, got.SourceHash)
	}
}

func TestStore_GetMissing(t *testing.T) {
	store, err := cas.NewStore(filepath.Join(t.TempDir(), "builds.json"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	got, err := store.Get("no-such-build")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing build, got %+v", got)
	}
}

func TestStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()
	storePath := filepath.Join(tmpDir, "builds.json")

	// 1. Create store and save data
	store1, err := cas.NewStore(storePath)
	if err != nil {
		t.Fatalf("NewStore 1 failed: %v", err)
	}

	info := domain.BuildInfo{
		BuildID:    "build2",
		SourceHash: "xyz",
	}
	if err := store1.Put(info); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// 2. Create new store instance pointing to the same file
	store2, err2 := cas.NewStore(storePath)
	if err2 != nil {
		t.Fatalf("NewStore 2 failed: %v", err2)
	}

	got, err3 := store2.Get("build2")
	if err3 != nil {
		t.Fatalf("Get failed: %v", err3)
	}
	if got == nil {
		t.Fatal("Get returned nil")
	}
	if got.SourceHash != "xyz" {
		t.Errorf("expected SourceHash %q, got %q", "xyz", got.SourceHash)
	}
}

func TestStore_OmitZero(t *testing.T) {
	tmpDir := t.TempDir()
	storePath := filepath.Join(tmpDir, "builds.json")

	store, err := cas.NewStore(storePath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	info := domain.BuildInfo{
		BuildID: "build_zero",
	}
	if err := store.Put(info); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	//nolint:gosec // Test file with controlled path
	content, err := os.ReadFile(storePath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	jsonStr := string(content)
	t.Logf("JSON content: %s", jsonStr)

	if strings.Contains(jsonStr, "source_hash") {
		t.Error("JSON should not contain 'source_hash' for zero value")
	}
	if strings.Contains(jsonStr, "archive_path") {
		t.Error("JSON should not contain 'archive_path' for zero value")
	}
	if strings.Contains(jsonStr, "timestamp") {
		t.Error("JSON should not contain 'timestamp' for zero value")
	}
	if !strings.Contains(jsonStr, "build_id") {
		t.Error("JSON should contain 'build_id'")
	}
}
