package storage

import (
	"path/filepath"
	"testing"
)

func TestMatchStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches.db")
	store, err := OpenMatchStore(path)
	if err != nil {
		t.Fatalf("OpenMatchStore: %v", err)
	}
	defer store.Close()

	if _, ok, err := store.Get("escavacao de valas"); err != nil || ok {
		t.Fatalf("Get on empty store: ok=%v err=%v", ok, err)
	}

	if err := store.Put("escavacao de valas", "BSO-01"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	code, ok, err := store.Get("escavacao de valas")
	if err != nil || !ok || code != "BSO-01" {
		t.Fatalf("Get after Put: code=%q ok=%v err=%v", code, ok, err)
	}

	// A later confirmation for the same key overwrites the earlier code.
	if err := store.Put("escavacao de valas", "BSO-02"); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	code, _, _ = store.Get("escavacao de valas")
	if code != "BSO-02" {
		t.Fatalf("expected overwritten code BSO-02, got %q", code)
	}

	if err := store.Put("compactacao de aterro", "TP-03"); err != nil {
		t.Fatalf("Put second key: %v", err)
	}
	keys, err := store.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d: %v", len(keys), keys)
	}
}

func TestMatchStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches.db")
	store, err := OpenMatchStore(path)
	if err != nil {
		t.Fatalf("OpenMatchStore: %v", err)
	}
	if err := store.Put("plantio de grama", "PU-07"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	store.Close()

	reopened, err := OpenMatchStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	code, ok, err := reopened.Get("plantio de grama")
	if err != nil || !ok || code != "PU-07" {
		t.Fatalf("Get after reopen: code=%q ok=%v err=%v", code, ok, err)
	}
}
