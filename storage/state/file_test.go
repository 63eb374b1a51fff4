package state

import (
	"io/ioutil"
	"path/filepath"
	"testing"
)

func TestFileStore_roundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	st, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	if _, err := st.Get(KeyAccessToken); err != ErrNotFound {
		t.Errorf("Get() on empty store error = %v; want ErrNotFound", err)
	}

	if err := st.Set(KeyAccessToken, "tok-123"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// entries survive a reopen
	st2, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() reopen error = %v", err)
	}
	got, err := st2.Get(KeyAccessToken)
	if err != nil || got != "tok-123" {
		t.Errorf("Get() after reopen = %q, %v; want %q", got, err, "tok-123")
	}

	if err := st2.Delete(KeyAccessToken); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := st2.Get(KeyAccessToken); err != ErrNotFound {
		t.Errorf("Get() after delete error = %v; want ErrNotFound", err)
	}
}

func TestFileStore_corruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := ioutil.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	st, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() on corrupt file error = %v; want nil", err)
	}
	if _, err := st.Get(KeyUser); err != ErrNotFound {
		t.Errorf("Get() error = %v; want ErrNotFound (corrupt file reads empty)", err)
	}
}
