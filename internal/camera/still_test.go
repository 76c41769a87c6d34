package camera

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func noWrite(string) error { return nil }

func TestTempFileRemovedAfterSuccess(t *testing.T) {
	var seen string
	err := withTempFile("still-*.jpg", noWrite, func(path string) error {
		seen = path
		if _, err := os.Stat(path); err != nil {
			t.Errorf("temp file missing inside fn: %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withTempFile: %v", err)
	}
	if !strings.HasSuffix(seen, ".jpg") {
		t.Errorf("path %q lacks .jpg suffix", seen)
	}
	if _, err := os.Stat(seen); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file still present: %v", err)
	}
}

func TestTempFileRemovedAfterFailure(t *testing.T) {
	boom := errors.New("no face")
	var seen string
	err := withTempFile("still-*.jpg", noWrite, func(path string) error {
		seen = path
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if _, err := os.Stat(seen); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file still present after failure: %v", err)
	}
}

func TestTempFileRemovedWhenWriteFails(t *testing.T) {
	var seen string
	called := false
	err := withTempFile("still-*.jpg", func(path string) error {
		seen = path
		return errors.New("encode failed")
	}, func(string) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Fatalf("err = %v, fn called = %v", err, called)
	}
	if _, err := os.Stat(seen); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file still present: %v", err)
	}
}

func TestTempFileRemovedOnPanic(t *testing.T) {
	var seen string
	func() {
		defer func() { recover() }()
		withTempFile("still-*.jpg", noWrite, func(path string) error {
			seen = path
			panic("boom")
		})
	}()
	if seen == "" {
		t.Fatal("fn never ran")
	}
	if _, err := os.Stat(seen); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file still present after panic: %v", err)
	}
}

func TestFnMayRemoveFile(t *testing.T) {
	err := withTempFile("still-*.jpg", noWrite, func(path string) error {
		return os.Remove(path)
	})
	if err != nil {
		t.Errorf("withTempFile = %v", err)
	}
}
