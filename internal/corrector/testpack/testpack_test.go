package testpack_test

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"labjudge/internal/corrector/testpack"
	pkgerrors "labjudge/pkg/errors"
)

type packEntry struct {
	name    string
	content string
}

func buildPack(t *testing.T, entries []packEntry) string {
	t.Helper()
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	tw := tar.NewWriter(zw)
	for _, e := range entries {
		hdr := &tar.Header{
			Name: e.name,
			Mode: 0o644,
			Size: int64(len(e.content)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header: %v", err)
		}
		if _, err := tw.Write([]byte(e.content)); err != nil {
			t.Fatalf("write entry: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zstd: %v", err)
	}

	path := filepath.Join(t.TempDir(), "pack.tar.zst")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write pack: %v", err)
	}
	return path
}

func TestEnsureExtractsPack(t *testing.T) {
	pack := buildPack(t, []packEntry{
		{name: "caso1/entrada4.txt", content: "1 2 3\n"},
		{name: "caso1/saida4.json", content: "{}"},
	})
	dest := filepath.Join(t.TempDir(), "testcases")

	if err := testpack.Ensure(context.Background(), pack, dest, ""); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "caso1", "entrada4.txt"))
	if err != nil {
		t.Fatalf("read extracted: %v", err)
	}
	if string(data) != "1 2 3\n" {
		t.Fatalf("content = %q", data)
	}
}

func TestEnsureSkipsUnchangedPack(t *testing.T) {
	pack := buildPack(t, []packEntry{{name: "caso1/entrada4.txt", content: "x"}})
	dest := filepath.Join(t.TempDir(), "testcases")

	if err := testpack.Ensure(context.Background(), pack, dest, ""); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	marker := filepath.Join(dest, "caso1", "extra.txt")
	if err := os.WriteFile(marker, []byte("kept"), 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}

	if err := testpack.Ensure(context.Background(), pack, dest, ""); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatal("unchanged pack must not be re-extracted")
	}
}

func TestEnsureHashMismatch(t *testing.T) {
	pack := buildPack(t, []packEntry{{name: "a.txt", content: "x"}})
	dest := filepath.Join(t.TempDir(), "testcases")

	err := testpack.Ensure(context.Background(), pack, dest, "deadbeef")
	if err == nil {
		t.Fatal("expected error")
	}
	if !pkgerrors.Is(err, pkgerrors.PackHashMismatch) {
		t.Fatalf("expected PackHashMismatch, got %v", err)
	}
}

func TestEnsureAcceptsMatchingHash(t *testing.T) {
	pack := buildPack(t, []packEntry{{name: "a.txt", content: "x"}})
	dest := filepath.Join(t.TempDir(), "testcases")

	data, err := os.ReadFile(pack)
	if err != nil {
		t.Fatalf("read pack: %v", err)
	}
	sum := sha256.Sum256(data)

	if err := testpack.Ensure(context.Background(), pack, dest, hex.EncodeToString(sum[:])); err != nil {
		t.Fatalf("ensure: %v", err)
	}
}

func TestEnsureRejectsEscapingEntry(t *testing.T) {
	pack := buildPack(t, []packEntry{{name: "../evil.txt", content: "x"}})
	dest := filepath.Join(t.TempDir(), "testcases")

	err := testpack.Ensure(context.Background(), pack, dest, "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !pkgerrors.Is(err, pkgerrors.PackEntryEscape) {
		t.Fatalf("expected PackEntryEscape, got %v", err)
	}
}
