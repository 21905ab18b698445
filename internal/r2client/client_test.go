package r2client

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_RequiresAllFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty", Config{}},
		{"no endpoint", Config{AccessKeyID: "k", SecretKey: "s", BucketName: "b"}},
		{"no access key", Config{Endpoint: "https://acc.r2.cloudflarestorage.com", SecretKey: "s", BucketName: "b"}},
		{"no secret", Config{Endpoint: "https://acc.r2.cloudflarestorage.com", AccessKeyID: "k", BucketName: "b"}},
		{"no bucket", Config{Endpoint: "https://acc.r2.cloudflarestorage.com", AccessKeyID: "k", SecretKey: "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(context.Background(), tt.cfg); err == nil {
				t.Error("Expected error for incomplete config")
			}
		})
	}
}

func TestCompressDecompress(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	srcPath := filepath.Join(tmpDir, "source.txt")
	compressedPath := filepath.Join(tmpDir, "compressed.zst")
	decompressedPath := filepath.Join(tmpDir, "decompressed.txt")

	testData := strings.Repeat("Coupon snapshot compression test payload. ", 1000)
	if err := os.WriteFile(srcPath, []byte(testData), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	if err := CompressFile(srcPath, compressedPath); err != nil {
		t.Fatalf("CompressFile failed: %v", err)
	}

	srcInfo, _ := os.Stat(srcPath)
	compressedInfo, err := os.Stat(compressedPath)
	if err != nil {
		t.Fatalf("Compressed file not created: %v", err)
	}
	if compressedInfo.Size() >= srcInfo.Size() {
		t.Errorf("Compressed size %d not smaller than source %d", compressedInfo.Size(), srcInfo.Size())
	}

	compressed, err := os.Open(compressedPath)
	if err != nil {
		t.Fatalf("Failed to open compressed file: %v", err)
	}
	defer compressed.Close()

	if err := DecompressStream(compressed, decompressedPath); err != nil {
		t.Fatalf("DecompressStream failed: %v", err)
	}

	roundTripped, err := os.ReadFile(decompressedPath)
	if err != nil {
		t.Fatalf("Failed to read decompressed file: %v", err)
	}
	if string(roundTripped) != testData {
		t.Error("Decompressed data does not match source")
	}
}

func TestDecompressStream_InvalidData(t *testing.T) {
	t.Parallel()

	dstPath := filepath.Join(t.TempDir(), "out.db")
	err := DecompressStream(bytes.NewReader([]byte("not zstd data")), dstPath)
	if err == nil {
		t.Error("Expected error for invalid zstd stream")
	}
}

func TestCompressFile_MissingSource(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	err := CompressFile(filepath.Join(tmpDir, "missing.db"), filepath.Join(tmpDir, "out.zst"))
	if err == nil {
		t.Error("Expected error for missing source file")
	}
}
