// Package testpack unpacks a distributed test case archive into the
// local test cases directory.
package testpack

import (
	"archive/tar"
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"labjudge/pkg/errors"
	"labjudge/pkg/utils/logger"
)

const stampFileName = ".pack-hash"

// Ensure extracts the zstd-compressed tar archive at packPath into
// destDir. A stamp file holding the archive's hash makes repeated runs
// skip the extraction when the pack has not changed. A non-empty
// wantHash must match the pack's sha256.
func Ensure(ctx context.Context, packPath, destDir, wantHash string) *errors.Error {
	hash, err := hashFile(packPath)
	if err != nil {
		return err
	}
	if wantHash != "" && !strings.EqualFold(hash, wantHash) {
		return errors.Newf(errors.PackHashMismatch, "test pack %s has hash %s, expected %s", packPath, hash, wantHash)
	}
	stampPath := filepath.Join(destDir, stampFileName)
	if stored, rerr := os.ReadFile(stampPath); rerr == nil && strings.TrimSpace(string(stored)) == hash {
		logger.Debug(ctx, "test pack unchanged, skipping extraction")
		return nil
	}

	if err := os.RemoveAll(destDir); err != nil {
		return errors.Wrapf(err, errors.PackError, "cleanup test cases dir %s", destDir)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return errors.Wrapf(err, errors.PackError, "create test cases dir %s", destDir)
	}
	if err := extract(packPath, destDir); err != nil {
		return err
	}
	if err := os.WriteFile(stampPath, []byte(hash+"\n"), 0o644); err != nil {
		return errors.Wrapf(err, errors.PackError, "write pack stamp %s", stampPath)
	}
	logger.Info(ctx, "test pack extracted")
	return nil
}

func hashFile(path string) (string, *errors.Error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.PackError, "open test pack %s", path)
	}
	defer f.Close()
	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", errors.Wrapf(err, errors.PackError, "hash test pack %s", path)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func extract(srcPath, dstDir string) *errors.Error {
	file, err := os.Open(srcPath)
	if err != nil {
		return errors.Wrapf(err, errors.PackError, "open test pack %s", srcPath)
	}
	defer file.Close()

	zstdReader, err := zstd.NewReader(file)
	if err != nil {
		return errors.Wrapf(err, errors.PackError, "create zstd reader")
	}
	defer zstdReader.Close()

	tr := tar.NewReader(zstdReader)
	for {
		hdr, err := tr.Next()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return errors.Wrapf(err, errors.PackError, "read tar entry")
		}
		if hdr.Name == "" {
			continue
		}
		cleanName := filepath.Clean(hdr.Name)
		if strings.HasPrefix(cleanName, "..") || filepath.IsAbs(cleanName) {
			return errors.Newf(errors.PackEntryEscape, "invalid tar entry path %q", hdr.Name)
		}
		target := filepath.Join(dstDir, cleanName)
		if !strings.HasPrefix(target, filepath.Clean(dstDir)+string(filepath.Separator)) {
			return errors.Newf(errors.PackEntryEscape, "tar entry %q escapes destination", hdr.Name)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrapf(err, errors.PackError, "create dir %s", cleanName)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errors.Wrapf(err, errors.PackError, "create parent dir for %s", cleanName)
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fs.FileMode(hdr.Mode))
			if err != nil {
				return errors.Wrapf(err, errors.PackError, "create file %s", cleanName)
			}
			if _, err := io.Copy(out, tr); err != nil {
				_ = out.Close()
				return errors.Wrapf(err, errors.PackError, "write file %s", cleanName)
			}
			_ = out.Close()
		default:
			// skip other types
		}
	}
	return nil
}
