package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ctxReader stops a copy once ctx is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// writeFileAtomic copies content to a temp file next to path and renames it
// into place, so an interrupted download never leaves a truncated file.
func writeFileAtomic(ctx context.Context, path string, content io.Reader) (int64, error) {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, ".t"+uuid.NewString())

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //#nosec G304 -- path chosen by the user
	if err != nil {
		return 0, fmt.Errorf("could not open temp file: %w", err)
	}

	success := false
	defer func() {
		if !success {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	n, err := io.Copy(f, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return 0, fmt.Errorf("could not copy object contents: %w", err)
	}
	if err := f.Sync(); err != nil {
		return 0, fmt.Errorf("could not sync written file: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("could not close written file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return 0, fmt.Errorf("failed to rename file: %w", err)
	}

	success = true
	return n, nil
}

func detectContentType(path string) string {
	if contentType := mime.TypeByExtension(filepath.Ext(path)); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}
