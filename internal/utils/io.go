package utils

import (
	"errors"
	"io"
	"log/slog"
	"os"
)

// CloseWithLog closes c and logs a failure at warn level. Use it in defer
// statements where the close error cannot be returned.
func CloseWithLog(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		slog.Warn("failed to close resource", "error", err)
	}
}

// ReadLimited reads at most limit bytes from r. truncated reports whether
// r had more data than the limit.
func ReadLimited(r io.Reader, limit int64) (data []byte, truncated bool, err error) {
	data, err = io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(data)) > limit {
		return data[:limit], true, nil
	}
	return data, false, nil
}
