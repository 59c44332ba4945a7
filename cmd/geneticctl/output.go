package main

import (
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/ncruces/go-strftime"
)

const timestampLayout = "%Y-%m-%d %H:%M:%S"

// stdoutIsTerminal is swapped in tests.
var stdoutIsTerminal = func() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// newLogger writes text records for a terminal and JSON otherwise.
func newLogger(w io.Writer, terminal bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if terminal {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return strftime.Format(timestampLayout, t.Local())
}

func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

func formatFitness(v float64) string {
	return strconv.FormatFloat(v, 'g', 8, 64)
}

func dirSize(dir string) (uint64, error) {
	var total uint64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += uint64(info.Size())
		return nil
	})
	return total, err
}

func formatBytes(n uint64) string {
	return humanize.Bytes(n)
}
