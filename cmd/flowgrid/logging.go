package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lixenwraith/flowgrid/constant"
)

var (
	logDir      = constant.LogDir
	logFileName = constant.LogFileName
	maxLogSize  = int64(constant.LogMaxSize)
)

// setupLogging installs the default slog logger
// Without debug everything is discarded; the terminal belongs to the renderer.
// With debug, a text handler at debug level appends to logs/flowgrid.log, rotating an oversized
// previous file aside first. The returned file, if any, must be closed by the caller.
func setupLogging(debug bool) *os.File {
	if !debug {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return nil
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "log dir: %v (logging disabled)\n", err)
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return nil
	}

	logPath := filepath.Join(logDir, logFileName)
	if info, err := os.Stat(logPath); err == nil && info.Size() > maxLogSize {
		base := strings.TrimSuffix(logFileName, filepath.Ext(logFileName))
		rotated := filepath.Join(logDir, fmt.Sprintf("%s-%s.log", base, time.Now().Format("20060102-150405")))
		if err := os.Rename(logPath, rotated); err != nil {
			fmt.Fprintf(os.Stderr, "log rotation: %v\n", err)
		}
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file: %v (logging disabled)\n", err)
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return nil
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return f
}
