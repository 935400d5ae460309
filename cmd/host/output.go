package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/houzhh15/discussion-host/pkg/host"
)

// printOutput 按指定格式输出：json 输出 v，text 调用 text
func printOutput(w io.Writer, format string, v any, text func(io.Writer) error) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(w)
}

// noticeError 以用户提示作为错误文本，保留原始错误链
type noticeError struct{ err error }

func (e *noticeError) Error() string { return host.Notice(e.err) }
func (e *noticeError) Unwrap() error { return e.err }

func userError(err error) error {
	if err == nil {
		return nil
	}
	return &noticeError{err: err}
}

// writeDownload 写入下载目录并返回文件路径
func writeDownload(dir, name string, body []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}
