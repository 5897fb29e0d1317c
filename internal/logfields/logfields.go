// Package logfields centralises slog attribute keys so log ingestion schemas
// stay stable across packages.
package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRequestID  = "request_id"
	KeyWorkspace  = "workspace"
	KeyPass       = "pass"
	KeyPasses     = "passes"
	KeyExitCode   = "exit_code"
	KeyDurationMS = "duration_ms"
	KeyBytes      = "bytes"
	KeyCategory   = "category"
	KeyStage      = "stage"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyAccept     = "accept"
	KeyBinary     = "binary"
	KeySubject    = "subject"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RequestID(id string) slog.Attr    { return slog.String(KeyRequestID, id) }
func Workspace(dir string) slog.Attr   { return slog.String(KeyWorkspace, dir) }
func Pass(n int) slog.Attr             { return slog.Int(KeyPass, n) }
func Passes(n int) slog.Attr           { return slog.Int(KeyPasses, n) }
func ExitCode(code int) slog.Attr      { return slog.Int(KeyExitCode, code) }
func Bytes(n int) slog.Attr            { return slog.Int(KeyBytes, n) }
func Category(c string) slog.Attr      { return slog.String(KeyCategory, c) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func File(f string) slog.Attr          { return slog.String(KeyFile, f) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr    { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }
func Accept(pref string) slog.Attr     { return slog.String(KeyAccept, pref) }
func Binary(name string) slog.Attr     { return slog.String(KeyBinary, name) }
func Subject(s string) slog.Attr       { return slog.String(KeySubject, s) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
