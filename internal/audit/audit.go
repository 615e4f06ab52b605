// Package audit appends authentication events to a plain-text log file,
// one line per event:
//
//	2025-01-02 15:04:05  username=alice  result=SUCCESS  reason=text
//
// The file is append-only; the reason field is optional. The kinds below
// are the complete taxonomy.
package audit

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/faceguard/internal/logging"
)

// Kind is the result classification of an audit event.
type Kind string

const (
	KindSuccess           Kind = "SUCCESS"
	KindMFASuccess        Kind = "MFA_SUCCESS"
	KindFailWrongPassword Kind = "FAIL_WRONG_PASSWORD"
	KindFailUserNotFound  Kind = "FAIL_USER_NOT_FOUND"
	KindFailFaceMismatch  Kind = "FAIL_FACE_MISMATCH"
	KindFailDataIntegrity Kind = "FAIL_DATA_INTEGRITY"
	KindPasswordChanged   Kind = "PASSWORD_CHANGED"
	KindUserRegistered    Kind = "USER_REGISTERED"
)

// SystemUser is the username recorded for events not tied to a specific
// account, such as store integrity failures.
const SystemUser = "SYSTEM"

const timestampLayout = "2006-01-02 15:04:05"

// Log appends auth events to a single file. It opens the file per write
// so a long-lived process never pins a deleted log.
type Log struct {
	path string
	now  func() time.Time
	log  logging.Logger
}

// New returns a Log writing to path. The parent directory is created on
// first write.
func New(path string, log logging.Logger) *Log {
	return &Log{path: path, now: time.Now, log: log.With("component", "audit")}
}

// Event appends one line for the given user and result kind. The reason
// is omitted from the line when empty. Write failures are returned, not
// swallowed: a silent audit gap is worse than a failed operation.
func (l *Log) Event(ctx context.Context, username string, kind Kind, reason string) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("creating audit log directory: %w", err)
	}

	line := fmt.Sprintf("%s  username=%s  result=%s", l.now().Format(timestampLayout), username, kind)
	if reason != "" {
		line += "  reason=" + reason
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("appending audit event: %w", err)
	}

	l.log.Debug(ctx, "audit event recorded", "username", username, "result", string(kind))
	return nil
}

// Recent returns the last count log lines, oldest first. A missing log
// file yields an empty slice.
func (l *Log) Recent(count int) ([]string, error) {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	if count > 0 && len(lines) > count {
		lines = lines[len(lines)-count:]
	}
	return lines, nil
}
