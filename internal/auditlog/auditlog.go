// Package auditlog keeps a local record of what the tool did: which
// contracts were analyzed and which reports were written. The file is a
// single JSON array so it stays readable by hand.
package auditlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Actions
const (
	ActionContractAnalyzed = "contract_analyzed"
	ActionReportRendered   = "report_rendered"
)

// Entry is one action record
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Source    string    `json:"source"`
	Detail    string    `json:"detail,omitempty"`
}

// Log appends entries to a JSON array file. It is safe for concurrent use
// within one process.
type Log struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// New returns a log backed by path. The file is created on first Append.
func New(path string) *Log {
	return &Log{
		path: path,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Path returns the backing file
func (l *Log) Path() string {
	return l.path
}

// Append records an action and returns the stored entry
func (l *Log) Append(action, source, detail string) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.read()
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: l.now(),
		Action:    action,
		Source:    source,
		Detail:    detail,
	}
	entries = append(entries, entry)

	if err := l.write(entries); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// List returns all entries, oldest first. A missing file is an empty log.
func (l *Log) List() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

func (l *Log) read() ([]Entry, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	var entries []Entry
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parse audit log %s: %w", l.path, err)
		}
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

func (l *Log) write(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal audit log: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create audit log dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".audit-*.json")
	if err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write audit log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write audit log: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}
