package unit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Event names emitted by file units.
const (
	EventCreated        = "created"
	EventContentChanged = "content_changed"
	EventRemoved        = "removed"
)

// FileDriver ensures a file's presence and content. File units support no
// callback operations: they can be ordered and can notify, but a
// subscription edge carrying an operation toward a file unit is silently
// dropped by the dispatch engine.
type FileDriver struct {
	// Path is the managed file's location.
	Path string

	// Content is the desired file content when present.
	Content string

	// Mode is the permission applied to created or rewritten files.
	// Zero defaults to 0644.
	Mode os.FileMode

	// Absent removes the file instead of ensuring it.
	Absent bool
}

// Plan compares the filesystem against the desired state.
func (d *FileDriver) Plan(ctx context.Context) ([]Change, error) {
	_, err := os.Stat(d.Path)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat %s: %w", d.Path, err)
	}

	if d.Absent {
		if !exists {
			return nil, nil
		}
		return []Change{{Event: EventRemoved, Message: fmt.Sprintf("remove %s", d.Path)}}, nil
	}

	if !exists {
		return []Change{{Event: EventCreated, Message: fmt.Sprintf("create %s", d.Path)}}, nil
	}

	current, err := os.ReadFile(d.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", d.Path, err)
	}
	if string(current) != d.Content {
		return []Change{{Event: EventContentChanged, Message: fmt.Sprintf("update content of %s", d.Path)}}, nil
	}
	return nil, nil
}

// Perform applies one planned change.
func (d *FileDriver) Perform(ctx context.Context, change Change) error {
	switch change.Event {
	case EventRemoved:
		if err := os.Remove(d.Path); err != nil {
			return fmt.Errorf("remove %s: %w", d.Path, err)
		}
		return nil
	case EventCreated, EventContentChanged:
		if err := os.MkdirAll(filepath.Dir(d.Path), 0o755); err != nil {
			return fmt.Errorf("create parent of %s: %w", d.Path, err)
		}
		if err := os.WriteFile(d.Path, []byte(d.Content), d.mode()); err != nil {
			return fmt.Errorf("write %s: %w", d.Path, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown file change %q", change.Event)
	}
}

// Operations returns nil: file units expose no callbacks.
func (d *FileDriver) Operations() []string { return nil }

// Invoke always fails; Supports gates it off before dispatch.
func (d *FileDriver) Invoke(operation string) error {
	return fmt.Errorf("file units support no operations (got %q)", operation)
}

func (d *FileDriver) mode() os.FileMode {
	if d.Mode == 0 {
		return 0o644
	}
	return d.Mode
}
