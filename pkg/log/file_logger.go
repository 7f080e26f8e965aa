package log

import (
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/afero"
)

// FileLogger appends events to a CBOR file.
// It is safe for concurrent use from multiple goroutines.
type FileLogger struct {
	fs      afero.Fs
	path    string
	file    afero.File
	encoder *cbor.Encoder
	mu      sync.Mutex
	closed  bool
}

// NewFileLogger opens path on fs for appending, creating it with
// permissions 0644 if needed.
func NewFileLogger(fs afero.Fs, path string) (*FileLogger, error) {
	l := &FileLogger{fs: fs, path: path}
	if err := l.open(os.O_CREATE | os.O_APPEND | os.O_WRONLY); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *FileLogger) open(flag int) error {
	f, err := l.fs.OpenFile(l.path, flag, 0644)
	if err != nil {
		return err
	}
	l.use(f)
	return nil
}

func (l *FileLogger) use(f afero.File) {
	l.file = f
	l.encoder = newEncoder(f)
}

// Path returns the log file path.
func (l *FileLogger) Path() string {
	return l.path
}

// Fs returns the file system holding the log.
func (l *FileLogger) Fs() afero.Fs {
	return l.fs
}

// Log writes an event to the file.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	// Encoding errors are dropped; event logging never disrupts control.
	_ = l.encoder.Encode(toRecord(event))
}

// Size returns the current file size in bytes.
func (l *FileLogger) Size() (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, err := l.fs.Stat(l.path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Reset truncates the log.
func (l *FileLogger) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return os.ErrClosed
	}
	if err := l.file.Close(); err != nil {
		return err
	}
	// Create truncates and starts writing at offset zero on every Fs;
	// O_APPEND|O_TRUNC keeps the old offset on some of them.
	f, err := l.fs.Create(l.path)
	if err != nil {
		return err
	}
	l.use(f)
	return nil
}

// Close closes the file. It is safe to call Close multiple times;
// later Log calls are ignored.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	return l.file.Close()
}

// Compile-time interface satisfaction check.
var _ Logger = (*FileLogger)(nil)
