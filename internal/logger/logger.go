package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Logger writes leveled entries to stdout/stderr and, when a directory is
// configured, to info.log, warning.log and error.log inside it.
type Logger struct {
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	files      []*os.File
	mu         sync.Mutex
}

// New creates a Logger. An empty dir logs to the console only.
func New(dir string) (*Logger, error) {
	l := &Logger{}

	infoW, warningW, errorW := io.Writer(os.Stdout), io.Writer(os.Stdout), io.Writer(os.Stderr)
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		infoF, err := l.openLogFile(filepath.Join(dir, "info.log"))
		if err != nil {
			return nil, err
		}
		warningF, err := l.openLogFile(filepath.Join(dir, "warning.log"))
		if err != nil {
			l.Close()
			return nil, err
		}
		errorF, err := l.openLogFile(filepath.Join(dir, "error.log"))
		if err != nil {
			l.Close()
			return nil, err
		}
		infoW = io.MultiWriter(os.Stdout, infoF)
		warningW = io.MultiWriter(os.Stdout, warningF)
		errorW = io.MultiWriter(os.Stderr, errorF)
	}

	l.setup(infoW, warningW, errorW)
	return l, nil
}

// NewWriter sends every level to w. Used by tests.
func NewWriter(w io.Writer) *Logger {
	l := &Logger{}
	l.setup(w, w, w)
	return l
}

func (l *Logger) setup(infoW, warningW, errorW io.Writer) {
	l.infoLog = log.New(infoW, "INFO    ", log.Ldate|log.Ltime|log.Lshortfile)
	l.warningLog = log.New(warningW, "WARNING ", log.Ldate|log.Ltime|log.Lshortfile)
	l.errorLog = log.New(errorW, "ERROR   ", log.Ldate|log.Ltime|log.Lshortfile)
}

func (l *Logger) openLogFile(filename string) (*os.File, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	l.files = append(l.files, file)
	return file, nil
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.infoLog.Output(2, fmt.Sprintf(format, v...))
}

func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.warningLog.Output(2, fmt.Sprintf(format, v...))
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.errorLog.Output(2, fmt.Sprintf(format, v...))
}

// Writer exposes the info stream, e.g. for the gin request log.
func (l *Logger) Writer() io.Writer {
	return l.infoLog.Writer()
}

// Close closes any log files.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, f := range l.files {
		_ = f.Close()
	}
	l.files = nil
}
