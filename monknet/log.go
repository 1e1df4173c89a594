package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// A Logger writes everything to stdout and to a log file
// The file of the previous run is kept as last.txt
type Logger struct {
	mu sync.Mutex
	f  *os.File
}

func newLogger(path string) (*Logger, error) {
	dir := filepath.Dir(path)
	os.MkdirAll(dir, 0777)
	os.Rename(path, filepath.Join(dir, "last.txt"))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
	if err != nil {
		return nil, err
	}

	return &Logger{f: f}, nil
}

func (l *Logger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Print(string(p))

	// Write to file
	l.f.Write(p)

	return len(p), nil
}

// Close closes the log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.f.Close()
}

// startLogging makes the standard logger use a Logger
// The returned function restores stderr and closes the file
func startLogging(path string) func() {
	l, err := newLogger(path)
	if err != nil {
		log.Print("Can't open log file: ", err)
		return func() {}
	}

	log.SetOutput(l)

	return func() {
		log.SetOutput(os.Stderr)
		l.Close()
	}
}
