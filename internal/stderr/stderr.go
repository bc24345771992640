//go:build !windows

// Package stderr captures output that C libraries (ALSA, the audio backend)
// write directly to file descriptor 2, bypassing Go's os.Stderr, and
// forwards it to the logger. This keeps raw messages out of the TUI.
package stderr

import (
	"bufio"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"
)

var (
	mu         sync.Mutex
	origStderr int
	pipeRead   *os.File
	pipeWrite  *os.File
	started    bool
	done       chan struct{}
)

// Start redirects fd 2 into a pipe whose lines are logged at warn level.
// Call it early in main, before the audio device is opened. On error the
// program can continue; output just goes to the original stderr.
func Start(log logrus.FieldLogger) error {
	mu.Lock()
	defer mu.Unlock()
	if started {
		return nil
	}

	r, w, err := os.Pipe()
	if err != nil {
		return err
	}

	origStderr, err = syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return err
	}

	err = syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd()))
	if err != nil {
		syscall.Close(origStderr)
		r.Close()
		w.Close()
		return err
	}

	pipeRead = r
	pipeWrite = w
	started = true
	done = make(chan struct{})

	go forward(r, log.WithField("component", "stderr"), done)

	return nil
}

func forward(r *os.File, log logrus.FieldLogger, done chan<- struct{}) {
	defer close(done)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			log.Warn(line)
		}
	}
}

// WriteOriginal writes directly to the original stderr, bypassing capture.
// Useful for fatal errors that must be visible while the TUI is running.
func WriteOriginal(msg string) {
	mu.Lock()
	fd := origStderr
	mu.Unlock()
	if fd > 0 {
		_, _ = syscall.Write(fd, []byte(msg))
		return
	}
	_, _ = os.Stderr.WriteString(msg)
}

// Stop restores the original stderr and waits for buffered lines to be
// logged.
func Stop() {
	mu.Lock()
	defer mu.Unlock()
	if !started {
		return
	}

	_ = syscall.Dup2(origStderr, int(os.Stderr.Fd()))
	_ = syscall.Close(origStderr)
	origStderr = 0

	pipeWrite.Close()
	<-done
	pipeRead.Close()
	started = false
}
