// Package logging provides unbuffered, fd-direct diagnostic output for
// cold paths: calibration failures, sink errors, shutdown messages. It is
// deliberately not a general-purpose logging framework — no levels, no
// formatting verbs, no structured fields — matching the ancestor
// codebase's debug.DropMessage/DropError idiom of direct fd writes.
//
// Never call these functions from a hot path. They allocate a string via
// concatenation plus a byte copy of it per call and issue a syscall; both
// are fine for
// once-a-second metrics emission or once-ever startup/shutdown
// messages, neither is fine inside a matching loop.
package logging

import "syscall"

// Warn writes prefix + ": " + msg + "\n" directly to stderr (fd 2),
// bypassing the os.Stderr *File wrapper and any buffering. Mirrors the
// ancestor codebase's utils.PrintWarning, which the retrieved copy of
// that package was missing.
//
//go:nosplit
func Warn(prefix, msg string) {
	write(prefix + ": " + msg + "\n")
}

// Error writes prefix + ": " + err.Error() + "\n" to stderr, or just
// prefix + "\n" if err is nil. Grounded on debug.DropError.
//
//go:nosplit
func Error(prefix string, err error) {
	if err != nil {
		write(prefix + ": " + err.Error() + "\n")
		return
	}
	write(prefix + "\n")
}

// Info writes prefix + ": " + msg + "\n" to stderr. Grounded on
// debug.DropMessage, used for cold-path state-change notices.
//
//go:nosplit
func Info(prefix, msg string) {
	write(prefix + ": " + msg + "\n")
}

// write issues syscall.Write against fd 2. Short writes are retried; a write that returns an error is simply dropped — a logging
// path that blocks or panics on a full pipe is worse than a lost line.
func write(s string) {
	b := []byte(s)
	for len(b) > 0 {
		n, err := syscall.Write(2, b)
		if err != nil || n <= 0 {
			return
		}
		b = b[n:]
	}
}
