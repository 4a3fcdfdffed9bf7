package signalhandler

import (
	"os"
	"os/signal"
	"syscall"
)

// ExitInterrupted is the status used after SIGINT or SIGTERM
const ExitInterrupted = 130

var exit = os.Exit

// SetupHandler runs cleanup and exits with ExitInterrupted when the process
// is interrupted. Interruption is abrupt: files already renamed or deleted
// stay that way, a later run converges. The returned func unregisters the
// handler.
func SetupHandler(cleanup func()) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go handle(sigChan, done, cleanup)

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}

func handle(sigChan <-chan os.Signal, done <-chan struct{}, cleanup func()) {
	select {
	case <-sigChan:
		if cleanup != nil {
			cleanup()
		}
		exit(ExitInterrupted)
	case <-done:
	}
}
