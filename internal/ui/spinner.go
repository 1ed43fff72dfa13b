package ui

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/term"
)

var frames = [...]string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner shows an animated message on stderr while a scan or advisor call
// runs. Call the returned function to stop and clear it.
func Spinner(msg string) func() {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return func() {}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	ticker := time.NewTicker(80 * time.Millisecond)

	go func() {
		defer close(done)
		defer ticker.Stop()
		for i := 0; ; i++ {
			fmt.Fprintf(os.Stderr, "\r%s %s", Accent.Render(frames[i%len(frames)]), Muted.Render(msg))
			select {
			case <-stop:
				fmt.Fprint(os.Stderr, "\r\033[K")
				return
			case <-ticker.C:
			}
		}
	}()

	return func() {
		close(stop)
		<-done
	}
}
