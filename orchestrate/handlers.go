package orchestrate

import (
	"fmt"

	"github.com/ARDIEY21/unblob/handler"
)

// findHandler looks up the handler that produced a carved ValidChunk by
// name, since handler.Handlers only exposes iteration, not lookup by name.
func findHandler(hs handler.Handlers, name string) handler.Handler {
	for _, h := range hs.Flat() {
		if h.Name() == name {
			return h
		}
	}
	return nil
}

func errHandlerMissing(name string) error {
	return fmt.Errorf("orchestrate: no registered handler named %q", name)
}
