package cli

import "context"

func (a *App) Root(ctx context.Context) {
	a.println("Welcome to studymatch CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
	a.println("Bye!")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
