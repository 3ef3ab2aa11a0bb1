// Package scripting runs user automation scripts against an edit session:
// batch rotations, collage layouts, history navigation. Scripts see a small
// fixed API rather than the session object itself, so an engine can never
// reach outside the operations the editor exposes.
package scripting

import "context"

// Engine executes scripts against a registered edit session.
type Engine interface {
	// Execute runs a script. Cancelling ctx interrupts a running script.
	Execute(ctx context.Context, script string) (interface{}, error)

	// RegisterSession exposes the edit session to subsequent Execute calls.
	RegisterSession(session SessionDOM) error
}

// SessionDOM is the contract an edit session implements for scripts. All
// operations are total, mirroring the editor: out-of-range pages and empty
// history stacks are no-ops.
type SessionDOM interface {
	PageCount() int
	RotatePage(index int)
	Collage(columns, rows int)
	Undo()
	Redo()
	CanUndo() bool
	CanRedo() bool
}
