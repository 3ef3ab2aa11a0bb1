package scripting

import (
	"github.com/wudi/printkit/document"
	"github.com/wudi/printkit/history"
)

// DocumentSession adapts a document history store to the SessionDOM
// contract. Like the store itself it is single-writer: scripts run on the
// goroutine that owns the store.
type DocumentSession struct {
	store *history.Store[document.Document]
}

// NewDocumentSession wraps a history store for scripting.
func NewDocumentSession(store *history.Store[document.Document]) *DocumentSession {
	return &DocumentSession{store: store}
}

func (s *DocumentSession) PageCount() int { return s.store.Current().PageCount() }

func (s *DocumentSession) RotatePage(index int) {
	cur := s.store.Current()
	next := document.RotatePage(cur, index)
	if next.Version() == cur.Version() {
		// Out-of-range index; nothing to commit.
		return
	}
	s.store.Commit(next)
}

func (s *DocumentSession) Collage(columns, rows int) {
	s.store.Commit(document.Collage(s.store.Current(), columns, rows))
}

func (s *DocumentSession) Undo()         { s.store.Undo() }
func (s *DocumentSession) Redo()         { s.store.Redo() }
func (s *DocumentSession) CanUndo() bool { return s.store.CanUndo() }
func (s *DocumentSession) CanRedo() bool { return s.store.CanRedo() }
