package scripting

import (
	"context"
	"errors"

	"github.com/dop251/goja"
)

// GojaEngine implements Engine over an embedded goja JavaScript runtime.
type GojaEngine struct {
	vm *goja.Runtime
}

// NewEngine returns an engine with no session registered.
func NewEngine() *GojaEngine {
	return &GojaEngine{vm: goja.New()}
}

var errNoSession = errors.New("scripting: no session registered")

func (e *GojaEngine) Execute(ctx context.Context, script string) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := e.vm.RunString(script)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if cause := interrupted.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	return val.Export(), nil
}

// RegisterSession binds the session's operations as global functions:
//
//	pageCount()          -> number
//	rotatePage(i)
//	collage(cols, rows)
//	undo() / redo()
//	canUndo() / canRedo() -> bool
func (e *GojaEngine) RegisterSession(session SessionDOM) error {
	if session == nil {
		return errNoSession
	}

	bindings := map[string]interface{}{
		"pageCount": func(goja.FunctionCall) goja.Value {
			return e.vm.ToValue(session.PageCount())
		},
		"rotatePage": func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) > 0 {
				session.RotatePage(int(call.Arguments[0].ToInteger()))
			}
			return goja.Undefined()
		},
		"collage": func(call goja.FunctionCall) goja.Value {
			cols, rows := 0, 0
			if len(call.Arguments) > 0 {
				cols = int(call.Arguments[0].ToInteger())
			}
			if len(call.Arguments) > 1 {
				rows = int(call.Arguments[1].ToInteger())
			}
			session.Collage(cols, rows)
			return goja.Undefined()
		},
		"undo": func(goja.FunctionCall) goja.Value {
			session.Undo()
			return goja.Undefined()
		},
		"redo": func(goja.FunctionCall) goja.Value {
			session.Redo()
			return goja.Undefined()
		},
		"canUndo": func(goja.FunctionCall) goja.Value {
			return e.vm.ToValue(session.CanUndo())
		},
		"canRedo": func(goja.FunctionCall) goja.Value {
			return e.vm.ToValue(session.CanRedo())
		},
	}
	for name, fn := range bindings {
		if err := e.vm.Set(name, fn); err != nil {
			return err
		}
	}
	return nil
}
