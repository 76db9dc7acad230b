package sandbox

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

const sourceName = "harness.js"

// harnessParams are the names the program and tests see the harness API under.
var harnessParams = []string{
	"console",
	guardName,
	"test",
	"assert",
	"assertEquals",
	"assertNotEquals",
	"assertTrue",
	"assertFalse",
}

// Runtime wraps a single-use goja VM with the harness bound in
type Runtime struct {
	vm       *goja.Runtime
	governor *Governor
	recorder *recorder
	rewrite  func(string) string

	// Captured before user code runs so reassigning globals has no effect
	json      goja.Value
	stringify goja.Callable
	errorCtor goja.Value
}

func newRuntime(limits Limits, governor *Governor, rec *recorder, rewrite func(string) string) (*Runtime, error) {
	vm := goja.New()
	if limits.MaxCallStack > 0 {
		vm.SetMaxCallStackSize(limits.MaxCallStack)
	}

	r := &Runtime{
		vm:       vm,
		governor: governor,
		recorder: rec,
		rewrite:  rewrite,
	}
	if r.rewrite == nil {
		r.rewrite = Instrument
	}

	if err := r.setupGlobals(); err != nil {
		return nil, fmt.Errorf("failed to setup globals: %w", err)
	}

	return r, nil
}

// setupGlobals removes host globals and captures the builtins the harness needs
func (r *Runtime) setupGlobals() error {
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := r.vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	r.json = r.vm.Get("JSON")
	if r.json == nil {
		return errors.New("JSON is not defined")
	}
	stringify, ok := goja.AssertFunction(r.json.ToObject(r.vm).Get("stringify"))
	if !ok {
		return errors.New("JSON.stringify is not callable")
	}
	r.stringify = stringify

	r.errorCtor = r.vm.Get("Error")
	if r.errorCtor == nil {
		return errors.New("Error is not defined")
	}

	return nil
}

// Execute instruments, compiles and runs the program followed by its tests
func (r *Runtime) Execute(req Request) error {
	prg, err := goja.Compile(sourceName, wrapSource(req, r.rewrite), true)
	if err != nil {
		return err
	}

	wrapper, err := r.vm.RunProgram(prg)
	if err != nil {
		return err
	}

	fn, ok := goja.AssertFunction(wrapper)
	if !ok {
		return errors.New("harness wrapper is not a function")
	}

	_, err = fn(goja.Undefined(), r.bindings()...)
	return err
}

// Interrupt aborts the running code. Safe to call from any goroutine.
func (r *Runtime) Interrupt(v interface{}) {
	r.vm.Interrupt(v)
}

// wrapSource joins program and tests, separated by a blank line, into the
// body of a function taking the harness API as parameters
func wrapSource(req Request, rewrite func(string) string) string {
	var sb strings.Builder
	sb.WriteString("(function (")
	sb.WriteString(strings.Join(harnessParams, ", "))
	sb.WriteString(") {\n")
	sb.WriteString(rewrite(req.Code))
	sb.WriteString("\n\n")
	sb.WriteString(rewrite(req.Tests))
	sb.WriteString("\n})")
	return sb.String()
}

// bindings must follow the order of harnessParams
func (r *Runtime) bindings() []goja.Value {
	console := r.vm.NewObject()
	console.Set("log", r.consoleLog)

	return []goja.Value{
		console,
		r.vm.ToValue(r.checkTimeout),
		r.vm.ToValue(r.test),
		r.vm.ToValue(r.assert),
		r.vm.ToValue(r.assertEquals),
		r.vm.ToValue(r.assertNotEquals),
		r.vm.ToValue(r.assertTrue),
		r.vm.ToValue(r.assertFalse),
	}
}

// describeError extracts the message and stack of an error that ended a run
func describeError(err error) (message, stack string) {
	var (
		syntaxErr    *goja.CompilerSyntaxError
		referenceErr *goja.CompilerReferenceError
		interrupted  *goja.InterruptedError
		overflow     *goja.StackOverflowError
		exception    *goja.Exception
	)

	switch {
	case errors.As(err, &syntaxErr):
		return syntaxErr.Message, syntaxErr.Error()
	case errors.As(err, &referenceErr):
		return referenceErr.Message, referenceErr.Error()
	case errors.As(err, &interrupted):
		switch v := interrupted.Value().(type) {
		case *goja.StackOverflowError:
			return stackOverflowMessage, v.String()
		case error:
			return guardMessage(v), interrupted.String()
		default:
			return fmt.Sprint(v), interrupted.String()
		}
	case errors.As(err, &overflow):
		return stackOverflowMessage, overflow.String()
	case errors.As(err, &exception):
		return valueMessage(exception.Value()), valueStack(exception)
	default:
		return err.Error(), ""
	}
}

// valueMessage mirrors `e instanceof Error ? e.message : String(e)`
func valueMessage(v goja.Value) string {
	if v == nil {
		return "undefined"
	}
	if obj, ok := v.(*goja.Object); ok && obj.ClassName() == "Error" {
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			return msg.String()
		}
		return ""
	}
	return stringOf(v)
}

func valueStack(ex *goja.Exception) string {
	if obj, ok := ex.Value().(*goja.Object); ok {
		if stack := obj.Get("stack"); stack != nil && !goja.IsUndefined(stack) {
			return stack.String()
		}
	}
	return ex.String()
}
