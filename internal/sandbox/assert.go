package sandbox

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

var errNotCallable = errors.New("test body is not a function")

// test runs body and records a pass or a fail. Failures thrown by body stay
// local, stack overflow included; deadline and iteration aborts are re-raised.
func (r *Runtime) test(call goja.FunctionCall) goja.Value {
	description := call.Argument(0).String()
	index := r.recorder.beginTest()

	err := r.invoke(call.Argument(1))
	if err == nil {
		r.recorder.pass(index, description)
		return goja.Undefined()
	}
	if r.reraise(err) {
		return goja.Undefined()
	}

	// The overflowing frames have unwound by the time body returns
	message := stackOverflowMessage
	var overflow *goja.StackOverflowError
	if !errors.As(err, &overflow) {
		message, _ = describeError(err)
	}
	r.recorder.fail(index, description, message)
	return goja.Undefined()
}

func (r *Runtime) invoke(body goja.Value) error {
	fn, ok := goja.AssertFunction(body)
	if !ok {
		return errNotCallable
	}
	_, err := fn(goja.Undefined())
	return err
}

// reraise re-arms a deadline or iteration abort that surfaced inside a
// nested call. The VM raises it again on its next instruction.
func (r *Runtime) reraise(err error) bool {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		r.vm.Interrupt(interrupted.Value())
		return true
	}
	return false
}

// checkTimeout is the guard injected at the top of loop bodies
func (r *Runtime) checkTimeout(goja.FunctionCall) goja.Value {
	if err := r.governor.Check(); err != nil {
		if errors.Is(err, ErrIterationLimit) {
			r.vm.Interrupt(err)
		}
		r.throw(guardMessage(err))
	}
	return goja.Undefined()
}

func (r *Runtime) assert(call goja.FunctionCall) goja.Value {
	if !call.Argument(0).ToBoolean() {
		r.reject(call.Argument(1), func() string { return "Assertion failed" })
	}
	return goja.Undefined()
}

func (r *Runtime) assertEquals(call goja.FunctionCall) goja.Value {
	actual, expected := call.Argument(0), call.Argument(1)
	if !actual.StrictEquals(expected) {
		r.reject(call.Argument(2), func() string {
			return fmt.Sprintf("Expected %s but got %s", r.toJSON(expected, 0), r.toJSON(actual, 0))
		})
	}
	return goja.Undefined()
}

func (r *Runtime) assertNotEquals(call goja.FunctionCall) goja.Value {
	actual, expected := call.Argument(0), call.Argument(1)
	if actual.StrictEquals(expected) {
		r.reject(call.Argument(2), func() string {
			return fmt.Sprintf("Expected values to be different, but both are %s", r.toJSON(actual, 0))
		})
	}
	return goja.Undefined()
}

func (r *Runtime) assertTrue(call goja.FunctionCall) goja.Value {
	condition := call.Argument(0)
	if !condition.StrictEquals(r.vm.ToValue(true)) {
		r.reject(call.Argument(1), func() string {
			return "Expected true but got " + stringOf(condition)
		})
	}
	return goja.Undefined()
}

func (r *Runtime) assertFalse(call goja.FunctionCall) goja.Value {
	condition := call.Argument(0)
	if !condition.StrictEquals(r.vm.ToValue(false)) {
		r.reject(call.Argument(1), func() string {
			return "Expected false but got " + stringOf(condition)
		})
	}
	return goja.Undefined()
}

// consoleLog records its arguments as a single log line
func (r *Runtime) consoleLog(call goja.FunctionCall) goja.Value {
	parts := make([]string, len(call.Arguments))
	for i, arg := range call.Arguments {
		parts[i] = r.format(arg)
	}
	r.recorder.log(strings.Join(parts, " "))
	return goja.Undefined()
}

func (r *Runtime) format(v goja.Value) string {
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return v.String()
	}
	if obj, ok := v.(*goja.Object); ok {
		if _, callable := goja.AssertFunction(obj); !callable {
			return r.toJSON(obj, 2)
		}
	}
	return stringOf(v)
}

// stringOf mirrors String(v). goja's Value.String gives only a symbol's
// description.
func stringOf(v goja.Value) string {
	if sym, ok := v.(*goja.Symbol); ok {
		return "Symbol(" + sym.String() + ")"
	}
	return v.String()
}

// toJSON serializes with the runtime's own JSON.stringify, falling back to
// string coercion when it throws
func (r *Runtime) toJSON(v goja.Value, indent int) string {
	args := []goja.Value{v}
	if indent > 0 {
		args = append(args, goja.Null(), r.vm.ToValue(indent))
	}

	out, err := r.stringify(r.json, args...)
	if err != nil {
		if r.reraise(err) {
			return ""
		}
		return stringOf(v)
	}
	return out.String()
}

// reject throws the caller's message if truthy, the default otherwise
func (r *Runtime) reject(message goja.Value, fallback func() string) {
	if message.ToBoolean() {
		r.throw(message.String())
	}
	r.throw(fallback())
}

// throw raises a JavaScript Error built with the captured constructor
func (r *Runtime) throw(message string) {
	obj, err := r.vm.New(r.errorCtor, r.vm.ToValue(message))
	if err != nil {
		panic(r.vm.NewGoError(err))
	}
	panic(obj)
}
