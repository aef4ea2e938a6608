package deckhand

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	doneType   = reflect.TypeFor[Done]()
	errorType  = reflect.TypeFor[error]()
	futureType = reflect.TypeFor[Future]()
)

// holder carries the live suite instance between the setup beforeEach
// and the teardown afterEach. Bodies bound to it observe whichever
// instance is current when they run, and fail cleanly when none is.
type holder struct {
	instance any
}

// classify derives the completion style and trailing parameter type of
// a test or hook function from its signature. skip is the number of
// leading inputs to ignore (1 for the receiver of a reflect.Method).
// A leading Done parameter declares callback style; a single Future
// return declares future style; an error return is allowed for sync
// bodies. Parameterized methods take exactly one trailing value.
func classify(ft reflect.Type, skip int, parameterized bool) (Style, reflect.Type, error) {
	if ft.IsVariadic() {
		return 0, nil, errors.New("variadic signatures are not supported")
	}

	in := make([]reflect.Type, 0, ft.NumIn()-skip)
	for i := skip; i < ft.NumIn(); i++ {
		in = append(in, ft.In(i))
	}

	style := StyleSync
	if len(in) > 0 && in[0] == doneType {
		style = StyleCallback
		in = in[1:]
	}

	var paramType reflect.Type
	switch {
	case parameterized && len(in) == 1:
		paramType = in[0]
	case !parameterized && len(in) == 0:
		// nothing to bind
	case parameterized:
		return 0, nil, fmt.Errorf("parameterized method takes %d trailing values, want 1", len(in))
	default:
		return 0, nil, fmt.Errorf("method takes %d values, want none", len(in))
	}

	switch ft.NumOut() {
	case 0:
	case 1:
		out := ft.Out(0)
		switch {
		case style == StyleCallback:
			return 0, nil, errors.New("callback-style body must not return a value")
		case out == errorType:
			// sync with error result
		case out == futureType || out.Implements(futureType):
			style = StyleFuture
		default:
			return 0, nil, fmt.Errorf("unsupported return type %s", out)
		}
	default:
		return 0, nil, errors.New("at most one return value is supported")
	}

	return style, paramType, nil
}

// bindMethod builds the Body for a test method or instance hook. The
// receiver is resolved through hold at run time, so each invocation
// sees the instance created by the setup step for its test. param, if
// non-nil, is appended as the trailing argument.
func bindMethod(hold *holder, m reflect.Method, param *Case, parameterized bool) (Body, error) {
	style, paramType, err := classify(m.Type, 1, parameterized)
	if err != nil {
		return Body{}, fmt.Errorf("%s: %w", m.Name, err)
	}

	var paramValue reflect.Value
	if parameterized {
		paramValue, err = caseValue(param.value, paramType)
		if err != nil {
			return Body{}, fmt.Errorf("%s: %w", m.Name, err)
		}
	}

	invoke := func(lead ...reflect.Value) []reflect.Value {
		args := make([]reflect.Value, 0, 2+len(lead))
		args = append(args, reflect.ValueOf(hold.instance))
		args = append(args, lead...)
		if parameterized {
			args = append(args, paramValue)
		}
		return m.Func.Call(args)
	}

	return buildBody(style, func() error {
		if hold.instance == nil {
			return errNoInstance
		}
		return nil
	}, invoke), nil
}

// bindFunc builds the Body for a suite-level hook function, which has
// no receiver and no parameter value.
func bindFunc(fn any) (Body, error) {
	fv := reflect.ValueOf(fn)
	if !fv.IsValid() || fv.Kind() != reflect.Func {
		return Body{}, fmt.Errorf("hook is %T, want a function", fn)
	}
	style, _, err := classify(fv.Type(), 0, false)
	if err != nil {
		return Body{}, err
	}
	invoke := func(lead ...reflect.Value) []reflect.Value {
		return fv.Call(lead)
	}
	return buildBody(style, func() error { return nil }, invoke), nil
}

// buildBody wraps an invoker into the Body variant matching style.
// guard runs first and aborts the body when it fails.
func buildBody(style Style, guard func() error, invoke func(lead ...reflect.Value) []reflect.Value) Body {
	switch style {
	case StyleCallback:
		return Body{Callback: func(done Done) {
			if err := guard(); err != nil {
				done(err)
				return
			}
			invoke(reflect.ValueOf(done))
		}}
	case StyleFuture:
		return Body{Future: func() Future {
			if err := guard(); err != nil {
				return settled{err: err}
			}
			out := invoke()
			f, _ := out[0].Interface().(Future)
			if f == nil {
				return settled{}
			}
			return f
		}}
	default:
		return Body{Sync: func() error {
			if err := guard(); err != nil {
				return err
			}
			out := invoke()
			if len(out) == 1 {
				err, _ := out[0].Interface().(error)
				return err
			}
			return nil
		}}
	}
}

// caseValue converts a declared case value into the method's parameter
// type. nil maps to the type's zero value.
func caseValue(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("case value %T is not assignable to parameter type %s", v, t)
	}
	return rv, nil
}
