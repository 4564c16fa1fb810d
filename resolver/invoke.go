// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package resolver

import (
	"fmt"
	"reflect"
)

// Func is the direct-call registration convention: a registry leaf may be
// a Func, in which case Invoke calls it exactly as written, with no
// reflection involved. Registering curated endpoints (VirtualFile.*,
// RedirectedRun, the built-ins) this way keeps their argument handling
// exact and reviewable.
type Func func(args []any) (any, error)

// Invoke calls a resolved registry leaf with args. A Func is called
// directly; any other callable value is invoked via reflection, which lets
// the registry also expose plain Go functions (e.g. os.Chmod) without a
// hand-written Func wrapper for each one.
func Invoke(callable any, args []any) (any, error) {
	if fn, ok := callable.(Func); ok {
		return fn(args)
	}
	v := reflect.ValueOf(callable)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("resolver: %T is not callable", callable)
	}
	t := v.Type()
	if !t.IsVariadic() && len(args) != t.NumIn() {
		return nil, fmt.Errorf("resolver: want %d arguments, got %d", t.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		want := t.NumIn() - 1
		if !t.IsVariadic() || i < want {
			want = i
		}
		var pt reflect.Type
		if t.IsVariadic() && i >= t.NumIn()-1 {
			pt = t.In(t.NumIn() - 1).Elem()
		} else if i < t.NumIn() {
			pt = t.In(i)
		}
		in[i] = convertArg(a, pt)
		_ = want
	}
	out := v.Call(in)
	return splitResults(t, out)
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func convertArg(a any, want reflect.Type) reflect.Value {
	av := reflect.ValueOf(a)
	if want == nil || !av.IsValid() {
		return av
	}
	if av.Type().AssignableTo(want) {
		return av
	}
	if av.Type().ConvertibleTo(want) {
		return av.Convert(want)
	}
	return av
}

func splitResults(t reflect.Type, out []reflect.Value) (any, error) {
	n := len(out)
	if n == 0 {
		return nil, nil
	}
	lastIsErr := t.Out(n - 1).Implements(errorType)
	if !lastIsErr {
		if n == 1 {
			return out[0].Interface(), nil
		}
		vals := make([]any, n)
		for i := range out {
			vals[i] = out[i].Interface()
		}
		return vals, nil
	}
	var err error
	if e, _ := out[n-1].Interface().(error); e != nil {
		err = e
	}
	switch n - 1 {
	case 0:
		return nil, err
	case 1:
		return out[0].Interface(), err
	default:
		vals := make([]any, n-1)
		for i := 0; i < n-1; i++ {
			vals[i] = out[i].Interface()
		}
		return vals, err
	}
}
