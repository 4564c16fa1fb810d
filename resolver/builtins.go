// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package resolver

import (
	"fmt"
	"math"
	"reflect"
)

// Builtins returns the process-level built-ins available without any
// module prefix, mirroring the source's special case for Python's
// __builtins__ (len, pow, etc.) in Connection._eval. Both are registered
// in the direct-call convention (see Invoke) so their numeric handling
// doesn't depend on reflection's type-conversion rules.
func Builtins() map[string]any {
	return map[string]any{
		"len": Func(biLen),
		"pow": Func(biPow),
	}
}

func biLen(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("len: want 1 argument, got %d", len(args))
	}
	v := reflect.ValueOf(args[0])
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String, reflect.Chan:
		return v.Len(), nil
	default:
		return nil, fmt.Errorf("len: object of type %T has no length", args[0])
	}
}

func biPow(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("pow: want 2 arguments, got %d", len(args))
	}
	bi, baseIsInt := asInt(args[0])
	ei, expIsInt := asInt(args[1])
	if baseIsInt && expIsInt && ei >= 0 {
		result := int64(1)
		for i := int64(0); i < ei; i++ {
			result *= bi
		}
		return result, nil
	}
	bf, ok1 := asFloat(args[0])
	ef, ok2 := asFloat(args[1])
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("pow: non-numeric argument")
	}
	return math.Pow(bf, ef), nil
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
