package variant

import (
	"github.com/wippyai/oleauto/abi"
)

// Retain adds a reference count for the object v refers to, if any.
func Retain(env *abi.Env, v Value) {
	if p := reference(v); p != abi.Null {
		env.AddRef(p)
	}
}

// Release drops the reference count v owns, if any. Values returned by Take
// and by dispatch calls own their references.
func Release(env *abi.Env, v Value) {
	if p := reference(v); p != abi.Null {
		env.Release(p)
	}
}

func reference(v Value) abi.Ptr {
	switch x := v.(type) {
	case Dispatch:
		return abi.Ptr(x)
	case Unknown:
		return abi.Ptr(x)
	}
	return abi.Null
}
