package awaitio

import (
	"context"
	"fmt"
	"reflect"
)

var (
	awaitableType = reflect.TypeFor[Awaitable]()
	taskFuncType  = reflect.TypeFor[func(context.Context, *Task)]()
)

// IsAwaitable reports whether v can be awaited.
func IsAwaitable(v any) bool {
	_, ok := v.(Awaitable)
	return ok
}

// IsAwaitableFunc reports whether fn is a function whose last result
// is an Awaitable, such as Sleep.
func IsAwaitableFunc(fn any) bool {
	typ := reflect.TypeOf(fn)
	if typ == nil || typ.Kind() != reflect.Func || typ.NumOut() == 0 {
		return false
	}
	return typ.Out(typ.NumOut() - 1).Implements(awaitableType)
}

// IsTaskFunc reports whether fn can be used directly as a task body.
func IsTaskFunc(fn any) bool {
	typ := reflect.TypeOf(fn)
	return typ != nil && typ.ConvertibleTo(taskFuncType)
}

// Check is one line of an introspection report.
type Check struct {
	Expr  string
	Value bool
}

func (c Check) String() string {
	return fmt.Sprintf("%s=%t", c.Expr, c.Value)
}

// Inspect reports how v relates to the awaiting protocol. name is how
// v is spelled in the printed expressions.
func Inspect(name string, v any) []Check {
	_, isFunc := v.(AwaitableFunc)
	return []Check{
		{fmt.Sprintf("IsAwaitableFunc(%s)", name), IsAwaitableFunc(v)},
		{fmt.Sprintf("IsAwaitable(%s)", name), IsAwaitable(v)},
		{fmt.Sprintf("IsTaskFunc(%s)", name), IsTaskFunc(v)},
		{fmt.Sprintf("%s.(AwaitableFunc)", name), isFunc},
	}
}
