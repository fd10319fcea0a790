package vm

import (
	"fmt"
	"strconv"
	"strings"

	"loxvm/bytecode"
)

// Stringify renders a Value the way `print` and string-coercing `+`
// do: numbers without a trailing ".0" when they're integral, bare text
// for strings (no surrounding quotes), and a descriptive tag for the remaining heap kinds.
func (gc *GC) Stringify(v bytecode.Value) string {
	switch v.Kind {
	case bytecode.KindNil:
		return "nil"
	case bytecode.KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case bytecode.KindNumber:
		return formatNumber(v.Number)
	case bytecode.KindNative:
		return "<native fn>"
	case bytecode.KindString:
		return gc.String(v.Handle).Chars
	case bytecode.KindFunction:
		return "<fn " + gc.functionName(v.Handle) + ">"
	case bytecode.KindClosure:
		fn := gc.Closure(v.Handle).FunctionHandle
		return "<fn " + gc.functionName(fn) + ">"
	case bytecode.KindClass:
		return gc.String(gc.Class(v.Handle).NameHandle).Chars
	case bytecode.KindInstance:
		inst := gc.Instance(v.Handle)
		return gc.String(gc.Class(inst.ClassHandle).NameHandle).Chars + " instance"
	case bytecode.KindBoundMethod:
		bm := gc.BoundMethod(v.Handle)
		fn := gc.Closure(bm.MethodHandle).FunctionHandle
		return "<fn " + gc.functionName(fn) + ">"
	case bytecode.KindArray:
		arr := gc.Array(v.Handle)
		parts := make([]string, len(arr.Elements))
		for i, e := range arr.Elements {
			parts[i] = gc.Stringify(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "<unknown>"
	}
}

func (gc *GC) functionName(h int32) string {
	fn := gc.Function(h)
	if fn.NameHandle < 0 {
		return "<script>"
	}
	return gc.String(fn.NameHandle).Chars
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// ValueStringer returns a bytecode.ValueStringer closure bound to this
// GC, for feeding the disassembler.
func (gc *GC) ValueStringer() bytecode.ValueStringer {
	return func(v bytecode.Value) string {
		return fmt.Sprintf("%s:%s", v.Kind, gc.Stringify(v))
	}
}
