package ops

import (
	"fmt"
	"time"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ctyToGo converts a decoded argument value into a plain Go value suitable
// for storing in a blob. Numbers land as int64 when they are whole, float64
// otherwise.
func ctyToGo(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		var i int64
		if err := gocty.FromCtyValue(v, &i); err == nil {
			return i, nil
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, err
		}
		return f, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		var out []any
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			gv, err := ctyToGo(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			kv, ev := it.Element()
			gv, err := ctyToGo(ev)
			if err != nil {
				return nil, err
			}
			out[kv.AsString()] = gv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported argument type %s", ty.FriendlyName())
	}
}

func stringArg(args map[string]cty.Value, name string) (string, bool, error) {
	v, ok := args[name]
	if !ok || v.IsNull() {
		return "", false, nil
	}
	conv, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", false, fmt.Errorf("argument %q: %w", name, err)
	}
	return conv.AsString(), true, nil
}

func intArg(args map[string]cty.Value, name string) (int64, bool, error) {
	v, ok := args[name]
	if !ok || v.IsNull() {
		return 0, false, nil
	}
	var i int64
	if err := gocty.FromCtyValue(v, &i); err != nil {
		return 0, false, fmt.Errorf("argument %q: %w", name, err)
	}
	return i, true, nil
}

func durationArg(args map[string]cty.Value, name string) (time.Duration, bool, error) {
	s, ok, err := stringArg(args, name)
	if err != nil || !ok {
		return 0, ok, err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false, fmt.Errorf("argument %q: %w", name, err)
	}
	return d, true, nil
}
