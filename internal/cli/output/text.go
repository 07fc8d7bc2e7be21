package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// TextFormatter prints objects as aligned "key: value" lines. Nested
// objects are flattened with dotted keys.
type TextFormatter struct{}

// Format formats data as text.
func (f *TextFormatter) Format(w io.Writer, data any) error {
	doc, err := toGeneric(data)
	if err != nil {
		return err
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		_, err := fmt.Fprintln(w, formatScalar(doc))
		return err
	}

	flat := make(map[string]string)
	flatten("", obj, flat)

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(tw, "%s:\t%s\n", k, flat[k])
	}
	return tw.Flush()
}

func flatten(prefix string, obj map[string]any, out map[string]string) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = formatScalar(v)
	}
}

func formatScalar(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = formatScalar(e)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(x)
	}
}
