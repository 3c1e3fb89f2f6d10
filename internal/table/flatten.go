package table

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Record is one decoded JSON object.
type Record = map[string]any

// FromRecords flattens JSON objects into a table.
//
// Nested objects become dotted columns ("person.key"). Columns appear in first-seen order across records,
// with keys of a single record visited in sorted order. Arrays are kept as compact JSON text and nulls
// become empty cells.
func FromRecords(records []Record) (*Table, error) {
	t := New()
	seen := make(map[string]int)
	flat := make([]map[string]string, len(records))

	for i, rec := range records {
		cells := make(map[string]string)
		var order []string
		if err := flatten("", rec, cells, &order); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		for _, c := range order {
			if _, ok := seen[c]; !ok {
				seen[c] = len(t.Columns)
				t.Columns = append(t.Columns, c)
			}
		}
		flat[i] = cells
	}

	for _, cells := range flat {
		row := make([]string, len(t.Columns))
		for c, v := range cells {
			row[seen[c]] = v
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

func flatten(prefix string, obj map[string]any, cells map[string]string, order *[]string) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}

		if nested, ok := obj[k].(map[string]any); ok {
			if err := flatten(name, nested, cells, order); err != nil {
				return err
			}
			continue
		}

		text, err := cellText(obj[k])
		if err != nil {
			return fmt.Errorf("column %s: %w", name, err)
		}
		cells[name] = text
		*order = append(*order, name)
	}
	return nil
}

func cellText(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
