// Package shape normalizes the structural quirks of the Senate open-data API.
// That API serializes a legacy XML document as JSON, and a list with exactly
// one element comes back as a bare object instead of an array. Every
// list-shaped field crossing the adapter boundary goes through this package
// so the rest of the code only ever sees real slices.
package shape

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// OneOrMany is a slice that unmarshals from either a JSON array or a single
// JSON value. null and absent fields decode to an empty slice.
type OneOrMany[T any] []T

func (o *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = nil
		return nil
	}
	if data[0] == '[' {
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*o = many
		return nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*o = []T{one}
	return nil
}

// EnsureArray is the runtime counterpart of OneOrMany for values that were
// already decoded: nil becomes an empty slice, a slice passes through, and
// anything else becomes a single-element slice.
func EnsureArray(v any) []any {
	switch t := v.(type) {
	case nil:
		return []any{}
	case []any:
		return t
	default:
		return []any{t}
	}
}
