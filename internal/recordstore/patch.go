package recordstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// applyPatch overlays p on the JSON form of cur and decodes the result back.
// Keys unknown to T or values of the wrong shape fail with ErrInvalidPatch.
func applyPatch[T any](cur T, p Patch, protected ...string) (T, error) {
	var zero T

	raw, err := json.Marshal(cur)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	for k, v := range p {
		if slices.Contains(protected, k) {
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return zero, fmt.Errorf("%w: field %q: %w", ErrInvalidPatch, k, err)
		}
		fields[k] = b
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrInvalidPatch, err)
	}
	var next T
	dec := json.NewDecoder(bytes.NewReader(merged))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&next); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrInvalidPatch, err)
	}
	return next, nil
}
