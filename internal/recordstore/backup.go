package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/softrh/softrh/internal/hr"
)

type exportDoc struct {
	*document
	ExportedAt time.Time `json:"dataExportacao"`
	Version    string    `json:"versao"`
}

// Export returns the whole document as indented JSON with an export
// timestamp and format version added.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	d, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(exportDoc{
		document:   d,
		ExportedAt: s.clock.Now().UTC(),
		Version:    FormatVersion,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encoding export: %w", ErrPersist, err)
	}
	return out, nil
}

// requiredImportKeys must be present as arrays in every import.
var requiredImportKeys = []string{"funcionarios", "vagas", "treinamentos"}

// Import merges an exported document over the current one. Top-level keys
// present in data replace the current values wholesale; metadata is always
// recomputed. Malformed input changes nothing.
func (s *Store) Import(ctx context.Context, data []byte) error {
	var incoming map[string]json.RawMessage
	if err := json.Unmarshal(data, &incoming); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}
	if incoming == nil {
		return fmt.Errorf("%w: not a JSON object", ErrInvalidImport)
	}
	for _, k := range requiredImportKeys {
		raw, ok := incoming[k]
		if !ok {
			return fmt.Errorf("%w: missing %q", ErrInvalidImport, k)
		}
		if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '[' {
			return fmt.Errorf("%w: %q is not an array", ErrInvalidImport, k)
		}
	}
	delete(incoming, "metadata")

	err := s.mutate(ctx, func(d *document, now time.Time) error {
		cur, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPersist, err)
		}
		merged := map[string]json.RawMessage{}
		if err := json.Unmarshal(cur, &merged); err != nil {
			return fmt.Errorf("%w: %w", ErrPersist, err)
		}
		for k, v := range incoming {
			merged[k] = v
		}
		raw, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidImport, err)
		}
		var next document
		if err := json.Unmarshal(raw, &next); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidImport, err)
		}
		if err := next.assignMissingIDs(now); err != nil {
			return err
		}
		*d = next
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(ctx, Change{Collection: "*", Action: ActionImport, At: s.clock.Now().UTC()})
	return nil
}

// assignMissingIDs gives imported records without an id a fresh one.
func (d *document) assignMissingIDs(now time.Time) error {
	fill := func(r *hr.Record) error {
		if r.ID != "" {
			return nil
		}
		id, err := newID()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPersist, err)
		}
		r.ID = id
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = now
		}
		return nil
	}
	for i := range d.Employees {
		if err := fill(d.Employees[i].Base()); err != nil {
			return err
		}
	}
	for i := range d.Vacancies {
		if err := fill(d.Vacancies[i].Base()); err != nil {
			return err
		}
		if err := vacancyDefaults(&d.Vacancies[i], now); err != nil {
			return err
		}
	}
	for i := range d.Trainings {
		if err := fill(d.Trainings[i].Base()); err != nil {
			return err
		}
	}
	for i := range d.Reviews {
		if err := fill(d.Reviews[i].Base()); err != nil {
			return err
		}
	}
	for i := range d.Documents {
		if err := fill(d.Documents[i].Base()); err != nil {
			return err
		}
	}
	for i := range d.Vacations {
		if err := fill(d.Vacations[i].Base()); err != nil {
			return err
		}
	}
	return nil
}

// Reset replaces the document with a fresh empty one in a single write.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	now := s.stamp()
	raw, err := json.Marshal(skeleton(now))
	if err == nil {
		err = s.kv.Put(ctx, s.key, raw)
	}
	s.mu.Unlock()
	if err != nil {
		s.log.Error("document reset failed", "key", s.key, "error", err)
		return fmt.Errorf("%w: resetting %s: %w", ErrPersist, s.key, err)
	}
	s.notify(ctx, Change{Collection: "*", Action: ActionReset, At: now})
	return nil
}

// BackupFileName is the suggested name for an export taken at now.
func BackupFileName(now time.Time) string {
	return "backup-soft-rh-" + now.UTC().Format(hr.DateLayout) + ".json"
}
