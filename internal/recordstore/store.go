// Package recordstore keeps every HR collection in one JSON document under a
// single key of a storage.KV backend. All mutations are whole-document
// read-modify-writes; metadata is recomputed inside each write.
package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/softrh/softrh/internal/hr"
	"github.com/softrh/softrh/internal/storage"
)

// DefaultKey is the storage key the document lives under.
const DefaultKey = "soft_rh_db"

// FormatVersion is stamped on configuration and exports.
const FormatVersion = "1.0.0"

var (
	ErrNotFound      = errors.New("record not found")
	ErrPersist       = errors.New("persisting document failed")
	ErrInvalidPatch  = errors.New("invalid patch")
	ErrInvalidImport = errors.New("invalid import")
	ErrInvalidQuery  = errors.New("invalid query")
)

// Patch is a shallow update keyed by JSON field name.
type Patch map[string]any

type document struct {
	Employees     []hr.Employee        `json:"funcionarios"`
	Vacancies     []hr.JobOpening      `json:"vagas"`
	Trainings     []hr.Training        `json:"treinamentos"`
	Reviews       []hr.Review          `json:"avaliacoes"`
	Documents     []hr.Document        `json:"documentos"`
	Vacations     []hr.VacationRequest `json:"ferias"`
	Configuration hr.Configuration     `json:"configuracoes"`
	Metadata      hr.Metadata          `json:"metadata"`
}

func skeleton(now time.Time) *document {
	d := &document{
		Configuration: hr.Configuration{
			CompanyName:  "Soft RH",
			ContactEmail: "contato@softrh.com.br",
			Version:      FormatVersion,
			CreatedAt:    now,
		},
	}
	d.normalize()
	d.refreshMetadata(now)
	return d
}

// normalize replaces nil collections so they encode as [].
func (d *document) normalize() {
	if d.Employees == nil {
		d.Employees = []hr.Employee{}
	}
	if d.Vacancies == nil {
		d.Vacancies = []hr.JobOpening{}
	}
	if d.Trainings == nil {
		d.Trainings = []hr.Training{}
	}
	if d.Reviews == nil {
		d.Reviews = []hr.Review{}
	}
	if d.Documents == nil {
		d.Documents = []hr.Document{}
	}
	if d.Vacations == nil {
		d.Vacations = []hr.VacationRequest{}
	}
}

func (d *document) refreshMetadata(now time.Time) {
	d.Metadata = hr.Metadata{
		LastUpdated:    now,
		TotalEmployees: len(d.Employees),
		TotalVacancies: len(d.Vacancies),
		TotalTrainings: len(d.Trainings),
		TotalReviews:   len(d.Reviews),
		TotalDocuments: len(d.Documents),
		TotalVacations: len(d.Vacations),
	}
}

// Store is the single authority over the persisted document.
type Store struct {
	kv    storage.KV
	key   string
	clock hr.Clock
	log   *slog.Logger

	mu        sync.Mutex // serializes writers in this process
	lastStamp time.Time

	lmu       sync.RWMutex
	listeners []Listener

	employees *Collection[hr.Employee, *hr.Employee]
	vacancies *Collection[hr.JobOpening, *hr.JobOpening]
	trainings *Collection[hr.Training, *hr.Training]
	reviews   *Collection[hr.Review, *hr.Review]
	documents *Collection[hr.Document, *hr.Document]
	vacations *Collection[hr.VacationRequest, *hr.VacationRequest]
}

type Option func(*Store)

// WithKey overrides the storage key (default "soft_rh_db").
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithClock sets the clock used for timestamps and date-relative queries.
func WithClock(c hr.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithListener registers l before the store is first used.
func WithListener(l Listener) Option {
	return func(s *Store) { s.listeners = append(s.listeners, l) }
}

// New wires a store to kv and writes the empty document if none exists yet.
func New(ctx context.Context, kv storage.KV, opts ...Option) (*Store, error) {
	s := &Store{
		kv:    kv,
		key:   DefaultKey,
		clock: hr.SystemClock{},
		log:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}

	s.employees = &Collection[hr.Employee, *hr.Employee]{
		s: s, name: "funcionarios",
		items: func(d *document) *[]hr.Employee { return &d.Employees },
	}
	s.vacancies = &Collection[hr.JobOpening, *hr.JobOpening]{
		s: s, name: "vagas",
		items:    func(d *document) *[]hr.JobOpening { return &d.Vacancies },
		defaults: vacancyDefaults,
	}
	s.trainings = &Collection[hr.Training, *hr.Training]{
		s: s, name: "treinamentos",
		items:    func(d *document) *[]hr.Training { return &d.Trainings },
		defaults: trainingDefaults,
	}
	s.reviews = &Collection[hr.Review, *hr.Review]{
		s: s, name: "avaliacoes",
		items: func(d *document) *[]hr.Review { return &d.Reviews },
	}
	s.documents = &Collection[hr.Document, *hr.Document]{
		s: s, name: "documentos",
		items:    func(d *document) *[]hr.Document { return &d.Documents },
		defaults: documentDefaults,
	}
	s.vacations = &Collection[hr.VacationRequest, *hr.VacationRequest]{
		s: s, name: "ferias",
		items:    func(d *document) *[]hr.VacationRequest { return &d.Vacations },
		defaults: vacationDefaults,
	}

	if err := s.initialize(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func trainingDefaults(t *hr.Training, _ time.Time) error {
	if t.Participants == nil {
		t.Participants = []string{}
	}
	return nil
}

func documentDefaults(doc *hr.Document, _ time.Time) error {
	if doc.Status == "" {
		doc.Status = "ativo"
	}
	return nil
}

func vacationDefaults(v *hr.VacationRequest, _ time.Time) error {
	if v.Status == "" {
		v.Status = hr.VacationPending
	}
	return nil
}

func vacancyDefaults(v *hr.JobOpening, now time.Time) error {
	if v.Status == "" {
		v.Status = hr.VacancyOpen
	}
	if v.Candidates == nil {
		v.Candidates = []hr.Candidate{}
	}
	for i := range v.Candidates {
		c := &v.Candidates[i]
		if c.ID == "" {
			id, err := newID()
			if err != nil {
				return fmt.Errorf("%w: %w", ErrPersist, err)
			}
			c.ID = id
		}
		if c.Status == "" {
			c.Status = hr.CandidateInReview
		}
		if c.RegisteredAt.IsZero() {
			c.RegisteredAt = now
		}
	}
	return nil
}

func (s *Store) Employees() *Collection[hr.Employee, *hr.Employee]               { return s.employees }
func (s *Store) Vacancies() *Collection[hr.JobOpening, *hr.JobOpening]           { return s.vacancies }
func (s *Store) Trainings() *Collection[hr.Training, *hr.Training]               { return s.trainings }
func (s *Store) Reviews() *Collection[hr.Review, *hr.Review]                     { return s.reviews }
func (s *Store) Documents() *Collection[hr.Document, *hr.Document]               { return s.documents }
func (s *Store) Vacations() *Collection[hr.VacationRequest, *hr.VacationRequest] { return s.vacations }

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.clock.Now()
}

// initialize writes the skeleton when the key is absent.
func (s *Store) initialize(ctx context.Context) error {
	_, err := s.kv.Get(ctx, s.key)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: reading %s: %w", ErrPersist, s.key, err)
	}
	return s.mutate(ctx, func(*document, time.Time) error { return nil })
}

// stamp returns the write timestamp, never earlier than the previous one.
// Callers hold s.mu.
func (s *Store) stamp() time.Time {
	now := s.clock.Now().UTC()
	if now.Before(s.lastStamp) {
		now = s.lastStamp
	}
	s.lastStamp = now
	return now
}

func decodeDocument(raw []byte) (*document, error) {
	var d document
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	d.normalize()
	return &d, nil
}

// load reads the current document. An absent key yields the skeleton.
func (s *Store) load(ctx context.Context) (*document, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return skeleton(s.clock.Now().UTC()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrPersist, s.key, err)
	}
	d, err := decodeDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", ErrPersist, s.key, err)
	}
	return d, nil
}

// abort carries an error raised by a mutation callback through the backend,
// so it is not mistaken for a storage failure.
type abort struct{ err error }

func (a abort) Error() string { return a.err.Error() }
func (a abort) Unwrap() error { return a.err }

// mutate runs fn on a fresh copy of the document and writes the result back
// in one backend Update. Nothing is written when fn fails.
func (s *Store) mutate(ctx context.Context, fn func(d *document, now time.Time) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.stamp()
	err := s.kv.Update(ctx, s.key, func(cur []byte, exists bool) ([]byte, error) {
		var d *document
		if exists {
			var err error
			if d, err = decodeDocument(cur); err != nil {
				return nil, fmt.Errorf("decoding %s: %w", s.key, err)
			}
		} else {
			d = skeleton(now)
		}
		if err := fn(d, now); err != nil {
			return nil, abort{err}
		}
		d.normalize()
		d.refreshMetadata(now)
		return json.Marshal(d)
	})
	if err == nil {
		return nil
	}
	var ab abort
	if errors.As(err, &ab) {
		return ab.err
	}
	s.log.Error("document write failed", "key", s.key, "error", err)
	return fmt.Errorf("%w: %w", ErrPersist, err)
}

// Metadata returns the counts cached in the document.
func (s *Store) Metadata(ctx context.Context) (hr.Metadata, error) {
	d, err := s.load(ctx)
	if err != nil {
		return hr.Metadata{}, err
	}
	return d.Metadata, nil
}

// Footprint reports the document's stored size and last write time.
func (s *Store) Footprint(ctx context.Context) (storage.Entry, error) {
	entries, err := s.kv.Keys(ctx)
	if err != nil {
		return storage.Entry{}, fmt.Errorf("%w: listing keys: %w", ErrPersist, err)
	}
	for _, e := range entries {
		if e.Key == s.key {
			return e, nil
		}
	}
	return storage.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, s.key)
}

// newID returns a UUIDv7: a millisecond timestamp prefix followed by random
// bits, so ids sort by creation time and do not collide within a millisecond.
func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating id: %w", err)
	}
	return id.String(), nil
}
