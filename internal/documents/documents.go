// Package documents registers employee documents from local files and
// tracks their expiry. Only file metadata is recorded; contents never enter
// the record store.
package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/softrh/softrh/internal/hr"
	"github.com/softrh/softrh/internal/recordstore"
)

// MaxFileSize is the largest file Register accepts.
const MaxFileSize = 10 << 20

// ExpiringWithinDays marks a document as vencendo.
const ExpiringWithinDays = 30

var ErrFileTooLarge = errors.New("file exceeds 10 MiB")

type ExpiryStatus string

const (
	StatusValid    ExpiryStatus = "valido"
	StatusExpiring ExpiryStatus = "vencendo"
	StatusExpired  ExpiryStatus = "vencido"
)

// Expiry is a document's standing on a given day. DaysLeft is nil when the
// document has no expiry date.
type Expiry struct {
	Status   ExpiryStatus `json:"status"`
	DaysLeft *int         `json:"diasParaVencer,omitempty"`
}

// Status classifies doc relative to now.
func Status(doc hr.Document, now time.Time) Expiry {
	exp, ok := hr.ParseDate(doc.ExpiryDate)
	if !ok {
		return Expiry{Status: StatusValid}
	}
	days := hr.DaysBetween(now, exp)
	e := Expiry{Status: StatusValid, DaysLeft: &days}
	switch {
	case days < 0:
		e.Status = StatusExpired
	case days <= ExpiringWithinDays:
		e.Status = StatusExpiring
	}
	return e
}

type Service struct {
	store *recordstore.Store
	log   *slog.Logger
}

func New(store *recordstore.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, log: log.With("cmp", "documents")}
}

func (s *Service) validate(ctx context.Context, doc hr.Document) error {
	if strings.TrimSpace(doc.EmployeeID) == "" {
		return fmt.Errorf("%w: employee id is required", hr.ErrInvalid)
	}
	if !doc.Type.Valid() {
		return fmt.Errorf("%w: unknown document type %q", hr.ErrInvalid, doc.Type)
	}
	if doc.ExpiryDate != "" {
		if _, ok := hr.ParseDate(doc.ExpiryDate); !ok {
			return fmt.Errorf("%w: expiry date %q is not YYYY-MM-DD", hr.ErrInvalid, doc.ExpiryDate)
		}
	}
	if _, err := s.store.Employees().Get(ctx, doc.EmployeeID); err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			return fmt.Errorf("%w: unknown employee %q", hr.ErrInvalid, doc.EmployeeID)
		}
		return err
	}
	return nil
}

// Register records doc with the metadata of the file at path. An empty path
// registers the document without a file.
func (s *Service) Register(ctx context.Context, doc hr.Document, path string) (hr.Document, error) {
	if err := s.validate(ctx, doc); err != nil {
		return hr.Document{}, err
	}
	doc.File = nil
	if path != "" {
		info, err := s.inspect(path)
		if err != nil {
			return hr.Document{}, err
		}
		doc.File = info
	}
	return s.store.Documents().Add(ctx, doc)
}

func (s *Service) inspect(path string) (*hr.FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", hr.ErrInvalid, path)
	}
	if st.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, filepath.Base(path), st.Size())
	}

	mt, err := detectType(path)
	if err != nil {
		return nil, err
	}
	info := &hr.FileInfo{
		Name:       filepath.Base(path),
		Size:       st.Size(),
		MIMEType:   mt,
		UploadedAt: s.store.Now().UTC(),
	}
	if mt == "application/pdf" {
		n, err := countPages(path)
		if err != nil {
			s.log.Warn("counting pdf pages failed", "file", info.Name, "error", err)
		} else {
			info.Pages = n
		}
	}
	return info, nil
}

// detectType goes by extension first and sniffs the content otherwise.
func detectType(path string) (string, error) {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		if mt, _, err := mime.ParseMediaType(t); err == nil {
			return mt, nil
		}
		return t, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(head[:n]))
	return mt, nil
}

func countPages(path string) (n int, err error) {
	defer func() {
		// The parser panics on some malformed files.
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing pdf: %v", r)
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()
	return r.NumPage(), nil
}

// Entry pairs a stored document with its expiry standing.
type Entry struct {
	hr.Document
	Expiry Expiry `json:"validade"`
}

// Statuses lists every document with its expiry status as of now.
func (s *Service) Statuses(ctx context.Context) ([]Entry, error) {
	docs, err := s.store.Documents().List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.store.Now()
	out := make([]Entry, 0, len(docs))
	for _, d := range docs {
		out = append(out, Entry{Document: d, Expiry: Status(d, now)})
	}
	return out, nil
}
