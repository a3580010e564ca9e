package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"finance-tracker/internal/export"
	"finance-tracker/internal/policy"
	"finance-tracker/internal/storage"
)

// Archive describes a stored report.
type Archive struct {
	Key          string     `json:"key"`
	Location     string     `json:"location,omitempty"`
	URL          string     `json:"url,omitempty"`
	Size         int64      `json:"size"`
	LastModified *time.Time `json:"lastModified,omitempty"`
}

// ExportService renders transaction reports and archives them to object storage.
type ExportService interface {
	Render(ctx context.Context, p policy.Principal, filter ListFilter, format export.Format, w io.Writer) error
	Archive(ctx context.Context, p policy.Principal, filter ListFilter, format export.Format) (*Archive, error)
	ListArchives(ctx context.Context, p policy.Principal) ([]Archive, error)
}

// ExportOptions controls where archived reports land.
type ExportOptions struct {
	KeyPrefix  string
	PresignTTL time.Duration
}

type exportService struct {
	txs     TransactionService
	storage storage.Service
	opts    ExportOptions
	now     func() time.Time
	logger  *logrus.Entry
}

// NewExportService wires report rendering. store may be nil, in which case
// archive operations return ErrStorageUnavailable.
func NewExportService(txs TransactionService, store storage.Service, opts ExportOptions, logger *logrus.Logger) ExportService {
	if logger == nil {
		logger = logrus.New()
	}
	opts.KeyPrefix = strings.Trim(opts.KeyPrefix, "/")
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "exports"
	}
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = 15 * time.Minute
	}
	return &exportService{
		txs:     txs,
		storage: store,
		opts:    opts,
		now:     time.Now,
		logger:  logger.WithField("component", "exports"),
	}
}

func (s *exportService) Render(ctx context.Context, p policy.Principal, filter ListFilter, format export.Format, w io.Writer) error {
	rows, err := s.txs.List(ctx, p, filter)
	if err != nil {
		return err
	}
	return export.Write(w, format, rows)
}

func (s *exportService) Archive(ctx context.Context, p policy.Principal, filter ListFilter, format export.Format) (*Archive, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}

	var buf bytes.Buffer
	if err := s.Render(ctx, p, filter, format, &buf); err != nil {
		return nil, err
	}

	size := int64(buf.Len())
	key := s.objectKey(p.UserID, format)
	location, err := s.storage.Upload(ctx, key, format.ContentType(), &buf)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			return nil, ErrStorageUnavailable
		}
		return nil, fmt.Errorf("upload report: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": p.UserID, "key": key}).Info("report archived")
	return &Archive{Key: key, Location: location, Size: size}, nil
}

func (s *exportService) ListArchives(ctx context.Context, p policy.Principal) ([]Archive, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}
	if !policy.Allow(p, policy.ReadOwn) {
		return nil, ErrForbidden
	}

	objects, err := s.storage.List(ctx, s.userPrefix(p.UserID))
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			return nil, ErrStorageUnavailable
		}
		return nil, fmt.Errorf("list reports: %w", err)
	}

	archives := make([]Archive, 0, len(objects))
	for _, obj := range objects {
		url, err := s.storage.PresignGet(ctx, obj.Key, s.opts.PresignTTL)
		if err != nil {
			return nil, fmt.Errorf("presign %s: %w", obj.Key, err)
		}
		archives = append(archives, Archive{
			Key:          obj.Key,
			URL:          url,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	// Keys start with a timestamp, so newest first is reverse lexical order.
	sort.Slice(archives, func(i, j int) bool { return archives[i].Key > archives[j].Key })
	return archives, nil
}

func (s *exportService) userPrefix(userID int64) string {
	return fmt.Sprintf("%s/user-%d/", s.opts.KeyPrefix, userID)
}

func (s *exportService) objectKey(userID int64, format export.Format) string {
	name := fmt.Sprintf("%s-%s.%s", s.now().UTC().Format("20060102T150405Z"), uuid.NewString(), format.Extension())
	return path.Join(s.userPrefix(userID), name)
}
