package warehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

// LedgerPort is the slice of the batch ledger the warehouse needs.
type LedgerPort interface {
	CreateBatches(ctx context.Context, docDate time.Time, lines []ledger.ReceiptLine) ([]int64, error)
	PostIssue(ctx context.Context, lines []ledger.IssueLine) error
	Validate(ctx context.Context, lines []ledger.IssueLine) ([]ledger.Shortage, error)
}

// KeyStore guards against double-posting the same document.
type KeyStore interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Invalidator drops cached stock reports once a posting changes stock.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

var ErrMissingNumber = errors.New("warehouse: document number required")

const (
	moduleReceipt = "warehouse:receipt"
	moduleIssue   = "warehouse:issue"
)

type Service struct {
	logger *slog.Logger
	repo   Repository
	ledger LedgerPort
	keys   KeyStore
	cache  Invalidator
}

func NewService(logger *slog.Logger, repo Repository, ledgerPort LedgerPort, keys KeyStore, cache Invalidator) *Service {
	return &Service{logger: logger, repo: repo, ledger: ledgerPort, keys: keys, cache: cache}
}

func (s *Service) ListReceipts(ctx context.Context) ([]GoodsReceipt, error) {
	return s.repo.ListReceipts(ctx)
}

func (s *Service) GetReceipt(ctx context.Context, id int64) (GoodsReceipt, error) {
	return s.repo.GetReceipt(ctx, id)
}

// PostReceipt persists the document and opens one stock batch per line,
// dated by the document's business date. A failed batch ingestion removes
// the document again so retries see a clean slate.
func (s *Service) PostReceipt(ctx context.Context, doc GoodsReceipt, idemKey string) (GoodsReceipt, error) {
	if strings.TrimSpace(doc.Number) == "" {
		return GoodsReceipt{}, ErrMissingNumber
	}
	key := postingKey(idemKey, moduleReceipt, doc.Number)
	if err := s.keys.CheckAndInsert(ctx, key, moduleReceipt); err != nil {
		return GoodsReceipt{}, err
	}

	docID, err := s.repo.CreateReceipt(ctx, doc)
	if err != nil {
		s.releaseKey(ctx, key)
		return GoodsReceipt{}, fmt.Errorf("persist receipt: %w", err)
	}

	lines := make([]ledger.ReceiptLine, 0, len(doc.Items))
	for _, item := range doc.Items {
		lines = append(lines, ledger.ReceiptLine{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price})
	}
	if _, err := s.ledger.CreateBatches(ctx, doc.Date, lines); err != nil {
		s.compensate(ctx, key, func() error { return s.repo.DeleteReceipt(ctx, docID) })
		return GoodsReceipt{}, err
	}
	s.invalidateCache(ctx)

	return s.repo.GetReceipt(ctx, docID)
}

func (s *Service) ListIssues(ctx context.Context) ([]GoodsIssue, error) {
	return s.repo.ListIssues(ctx)
}

func (s *Service) GetIssue(ctx context.Context, id int64) (GoodsIssue, error) {
	return s.repo.GetIssue(ctx, id)
}

// PostIssue persists the document and consumes stock FIFO. The ledger
// checks and consumes in one transaction; any shortage rejects every line
// and the document is removed again.
func (s *Service) PostIssue(ctx context.Context, doc GoodsIssue, idemKey string) (GoodsIssue, error) {
	if strings.TrimSpace(doc.Number) == "" {
		return GoodsIssue{}, ErrMissingNumber
	}
	key := postingKey(idemKey, moduleIssue, doc.Number)
	if err := s.keys.CheckAndInsert(ctx, key, moduleIssue); err != nil {
		return GoodsIssue{}, err
	}

	docID, err := s.repo.CreateIssue(ctx, doc)
	if err != nil {
		s.releaseKey(ctx, key)
		return GoodsIssue{}, fmt.Errorf("persist issue: %w", err)
	}

	lines := make([]ledger.IssueLine, 0, len(doc.Items))
	for _, item := range doc.Items {
		lines = append(lines, ledger.IssueLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	if err := s.ledger.PostIssue(ctx, lines); err != nil {
		s.compensate(ctx, key, func() error { return s.repo.DeleteIssue(ctx, docID) })
		return GoodsIssue{}, err
	}
	s.invalidateCache(ctx)

	return s.repo.GetIssue(ctx, docID)
}

// Validate reports per-line shortages without consuming anything.
func (s *Service) Validate(ctx context.Context, items []ItemForm) ([]ledger.Shortage, error) {
	lines := make([]ledger.IssueLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, ledger.IssueLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return s.ledger.Validate(ctx, lines)
}

func (s *Service) compensate(ctx context.Context, key string, undo func() error) {
	if err := undo(); err != nil {
		s.logger.Error("compensating document delete failed", slog.Any("error", err))
	}
	s.releaseKey(ctx, key)
}

func (s *Service) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("stock cache invalidation failed", slog.Any("error", err))
	}
}

func (s *Service) releaseKey(ctx context.Context, key string) {
	if err := s.keys.Delete(ctx, key); err != nil {
		s.logger.Error("release idempotency key failed", slog.Any("error", err), "key", key)
	}
}

// postingKey prefers the caller-supplied idempotency key and otherwise derives
// a stable one from the document number, so re-posting the same number is
// still caught when clients omit the header.
func postingKey(idemKey, module, number string) string {
	if idemKey != "" {
		return idemKey
	}
	return uuid.NewSHA1(uuid.Nil, []byte(module+":"+number)).String()
}
