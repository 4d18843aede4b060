package reports

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

// StockDetail is the per-product report: availability plus FIFO batch list.
type StockDetail struct {
	ProductID int64               `json:"product_id"`
	Available float64             `json:"available"`
	Batches   []ledger.StockBatch `json:"batches"`
}

// AsOfReport reconstructs availability on a calendar day.
type AsOfReport struct {
	ProductID int64   `json:"product_id"`
	Date      string  `json:"date"`
	Available float64 `json:"available"`
}

type Service struct {
	reporter *ledger.Reporter
	cache    *Cache
	group    singleflight.Group
}

func NewService(reporter *ledger.Reporter, cache *Cache) *Service {
	return &Service{reporter: reporter, cache: cache}
}

// StockList returns current availability for every stocked product. The
// result is cached; concurrent cache misses collapse into one load.
func (s *Service) StockList(ctx context.Context) ([]ledger.ProductStock, error) {
	key, err := s.cache.BuildKey(ctx, "stock", "list")
	if err != nil {
		return nil, err
	}

	resultChan := s.group.DoChan(key, func() (interface{}, error) {
		var list []ledger.ProductStock
		err := s.cache.FetchJSON(ctx, key, &list, func(ctx context.Context) (interface{}, error) {
			return s.reporter.ListAvailable(ctx)
		})
		return list, err
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		list, _ := res.Val.([]ledger.ProductStock)
		if list == nil {
			list = []ledger.ProductStock{}
		}
		return list, nil
	}
}

// ProductStock returns one product's availability with its batch breakdown.
func (s *Service) ProductStock(ctx context.Context, productID int64) (StockDetail, error) {
	key, err := s.cache.BuildKey(ctx, "stock", "product", strconv.FormatInt(productID, 10))
	if err != nil {
		return StockDetail{}, err
	}

	var detail StockDetail
	err = s.cache.FetchJSON(ctx, key, &detail, func(ctx context.Context) (interface{}, error) {
		total, batches, err := s.reporter.Batches(ctx, productID)
		if err != nil {
			return nil, err
		}
		if batches == nil {
			batches = []ledger.StockBatch{}
		}
		return StockDetail{ProductID: productID, Available: total, Batches: batches}, nil
	})
	return detail, err
}

// AvailableAsOf reconstructs availability on the given day from document
// history. Not cached: arbitrary dates would pollute the cache.
func (s *Service) AvailableAsOf(ctx context.Context, productID int64, date time.Time) (AsOfReport, error) {
	available, err := s.reporter.AvailableAsOf(ctx, productID, date)
	if err != nil {
		return AsOfReport{}, err
	}
	return AsOfReport{
		ProductID: productID,
		Date:      date.Format("2006-01-02"),
		Available: available,
	}, nil
}

// Invalidate drops all cached stock reports. Called after postings.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// Warm pre-populates the stock list cache, used by the background job.
func (s *Service) Warm(ctx context.Context) error {
	_, err := s.StockList(ctx)
	return err
}
