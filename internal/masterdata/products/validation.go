package products

import (
	"fmt"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
)

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	if p.Type != TypeGoods && p.Type != TypeService {
		return fmt.Errorf("%w: type must be %q or %q", shared.ErrValidation, TypeGoods, TypeService)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", shared.ErrValidation)
	}
	if p.MaxStock > 0 && p.MinStock > p.MaxStock {
		return fmt.Errorf("%w: min_stock exceeds max_stock", shared.ErrValidation)
	}
	return nil
}
