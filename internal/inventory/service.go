package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/avolkhin/storefront/internal/models"
	"gorm.io/gorm"
)

var (
	ErrValidation      = errors.New("validation")
	ErrProductNotFound = errors.New("product not found")
	ErrStockConflict   = errors.New("stock changed concurrently")
)

// InsufficientStockError carries the shortfall so handlers can tell the user
// which product is short and by how much.
type InsufficientStockError struct {
	ProductID uint
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

type Line struct {
	ProductID uint
	Quantity  int
}

type Adjustment struct {
	ProductID   uint
	NewQuantity int
	Reason      string
}

type AdjustmentResult struct {
	ProductID        uint   `json:"product_id"`
	ProductName      string `json:"product_name"`
	PreviousQuantity int    `json:"previous_quantity"`
	NewQuantity      int    `json:"new_quantity"`
	QuantityChange   int    `json:"quantity_change"`
}

type Service struct {
	DB *gorm.DB
}

// NormalizeLines merges lines that reference the same product, summing their
// quantities so the batch is checked against stock as a single decrement.
// First-occurrence order is preserved.
func NormalizeLines(lines []Line) []Line {
	merged := make([]Line, 0, len(lines))
	index := make(map[uint]int, len(lines))
	for _, ln := range lines {
		if i, ok := index[ln.ProductID]; ok {
			merged[i].Quantity += ln.Quantity
			continue
		}
		index[ln.ProductID] = len(merged)
		merged = append(merged, ln)
	}
	return merged
}

// DecrementForSale validates and decrements stock for every line inside the
// caller's transaction and appends one `sold` ledger entry per line. The
// decrement statement itself encodes the sufficiency check: zero affected
// rows on an existing active product means insufficient stock. Any failure
// returns an error so the caller's transaction rolls back every line.
//
// Lines must already be normalized (no duplicate product ids) and carry
// positive quantities.
func (s *Service) DecrementForSale(tx *gorm.DB, lines []Line, reason string, actorID *uint) error {
	for _, ln := range lines {
		if ln.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}

		res := tx.Model(&models.Product{}).
			Where("id = ? AND is_active = ? AND stock_quantity >= ?", ln.ProductID, true, ln.Quantity).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", ln.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var p models.Product
			err := tx.Where("id = ? AND is_active = ?", ln.ProductID, true).First(&p).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %d", ErrProductNotFound, ln.ProductID)
			}
			if err != nil {
				return err
			}
			return &InsufficientStockError{ProductID: ln.ProductID, Requested: ln.Quantity, Available: p.StockQuantity}
		}

		// The decremented row is locked by this transaction until commit, so
		// reading it back here yields the exact post-decrement quantity.
		var p models.Product
		if err := tx.First(&p, ln.ProductID).Error; err != nil {
			return err
		}

		entry := models.InventoryLogEntry{
			ProductID:        ln.ProductID,
			ChangeType:       models.ChangeTypeSold,
			QuantityChange:   -ln.Quantity,
			PreviousQuantity: p.StockQuantity + ln.Quantity,
			NewQuantity:      p.StockQuantity,
			Reason:           reason,
			ActorID:          actorID,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
	}
	return nil
}

// BulkAdjust sets absolute stock values for a batch of products, appending
// one ledger entry per product. The whole batch is atomic: a missing product
// id rejects every update. The write is a compare-and-set on the quantity
// read in the same transaction; a concurrent change surfaces as
// ErrStockConflict and rolls the batch back.
func (s *Service) BulkAdjust(ctx context.Context, updates []Adjustment, actorID *uint) ([]AdjustmentResult, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: updates required", ErrValidation)
	}
	for _, u := range updates {
		if u.ProductID == 0 {
			return nil, fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if u.NewQuantity < 0 {
			return nil, fmt.Errorf("%w: new_quantity must be >= 0", ErrValidation)
		}
	}

	results := make([]AdjustmentResult, 0, len(updates))

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			var p models.Product
			if err := tx.First(&p, u.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product %d", ErrProductNotFound, u.ProductID)
				}
				return err
			}

			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock_quantity = ?", p.ID, p.StockQuantity).
				UpdateColumn("stock_quantity", u.NewQuantity)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: product %d", ErrStockConflict, p.ID)
			}

			delta := u.NewQuantity - p.StockQuantity
			changeType := models.ChangeTypeAdd
			if delta < 0 {
				changeType = models.ChangeTypeRemove
			}

			entry := models.InventoryLogEntry{
				ProductID:        p.ID,
				ChangeType:       changeType,
				QuantityChange:   delta,
				PreviousQuantity: p.StockQuantity,
				NewQuantity:      u.NewQuantity,
				Reason:           u.Reason,
				ActorID:          actorID,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}

			results = append(results, AdjustmentResult{
				ProductID:        p.ID,
				ProductName:      p.Name,
				PreviousQuantity: p.StockQuantity,
				NewQuantity:      u.NewQuantity,
				QuantityChange:   delta,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Logs returns ledger entries newest first, optionally filtered by product.
func (s *Service) Logs(ctx context.Context, productID *uint, offset, limit int) (int64, []models.InventoryLogEntry, error) {
	q := s.DB.WithContext(ctx).Model(&models.InventoryLogEntry{})
	if productID != nil {
		q = q.Where("product_id = ?", *productID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var entries []models.InventoryLogEntry
	if err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return 0, nil, err
	}
	return total, entries, nil
}
