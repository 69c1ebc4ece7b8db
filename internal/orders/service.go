package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avolkhin/storefront/internal/inventory"
	"github.com/avolkhin/storefront/internal/models"
	"github.com/avolkhin/storefront/internal/transport"
	"gorm.io/gorm"
)

var (
	ErrValidation                = errors.New("validation")
	ErrOrderNotFound             = errors.New("order not found")
	ErrProductsUnavailable       = errors.New("products unavailable")
	ErrForbidden                 = errors.New("forbidden")
	ErrOrderNotEditable          = errors.New("order not editable")
	ErrAlreadyCancelled          = errors.New("order already cancelled")
	ErrCancellationWindowExpired = errors.New("cancellation window expired")
)

// CancelWindow is how long after creation a customer may self-cancel.
// Exactly at the boundary the cancel is still allowed.
const CancelWindow = 5 * time.Hour

type Service struct {
	DB           *gorm.DB
	Inventory    *inventory.Service
	NumberPrefix string
}

func (s *Service) Create(ctx context.Context, req transport.CreateOrderRequest, userID uint) (*models.Order, error) {
	if err := validateAddress(&req.ShippingAddress); err != nil {
		return nil, err
	}
	if req.BillingAddress != nil {
		if err := validateAddress(req.BillingAddress); err != nil {
			return nil, err
		}
	}
	if req.PaymentMethod != models.PaymentMethodPayOnDelivery {
		return nil, fmt.Errorf("%w: unsupported payment method %q", ErrValidation, req.PaymentMethod)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}

	lines := make([]inventory.Line, 0, len(req.Items))
	for i := range req.Items {
		if req.Items[i].ProductID == 0 {
			return nil, fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if req.Items[i].Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		lines = append(lines, inventory.Line{ProductID: req.Items[i].ProductID, Quantity: req.Items[i].Quantity})
	}
	lines = inventory.NormalizeLines(lines)

	orderNumber := GenerateOrderNumber(s.NumberPrefix)

	var order models.Order

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]uint, 0, len(lines))
		for _, ln := range lines {
			ids = append(ids, ln.ProductID)
		}

		var products []models.Product
		if err := tx.Where("id IN ? AND is_active = ?", ids, true).Find(&products).Error; err != nil {
			return err
		}
		if len(products) != len(lines) {
			return fmt.Errorf("%w: %d of %d products available", ErrProductsUnavailable, len(products), len(lines))
		}
		byID := make(map[uint]models.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		if err := s.Inventory.DecrementForSale(tx, lines, fmt.Sprintf("Order #%s", orderNumber), &userID); err != nil {
			return err
		}

		shipping := snapshotFromRequest(&req.ShippingAddress, models.AddressTypeShipping)
		if err := tx.Create(&shipping).Error; err != nil {
			return err
		}
		billingID := shipping.ID
		if req.BillingAddress != nil {
			billing := snapshotFromRequest(req.BillingAddress, models.AddressTypeBilling)
			if err := tx.Create(&billing).Error; err != nil {
				return err
			}
			billingID = billing.ID
		}

		// Total is computed from the resolved catalog prices, never from
		// anything the client sent.
		var total float64
		for _, ln := range lines {
			total += float64(ln.Quantity) * byID[ln.ProductID].Price
		}

		order = models.Order{
			OrderNumber:       orderNumber,
			UserID:            userID,
			Status:            models.OrderStatusPending,
			PaymentStatus:     models.PaymentStatusPending,
			PaymentMethod:     req.PaymentMethod,
			TotalAmount:       total,
			ShippingAddressID: shipping.ID,
			BillingAddressID:  billingID,
			Notes:             req.Notes,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		snapshotIDs := []uint{shipping.ID}
		if billingID != shipping.ID {
			snapshotIDs = append(snapshotIDs, billingID)
		}
		if err := tx.Model(&models.AddressSnapshot{}).Where("id IN ?", snapshotIDs).
			UpdateColumn("order_id", order.ID).Error; err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(lines))
		for _, ln := range lines {
			p := byID[ln.ProductID]
			items = append(items, models.OrderItem{
				OrderID:     order.ID,
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    ln.Quantity,
				UnitPrice:   p.Price,
			})
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		order.Items = items

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return &order, nil
}

// Get loads one order with its items. Non-admin callers may only read their
// own orders.
func (s *Service) Get(ctx context.Context, orderID, userID uint, admin bool) (*models.Order, error) {
	var order models.Order
	if err := s.DB.WithContext(ctx).Preload("Items").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !admin && order.UserID != userID {
		return nil, ErrForbidden
	}
	return &order, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uint, offset, limit int) (int64, []models.Order, error) {
	q := s.DB.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	if err := q.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

func (s *Service) ListAll(ctx context.Context, offset, limit int) (int64, []models.Order, error) {
	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Order{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	if err := s.DB.WithContext(ctx).Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// Cancel is customer self-service. The order must belong to the caller, must
// not already be cancelled, and must be younger than CancelWindow.
//
// Cancelling does not restock: the sold ledger entries stand and stock stays
// decremented until an admin runs a bulk adjustment. See DESIGN.md.
func (s *Service) Cancel(ctx context.Context, orderID, userID uint) (*models.Order, error) {
	var order models.Order
	if err := s.DB.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	if order.Status == models.OrderStatusCancelled {
		return nil, ErrAlreadyCancelled
	}
	if time.Since(order.CreatedAt) > CancelWindow {
		return nil, ErrCancellationWindowExpired
	}

	if err := s.DB.WithContext(ctx).Model(&order).Update("status", models.OrderStatusCancelled).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// Update is the bounded customer edit: notes and/or the shipping address
// snapshot, permitted only while the order is pending.
func (s *Service) Update(ctx context.Context, orderID, userID uint, req transport.UpdateOrderRequest) (*models.Order, error) {
	var order models.Order
	if err := s.DB.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	if order.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("%w: status is %s", ErrOrderNotEditable, order.Status)
	}

	if req.ShippingAddress != nil {
		if err := validateAddress(req.ShippingAddress); err != nil {
			return nil, err
		}
	}

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.ShippingAddress != nil {
			updates := snapshotUpdates(req.ShippingAddress)
			if err := tx.Model(&models.AddressSnapshot{}).Where("id = ?", order.ShippingAddressID).
				Updates(updates).Error; err != nil {
				return err
			}
		}
		if req.Notes != nil {
			if err := tx.Model(&order).Update("notes", *req.Notes).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return s.Get(ctx, orderID, userID, false)
}

// Delete removes an order and cascades to its items and address snapshots.
// Only terminal orders (cancelled or delivered) may be deleted.
func (s *Service) Delete(ctx context.Context, orderID, userID uint) error {
	var order models.Order
	if err := s.DB.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	if order.UserID != userID {
		return ErrForbidden
	}
	if !models.TerminalStatus(order.Status) {
		return fmt.Errorf("%w: status is %s", ErrOrderNotEditable, order.Status)
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", []uint{order.ShippingAddressID, order.BillingAddressID}).
			Delete(&models.AddressSnapshot{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
}

// UpdateStatus is the administrator override: any enumerated status may be
// set at any time, including out of terminal states. This is deliberate
// operational behavior, not a strict state machine.
func (s *Service) UpdateStatus(ctx context.Context, orderID uint, req transport.UpdateStatusRequest) (*models.Order, error) {
	if !models.ValidOrderStatus(req.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
	}
	if req.PaymentStatus != nil && !models.ValidPaymentStatus(*req.PaymentStatus) {
		return nil, fmt.Errorf("%w: unknown payment status %q", ErrValidation, *req.PaymentStatus)
	}

	var order models.Order
	if err := s.DB.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{"status": req.Status}
	if req.PaymentStatus != nil {
		updates["payment_status"] = *req.PaymentStatus
	}
	if err := s.DB.WithContext(ctx).Model(&order).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func validateAddress(a *transport.AddressRequest) error {
	if a.Street == "" {
		return fmt.Errorf("%w: street required", ErrValidation)
	}
	if a.City == "" {
		return fmt.Errorf("%w: city required", ErrValidation)
	}
	if a.PostalCode == "" {
		return fmt.Errorf("%w: postal_code required", ErrValidation)
	}
	return nil
}

func snapshotFromRequest(a *transport.AddressRequest, addrType string) models.AddressSnapshot {
	return models.AddressSnapshot{
		Type:       addrType,
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}

// snapshotUpdates maps request fields onto a fixed column allowlist, so a
// partial update can never touch anything but address fields.
func snapshotUpdates(a *transport.AddressRequest) map[string]interface{} {
	return map[string]interface{}{
		"street":      a.Street,
		"city":        a.City,
		"state":       a.State,
		"postal_code": a.PostalCode,
		"country":     a.Country,
		"phone":       a.Phone,
	}
}
