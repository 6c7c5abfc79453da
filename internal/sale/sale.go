// Package sale records point-of-sale lines grouped into sale orders and keeps
// the inventory ledger in step when lines are amended or canceled.
package sale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"medstock/m/domain"
	"medstock/m/internal/barcode"
	"medstock/m/internal/catalog"
	"medstock/m/internal/events"
	"medstock/m/internal/ledger"
	"medstock/m/internal/metrics"
)

// OrderView is a sale order with its lines as shown at the register.
type OrderView struct {
	SaleOrderID int64             `json:"sale_order_id"`
	Sales       []domain.SaleView `json:"sales"`
}

// Service records sale orders and their lines.
type Service struct {
	db       *sqlx.DB
	barcodes *barcode.Registry
	ledger   *ledger.Ledger
	events   events.Publisher
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

// NewService constructs a sale Service.
func NewService(db *sqlx.DB, reg *barcode.Registry, led *ledger.Ledger, pub events.Publisher, m *metrics.Metrics, log *zap.Logger) *Service {
	return &Service{
		db:       db,
		barcodes: reg,
		ledger:   led,
		events:   pub,
		metrics:  m,
		log:      log.Named("sale"),
		now:      time.Now,
	}
}

// CreateOrder opens an empty sale order.
func (s *Service) CreateOrder(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(`INSERT INTO sale_order (created_at) VALUES (?) RETURNING sale_order_id`),
		s.now().UTC()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create sale order: %w", err)
	}
	s.log.Debug("sale order created", zap.Int64("sale_order_id", id))
	return id, nil
}

// AddLine sells quantity of whatever code scans to. Unknown codes sell the
// sentinel medicine. Short stock follows the ledger's oversell policy; under
// the default policy the shortfall is stored on the line.
func (s *Service) AddLine(ctx context.Context, orderID int64, code string, quantity float64) (*domain.SaleView, error) {
	if quantity <= 0 {
		return nil, &domain.ValidationError{Fields: map[string]string{"quantity": "must be greater than zero"}}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin sale: %w", err)
	}
	defer tx.Rollback()

	if err := orderExists(ctx, tx, orderID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("sale order %d: %w", orderID, domain.ErrOrderNotFound)
		}
		return nil, err
	}

	medicineID, err := s.barcodes.FindMedicineByBarcode(ctx, tx, code)
	if err != nil {
		return nil, err
	}
	debit, err := s.ledger.Debit(ctx, tx, medicineID, quantity)
	if err != nil {
		return nil, err
	}

	line := domain.Sale{
		SaleOrderID:      orderID,
		MedicineID:       medicineID,
		Quantity:         quantity,
		Price:            debit.Price,
		OversoldQuantity: debit.Oversold,
		Timestamp:        s.now().UTC(),
	}
	err = tx.QueryRowxContext(ctx, tx.Rebind(`
		INSERT INTO sale (sale_order_id, medicine_id, quantity, price, oversold_quantity, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING sale_id
	`), line.SaleOrderID, line.MedicineID, line.Quantity, line.Price, line.OversoldQuantity, line.Timestamp).Scan(&line.ID)
	if err != nil {
		return nil, fmt.Errorf("record sale: %w", err)
	}

	med, err := catalog.Get(ctx, tx, medicineID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit sale: %w", err)
	}

	s.metrics.SaleLines.Inc()
	if line.OversoldQuantity > 0 {
		s.metrics.Oversold.Add(line.OversoldQuantity)
		s.log.Warn("sold beyond recorded stock",
			zap.Int64("sale_id", line.ID),
			zap.Int64("medicine_id", medicineID),
			zap.Float64("oversold", line.OversoldQuantity))
	}
	s.publish(ctx, events.Event{
		Type:       events.SaleRecorded,
		MedicineID: medicineID,
		Quantity:   -quantity,
		Price:      line.Price,
		Reference:  line.ID,
		OccurredAt: line.Timestamp,
	})

	view := domain.NewSaleView(line, *med)
	return &view, nil
}

// AmendLine changes the quantity and/or price of a line. Raising the quantity
// needs the extra units on hand; otherwise nothing changes and
// domain.ErrInsufficientInventory is returned.
func (s *Service) AmendLine(ctx context.Context, orderID, lineID int64, quantity, price *float64) error {
	if quantity != nil && *quantity < 0 {
		return &domain.ValidationError{Fields: map[string]string{"quantity": "must not be negative"}}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sale amendment: %w", err)
	}
	defer tx.Rollback()

	line, err := loadLine(ctx, tx, orderID, lineID)
	if err != nil {
		return err
	}

	var delta float64
	if quantity != nil {
		delta = *quantity - line.Quantity
		if delta > 0 {
			lvl, err := s.ledger.Level(ctx, tx, line.MedicineID)
			if err != nil {
				return err
			}
			if lvl == nil || lvl.Quantity < delta {
				return fmt.Errorf("sale %d needs %g more: %w", lineID, delta, domain.ErrInsufficientInventory)
			}
		}
		if err := s.ledger.Adjust(ctx, tx, line.MedicineID, -delta); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE sale SET quantity = ? WHERE sale_id = ?`), *quantity, lineID); err != nil {
			return fmt.Errorf("update sale %d quantity: %w", lineID, err)
		}
	}
	if price != nil {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE sale SET price = ? WHERE sale_id = ?`), *price, lineID); err != nil {
			return fmt.Errorf("update sale %d price: %w", lineID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sale amendment: %w", err)
	}

	s.metrics.SaleAmendments.WithLabelValues("amend").Inc()
	if delta != 0 {
		s.publish(ctx, events.Event{
			Type:       events.SaleAmended,
			MedicineID: line.MedicineID,
			Quantity:   -delta,
			Reference:  lineID,
			OccurredAt: s.now().UTC(),
		})
	}
	s.log.Info("sale amended", zap.Int64("sale_id", lineID), zap.Float64("delta", delta), zap.Bool("repriced", price != nil))
	return nil
}

// CancelLine returns the line's quantity to the ledger and deletes it.
func (s *Service) CancelLine(ctx context.Context, orderID, lineID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sale cancellation: %w", err)
	}
	defer tx.Rollback()

	line, err := loadLine(ctx, tx, orderID, lineID)
	if err != nil {
		return err
	}
	if err := s.ledger.Adjust(ctx, tx, line.MedicineID, line.Quantity); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM sale WHERE sale_id = ?`), lineID); err != nil {
		return fmt.Errorf("delete sale %d: %w", lineID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sale cancellation: %w", err)
	}

	s.metrics.SaleAmendments.WithLabelValues("cancel").Inc()
	s.publish(ctx, events.Event{
		Type:       events.SaleCanceled,
		MedicineID: line.MedicineID,
		Quantity:   line.Quantity,
		Reference:  lineID,
		OccurredAt: s.now().UTC(),
	})
	s.log.Info("sale canceled", zap.Int64("sale_id", lineID), zap.Float64("returned", line.Quantity))
	return nil
}

type lineRow struct {
	domain.Sale
	NameBG *string `db:"medicine_name_bg"`
	Name   *string `db:"medicine_name"`
	Opiate bool    `db:"opiate"`
}

// GetOrder returns the order with its lines in entry order.
func (s *Service) GetOrder(ctx context.Context, orderID int64) (*OrderView, error) {
	if err := orderExists(ctx, s.db, orderID); err != nil {
		return nil, err
	}

	var rows []lineRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT s.sale_id, s.sale_order_id, s.medicine_id, s.quantity, s.price, s.oversold_quantity, s.timestamp,
		       m.medicine_name_bg, m.medicine_name, m.opiate
		FROM sale s
		JOIN medicine_detail m ON m.medicine_id = s.medicine_id
		WHERE s.sale_order_id = ?
		ORDER BY s.sale_id
	`), orderID)
	if err != nil {
		return nil, fmt.Errorf("load sales of order %d: %w", orderID, err)
	}

	view := &OrderView{SaleOrderID: orderID, Sales: make([]domain.SaleView, 0, len(rows))}
	for _, r := range rows {
		med := domain.Medicine{ID: r.MedicineID, NameBG: r.NameBG, Name: r.Name, Opiate: r.Opiate}
		view.Sales = append(view.Sales, domain.NewSaleView(r.Sale, med))
	}
	return view, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("publish event", zap.String("type", e.Type), zap.Error(err))
	}
}

func orderExists(ctx context.Context, q sqlx.ExtContext, orderID int64) error {
	var id int64
	err := sqlx.GetContext(ctx, q, &id, q.Rebind(`SELECT sale_order_id FROM sale_order WHERE sale_order_id = ?`), orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load sale order %d: %w", orderID, err)
	}
	return nil
}

// loadLine returns the line only when it belongs to orderID.
func loadLine(ctx context.Context, q sqlx.ExtContext, orderID, lineID int64) (*domain.Sale, error) {
	var line domain.Sale
	err := sqlx.GetContext(ctx, q, &line, q.Rebind(`
		SELECT sale_id, sale_order_id, medicine_id, quantity, price, oversold_quantity, timestamp
		FROM sale WHERE sale_id = ?
	`), lineID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load sale %d: %w", lineID, err)
	}
	if line.SaleOrderID != orderID {
		return nil, domain.ErrNotFound
	}
	return &line, nil
}
