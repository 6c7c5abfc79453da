// Package purchase books incoming stock. Lines whose medicine has no barcode
// are parked behind a pending token until a barcode is attached.
package purchase

import (
	"context"
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
	"medstock/m/internal/pending"
)

const (
	StatusSuccess        = "success"
	StatusMissingBarcode = "missing_barcode"
	StatusError          = "error"
)

// Line is one incoming stock line.
type Line struct {
	MedicineName  string  `json:"medicine_name" validate:"required"`
	Quantity      float64 `json:"quantity" validate:"gt=0"`
	Price         float64 `json:"price" validate:"gte=0"`
	ExpiryDate    string  `json:"expiry_date" validate:"required"`
	BatchNumber   string  `json:"batch_number" validate:"required"`
	SupplierCode  string  `json:"supplier_code" validate:"required"`
	PurchaseOrder string  `json:"purchase_order,omitempty"`
}

// Result reports the outcome of the line at Index.
type Result struct {
	Index   int    `json:"index"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// AttachResult describes a completed barcode attachment.
type AttachResult struct {
	MedicineID int64
	Barcode    string
	// Booked is set when the parked purchase line was recorded.
	Booked bool
}

// Service books purchases and redeems pending tokens.
type Service struct {
	db       *sqlx.DB
	catalog  *catalog.Resolver
	barcodes *barcode.Registry
	ledger   *ledger.Ledger
	pending  pending.Store
	events   events.Publisher
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

// NewService constructs a purchase Service.
func NewService(db *sqlx.DB, cat *catalog.Resolver, reg *barcode.Registry, led *ledger.Ledger,
	store pending.Store, pub events.Publisher, m *metrics.Metrics, log *zap.Logger) *Service {
	return &Service{
		db:       db,
		catalog:  cat,
		barcodes: reg,
		ledger:   led,
		pending:  store,
		events:   pub,
		metrics:  m,
		log:      log.Named("purchase"),
		now:      time.Now,
	}
}

type parked struct {
	index int
	token string
	rec   domain.PendingPurchase
}

// Process books a batch. It returns one result per line, in input order.
// Medicine resolution commits on its own; every other write of the batch
// commits in a single transaction.
func (s *Service) Process(ctx context.Context, lines []Line) ([]Result, error) {
	results := make([]Result, len(lines))
	medicineIDs := make([]int64, len(lines))
	for i, line := range lines {
		results[i] = Result{Index: i}
		m, err := s.catalog.ResolveOrCreate(ctx, line.MedicineName)
		if err != nil {
			s.log.Error("resolve medicine", zap.Int("index", i), zap.String("name", line.MedicineName), zap.Error(err))
			results[i].Status = StatusError
			results[i].Message = "unable to resolve medicine"
			continue
		}
		medicineIDs[i] = m.ID
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin purchase batch: %w", err)
	}
	defer tx.Rollback()

	var (
		waiting []parked
		booked  []events.Event
	)
	for i, line := range lines {
		if results[i].Status == StatusError {
			continue
		}
		binding, err := s.barcodes.FindBinding(ctx, tx, medicineIDs[i])
		if err != nil {
			return nil, err
		}
		if binding == nil {
			token := pending.NewToken()
			waiting = append(waiting, parked{index: i, token: token, rec: line.pending(medicineIDs[i])})
			results[i].Status = StatusMissingBarcode
			results[i].Message = "medicine has no barcode, attach one with the token"
			results[i].Token = token
			continue
		}

		p := line.purchase(medicineIDs[i], s.now())
		if err := s.book(ctx, tx, &p); err != nil {
			return nil, err
		}
		results[i].Status = StatusSuccess
		results[i].Message = "purchase recorded"
		booked = append(booked, purchaseEvent(p))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit purchase batch: %w", err)
	}

	// The batch is committed; parking must outlive a client that went away.
	parkCtx := context.WithoutCancel(ctx)
	for _, w := range waiting {
		if err := s.pending.Put(parkCtx, w.token, w.rec); err != nil {
			s.log.Error("park purchase line", zap.Int("index", w.index), zap.Error(err))
			results[w.index] = Result{Index: w.index, Status: StatusError, Message: "unable to park purchase line"}
		}
	}
	for _, e := range booked {
		s.publish(ctx, e)
	}
	for _, r := range results {
		s.metrics.PurchaseLines.WithLabelValues(r.Status).Inc()
	}
	s.log.Info("purchase batch processed",
		zap.Int("lines", len(lines)),
		zap.Int("booked", len(booked)),
		zap.Int("parked", len(waiting)))
	return results, nil
}

// AttachBarcode binds code to the medicine parked behind token and, when the
// parked record is a full purchase line, books it. The token is consumed on
// success and left redeemable when the attachment fails.
func (s *Service) AttachBarcode(ctx context.Context, token, code string) (*AttachResult, error) {
	rec, err := s.pending.Take(ctx, token)
	if err != nil {
		return nil, err
	}

	consumed := false
	var attachErr error
	defer func() {
		if consumed {
			return
		}
		if errors.Is(attachErr, domain.ErrAlreadyBound) {
			s.log.Warn("pending purchase kept for a medicine that already has a barcode",
				zap.String("token", token),
				zap.Int64("medicine_id", rec.MedicineID),
				zap.Bool("complete", rec.Complete()))
		}
		if err := s.pending.Put(context.WithoutCancel(ctx), token, *rec); err != nil {
			s.log.Error("restore pending token", zap.String("token", token), zap.Error(err))
		}
	}()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin barcode attach: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.barcodes.CreateBinding(ctx, tx, rec.MedicineID, code); err != nil {
		attachErr = err
		return nil, err
	}

	res := &AttachResult{MedicineID: rec.MedicineID, Barcode: code}
	var p domain.Purchase
	if rec.Complete() {
		p = domain.Purchase{
			MedicineID:    rec.MedicineID,
			Quantity:      *rec.Quantity,
			Price:         *rec.Price,
			Timestamp:     s.now().UTC(),
			ExpiryDate:    rec.ExpiryDate,
			BatchNumber:   rec.BatchNumber,
			SupplierCode:  rec.SupplierCode,
			PurchaseOrder: rec.PurchaseOrder,
		}
		if err := s.book(ctx, tx, &p); err != nil {
			return nil, err
		}
		res.Booked = true
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit barcode attach: %w", err)
	}
	consumed = true

	s.metrics.TokensRedeemed.Inc()
	s.publish(ctx, events.Event{Type: events.BarcodeBound, MedicineID: rec.MedicineID, OccurredAt: s.now().UTC()})
	if res.Booked {
		s.publish(ctx, purchaseEvent(p))
	}
	s.log.Info("barcode attached",
		zap.Int64("medicine_id", rec.MedicineID),
		zap.String("barcode", code),
		zap.Bool("booked", res.Booked))
	return res, nil
}

// book records the purchase line and credits the ledger.
func (s *Service) book(ctx context.Context, tx *sqlx.Tx, p *domain.Purchase) error {
	err := tx.QueryRowxContext(ctx, tx.Rebind(`
		INSERT INTO purchase (medicine_id, quantity, price, timestamp, expiry_date, batch_number,
			verified, reported, regulatory_reported, supplier_code, purchase_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING purchase_id
	`), p.MedicineID, p.Quantity, p.Price, p.Timestamp, p.ExpiryDate, p.BatchNumber,
		p.Verified, p.Reported, p.RegulatoryReported, p.SupplierCode, p.PurchaseOrder).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("record purchase of medicine %d: %w", p.MedicineID, err)
	}
	return s.ledger.Credit(ctx, tx, p.MedicineID, p.Quantity, p.Price, p.ExpiryDate)
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("publish event", zap.String("type", e.Type), zap.Error(err))
	}
}

func purchaseEvent(p domain.Purchase) events.Event {
	price := p.Price
	return events.Event{
		Type:       events.PurchaseRecorded,
		MedicineID: p.MedicineID,
		Quantity:   p.Quantity,
		Price:      &price,
		Reference:  p.ID,
		OccurredAt: p.Timestamp,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (l Line) purchase(medicineID int64, now time.Time) domain.Purchase {
	return domain.Purchase{
		MedicineID:    medicineID,
		Quantity:      l.Quantity,
		Price:         l.Price,
		Timestamp:     now.UTC(),
		ExpiryDate:    optional(l.ExpiryDate),
		BatchNumber:   optional(l.BatchNumber),
		SupplierCode:  optional(l.SupplierCode),
		PurchaseOrder: optional(l.PurchaseOrder),
	}
}

func (l Line) pending(medicineID int64) domain.PendingPurchase {
	qty, price := l.Quantity, l.Price
	return domain.PendingPurchase{
		MedicineID:    medicineID,
		Quantity:      &qty,
		Price:         &price,
		ExpiryDate:    optional(l.ExpiryDate),
		BatchNumber:   optional(l.BatchNumber),
		SupplierCode:  optional(l.SupplierCode),
		PurchaseOrder: optional(l.PurchaseOrder),
	}
}
