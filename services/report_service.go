package services

import (
	"context"
	"time"

	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/repository"
)

type SalesReport struct {
	From            time.Time                 `json:"from"`
	To              time.Time                 `json:"to"`
	TotalSales      float64                   `json:"total_sales"`
	TotalOrders     int64                     `json:"total_orders"`
	AverageOrder    float64                   `json:"average_order"`
	ByPaymentMethod []repository.MethodTotal  `json:"by_payment_method"`
	ByProduct       []repository.ProductSales `json:"by_product"`
}

type KitchenTicket struct {
	OrderID     uint               `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	TableID     *uint              `json:"table_id,omitempty"`
	OrderType   models.OrderType   `json:"order_type"`
	Notes       string             `json:"notes"`
	Items       []models.OrderItem `json:"items"`
	CreatedAt   time.Time          `json:"created_at"`
	WaitingMins int                `json:"waiting_minutes"`
}

type ReportService struct {
	store *repository.Store
	now   func() time.Time
}

func NewReportService(store *repository.Store) *ReportService {
	return &ReportService{store: store, now: time.Now}
}

// SalesReport summarises completed orders created in [from, to). A combined
// bill counts once; its constituents are not counted again.
func (s *ReportService) SalesReport(ctx context.Context, from, to time.Time) (*SalesReport, error) {
	if !from.Before(to) {
		return nil, validation("report range is empty: from must be before to")
	}
	totals, err := s.store.SalesTotals(ctx, from, to)
	if err != nil {
		return nil, dbError("sales totals", err)
	}
	methods, err := s.store.SalesByPaymentMethod(ctx, from, to)
	if err != nil {
		return nil, dbError("sales by payment method", err)
	}
	products, err := s.store.SalesByProduct(ctx, from, to)
	if err != nil {
		return nil, dbError("sales by product", err)
	}
	if methods == nil {
		methods = []repository.MethodTotal{}
	}
	if products == nil {
		products = []repository.ProductSales{}
	}

	report := &SalesReport{
		From:            from,
		To:              to,
		TotalSales:      toFloat(money(totals.TotalSales)),
		TotalOrders:     totals.TotalOrders,
		ByPaymentMethod: methods,
		ByProduct:       products,
	}
	if totals.TotalOrders > 0 {
		report.AverageOrder = toFloat(money(totals.TotalSales / float64(totals.TotalOrders)))
	}
	return report, nil
}

// KitchenDisplay lists active orders for the kitchen, oldest first.
func (s *ReportService) KitchenDisplay(ctx context.Context) ([]KitchenTicket, error) {
	orders, err := s.store.KitchenQueue(ctx)
	if err != nil {
		return nil, dbError("kitchen queue", err)
	}
	now := s.now()
	tickets := make([]KitchenTicket, 0, len(orders))
	for _, o := range orders {
		tickets = append(tickets, KitchenTicket{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			TableID:     o.TableID,
			OrderType:   o.OrderType,
			Notes:       o.Notes,
			Items:       o.Items,
			CreatedAt:   o.CreatedAt,
			WaitingMins: int(now.Sub(o.CreatedAt).Minutes()),
		})
	}
	return tickets, nil
}
