package repository

import (
	"context"
	"time"

	"tailorpos-backend/internal/db"
)

type DashboardRepository struct {
	DB *db.Postgres
}

type DashboardSummary struct {
	TotalRevenue    int64
	TotalRefunded   int64
	TotalOrders     int64
	OpenOrders      int64
	TodayRevenue    int64
	GarmentsDueSoon int64
}

type DashboardItem struct {
	Name   string
	Amount int64
	Count  int64
}

type RevenuePoint struct {
	Label  string
	Amount int64
}

type OutstandingOrder struct {
	OrderID       int64
	Code          string
	CustomerName  string
	ActiveTotal   int64
	NetPaid       int64
	OutstandingAt time.Time
}

func (r DashboardRepository) Summary(ctx context.Context) (DashboardSummary, error) {
	var s DashboardSummary
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT SUM(amount) FROM payments
			          WHERE status IN ('completed','partially_refunded','refunded')),0) AS total_revenue,
			COALESCE((SELECT SUM(refunded) FROM payments
			          WHERE status IN ('completed','partially_refunded','refunded')),0) AS total_refunded,
			(SELECT COUNT(*) FROM orders WHERE deleted_at IS NULL) AS total_orders,
			(SELECT COUNT(*) FROM orders WHERE deleted_at IS NULL AND status NOT IN ('completed','cancelled')) AS open_orders,
			COALESCE((SELECT SUM(amount) FROM payments
			          WHERE status IN ('completed','partially_refunded','refunded')
			            AND created_at::date = CURRENT_DATE),0) AS today_revenue,
			(SELECT COUNT(*) FROM garments g
			 JOIN orders o ON o.id = g.order_id AND o.deleted_at IS NULL
			 WHERE g.deleted_at IS NULL AND g.picked_up_at IS NULL
			   AND g.due_date IS NOT NULL AND g.due_date <= CURRENT_DATE + 3) AS due_soon
	`).Scan(&s.TotalRevenue, &s.TotalRefunded, &s.TotalOrders, &s.OpenOrders, &s.TodayRevenue, &s.GarmentsDueSoon)
	return s, err
}

func (r DashboardRepository) TopServices(ctx context.Context, limit int) ([]DashboardItem, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT sl.name,
		       COALESCE(SUM(COALESCE(sl.line_total, ROUND(sl.quantity * sl.unit_price))),0) AS amount,
		       COUNT(*) AS cnt
		FROM service_lines sl
		JOIN garments g ON g.id = sl.garment_id AND g.deleted_at IS NULL
		WHERE sl.is_removed = false
		GROUP BY sl.name
		ORDER BY amount DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DashboardItem
	for rows.Next() {
		var it DashboardItem
		if err := rows.Scan(&it.Name, &it.Amount, &it.Count); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r DashboardRepository) TopTailors(ctx context.Context, limit int) ([]DashboardItem, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT o.tailor,
		       COALESCE(SUM(p.amount - p.refunded),0) AS amount,
		       COUNT(DISTINCT o.id) AS cnt
		FROM orders o
		JOIN payments p ON p.order_id = o.id
		                AND p.status IN ('completed','partially_refunded','refunded')
		WHERE o.deleted_at IS NULL AND o.tailor <> ''
		GROUP BY o.tailor
		ORDER BY amount DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DashboardItem
	for rows.Next() {
		var it DashboardItem
		if err := rows.Scan(&it.Name, &it.Amount, &it.Count); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r DashboardRepository) RevenueSeries(ctx context.Context, days int) ([]RevenuePoint, error) {
	start := time.Now().AddDate(0, 0, -days+1).Format("2006-01-02")
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT created_at::date::text AS day, COALESCE(SUM(amount - refunded),0) AS amount
		FROM payments
		WHERE status IN ('completed','partially_refunded','refunded')
		  AND created_at::date >= $1::date
		GROUP BY day
		ORDER BY day ASC
	`, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var points []RevenuePoint
	for rows.Next() {
		var p RevenuePoint
		if err := rows.Scan(&p.Label, &p.Amount); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// OutstandingBalances lists open orders where completed payments net of
// refunds have not covered the active total of non-removed service lines.
func (r DashboardRepository) OutstandingBalances(ctx context.Context, limit int) ([]OutstandingOrder, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT o.id, o.code, o.customer_name, o.created_at,
		       GREATEST(COALESCE(t.active_total,0) - o.discount + o.tax, 0) AS active_total,
		       COALESCE(pm.net_paid,0) AS net_paid
		FROM orders o
		LEFT JOIN (
			SELECT g.order_id,
			       SUM(COALESCE(sl.line_total, ROUND(sl.quantity * sl.unit_price))) AS active_total
			FROM garments g
			JOIN service_lines sl ON sl.garment_id = g.id AND sl.is_removed = false
			WHERE g.deleted_at IS NULL
			GROUP BY g.order_id
		) t ON t.order_id = o.id
		LEFT JOIN (
			SELECT order_id, SUM(amount - refunded) AS net_paid
			FROM payments
			WHERE status IN ('completed','partially_refunded','refunded')
			GROUP BY order_id
		) pm ON pm.order_id = o.id
		WHERE o.deleted_at IS NULL AND o.status NOT IN ('cancelled')
		  AND GREATEST(COALESCE(t.active_total,0) - o.discount + o.tax, 0) > COALESCE(pm.net_paid,0)
		ORDER BY o.created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OutstandingOrder
	for rows.Next() {
		var o OutstandingOrder
		if err := rows.Scan(&o.OrderID, &o.Code, &o.CustomerName, &o.OutstandingAt, &o.ActiveTotal, &o.NetPaid); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
