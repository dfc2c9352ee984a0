package services

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

const (
	bestSellersLimit = 5
	lowStockLimit    = 10
	recentOrderLimit = 10
	trendMonths      = 12
)

// AnalyticsService computes the admin dashboard figures. Only succeeded
// orders count toward revenue and order totals.
type AnalyticsService struct {
	Orders            *repos.OrderRepo
	Prods             *repos.ProductRepo
	LowStockThreshold int
	Loc               *time.Location
	Now               func() time.Time
}

func NewAnalyticsService(orders *repos.OrderRepo, prods *repos.ProductRepo, lowStock int, loc *time.Location) *AnalyticsService {
	if loc == nil {
		loc = time.UTC
	}
	if lowStock <= 0 {
		lowStock = 10
	}
	return &AnalyticsService{Orders: orders, Prods: prods, LowStockThreshold: lowStock, Loc: loc, Now: time.Now}
}

// monthStart returns the first instant of the month offset months from t's.
func monthStart(t time.Time, offset int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(offset), 1, 0, 0, 0, 0, t.Location())
}

func monthRange(t time.Time, offset int) *domain.DateRange {
	return &domain.DateRange{From: monthStart(t, offset), To: monthStart(t, offset+1)}
}

func (s *AnalyticsService) Compute(ctx context.Context) (domain.Analytics, error) {
	now := s.Now().In(s.Loc)
	fail := func(what string, err error) (domain.Analytics, error) {
		return domain.Analytics{}, fmt.Errorf("%w: %s: %w", ErrAggregation, what, err)
	}

	var a domain.Analytics

	total, err := s.Orders.AggregateRevenueAndCount(ctx, nil, domain.PaymentSucceeded)
	if err != nil {
		return fail("total revenue", err)
	}
	a.TotalRevenue, a.TotalOrders = total.Revenue, total.Count

	month, err := s.Orders.AggregateRevenueAndCount(ctx, monthRange(now, 0), domain.PaymentSucceeded)
	if err != nil {
		return fail("monthly revenue", err)
	}
	a.MonthlyRevenue, a.MonthlyOrders = month.Revenue, month.Count

	last, err := s.Orders.AggregateRevenueAndCount(ctx, monthRange(now, -1), domain.PaymentSucceeded)
	if err != nil {
		return fail("last month revenue", err)
	}
	a.LastMonthRevenue = last.Revenue

	if a.BestSellingProducts, err = s.Prods.TopSelling(ctx, bestSellersLimit); err != nil {
		return fail("best sellers", err)
	}
	if a.LowStockProducts, err = s.Prods.ListLowStock(ctx, s.LowStockThreshold, lowStockLimit); err != nil {
		return fail("low stock", err)
	}
	if a.RecentOrders, err = s.Orders.FindRecent(ctx, recentOrderLimit, domain.PaymentSucceeded); err != nil {
		return fail("recent orders", err)
	}

	a.MonthlyTrends = make([]domain.MonthlyTrend, 0, trendMonths)
	for i := trendMonths - 1; i >= 0; i-- {
		rng := monthRange(now, -i)
		sum, err := s.Orders.AggregateRevenueAndCount(ctx, rng, domain.PaymentSucceeded)
		if err != nil {
			return fail("monthly trends", err)
		}
		a.MonthlyTrends = append(a.MonthlyTrends, domain.MonthlyTrend{
			Month:   rng.From.Format("Jan 2006"),
			Revenue: sum.Revenue,
			Orders:  sum.Count,
		})
	}
	return a, nil
}
