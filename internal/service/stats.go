package service

import (
	"context"
	"sort"

	"github.com/chetan13062004/agromate/internal/apperr"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/repository"
	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
)

// ProductSales summarises one product on the farmer dashboard
type ProductSales struct {
	ProductID int64   `json:"productId,string"`
	Name      string  `json:"name"`
	Status    string  `json:"status"`
	Stock     int     `json:"stock"`
	TotalSold int     `json:"totalSold"`
	Revenue   float64 `json:"revenue"`
	Views     int     `json:"views"`
}

// FarmerStats is the farmer sales summary
type FarmerStats struct {
	TotalProducts    int64              `json:"totalProducts"`
	ProductsByStatus map[string]int64   `json:"productsByStatus"`
	InventoryValue   float64            `json:"inventoryValue"`
	TotalSold        int                `json:"totalSold"`
	Revenue          float64            `json:"revenue"`
	TotalOrders      int                `json:"totalOrders"`
	AverageLineValue float64            `json:"averageLineValue"`
	MedianLineValue  float64            `json:"medianLineValue"`
	MonthlyRevenue   map[string]float64 `json:"monthlyRevenue"`
	TopProducts      []ProductSales     `json:"topProducts"`
}

// AdminStats is the marketplace overview
type AdminStats struct {
	UsersByRole       map[string]int64 `json:"usersByRole"`
	PendingFarmers    int64            `json:"pendingFarmers"`
	ProductsByStatus  map[string]int64 `json:"productsByStatus"`
	OrdersByStatus    map[string]int64 `json:"ordersByStatus"`
	TotalOrders       int64            `json:"totalOrders"`
	Revenue           float64          `json:"revenue"`
	AverageOrderValue float64          `json:"averageOrderValue"`
}

const topProductLimit = 5

type StatsService struct {
	store *repository.Store
}

func NewStatsService(store *repository.Store) *StatsService {
	return &StatsService{store: store}
}

// FarmerStats aggregates the farmer's catalogue and the order lines of
// their products. Cancelled orders do not count as revenue.
func (s *StatsService) FarmerStats(ctx context.Context, farmerID int64) (*FarmerStats, error) {
	var (
		products []*domain.Product
		byStatus []repository.GroupCount
		sales    []repository.SaleLine
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		products, err = s.store.Stats.FarmerProducts(gctx, farmerID)
		return err
	})
	g.Go(func() (err error) {
		byStatus, err = s.store.Stats.ProductsByStatus(gctx, farmerID)
		return err
	})
	g.Go(func() (err error) {
		sales, err = s.store.Stats.FarmerSales(gctx, farmerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal(err, "Failed to compute farmer statistics")
	}

	out := &FarmerStats{
		ProductsByStatus: make(map[string]int64, len(byStatus)),
		MonthlyRevenue:   make(map[string]float64),
		TopProducts:      make([]ProductSales, 0, topProductLimit),
	}
	for _, row := range byStatus {
		out.ProductsByStatus[row.Key] = row.Count
		out.TotalProducts += row.Count
		out.InventoryValue += row.Sum
	}

	orders := make(map[int64]struct{})
	var lineValues stats.Float64Data
	for _, line := range sales {
		if line.Status == domain.OrderCancelled {
			continue
		}
		value := line.Price * float64(line.Quantity)
		orders[line.OrderID] = struct{}{}
		lineValues = append(lineValues, value)
		out.TotalSold += line.Quantity
		out.Revenue += value
		out.MonthlyRevenue[line.CreatedAt.Format("2006-01")] += value
	}
	out.TotalOrders = len(orders)
	out.Revenue = round2(out.Revenue)
	for k, v := range out.MonthlyRevenue {
		out.MonthlyRevenue[k] = round2(v)
	}
	if len(lineValues) > 0 {
		mean, _ := lineValues.Mean()
		median, _ := lineValues.Median()
		out.AverageLineValue = round2(mean)
		out.MedianLineValue = round2(median)
	}

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].TotalSold > products[j].TotalSold
	})
	for _, p := range products {
		if len(out.TopProducts) == topProductLimit {
			break
		}
		out.TopProducts = append(out.TopProducts, ProductSales{
			ProductID: p.ID,
			Name:      p.Name,
			Status:    p.Status,
			Stock:     p.Stock,
			TotalSold: p.TotalSold,
			Revenue:   p.Revenue,
			Views:     p.Views,
		})
	}
	return out, nil
}

// AdminStats runs the overview aggregates concurrently
func (s *StatsService) AdminStats(ctx context.Context) (*AdminStats, error) {
	var (
		users, products, orders []repository.GroupCount
		pending                 int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = s.store.Stats.UsersByRole(gctx)
		return err
	})
	g.Go(func() (err error) {
		pending, err = s.store.Stats.PendingFarmers(gctx)
		return err
	})
	g.Go(func() (err error) {
		products, err = s.store.Stats.ProductsByStatus(gctx, 0)
		return err
	})
	g.Go(func() (err error) {
		orders, err = s.store.Stats.OrdersByStatus(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal(err, "Failed to compute statistics")
	}

	out := &AdminStats{
		UsersByRole:      countMap(users),
		PendingFarmers:   pending,
		ProductsByStatus: countMap(products),
		OrdersByStatus:   countMap(orders),
	}
	var counted int64
	for _, row := range orders {
		out.TotalOrders += row.Count
		if row.Key == domain.OrderCancelled {
			continue
		}
		counted += row.Count
		out.Revenue += row.Sum
	}
	if counted > 0 {
		out.AverageOrderValue = round2(out.Revenue / float64(counted))
	}
	out.Revenue = round2(out.Revenue)
	return out, nil
}

func countMap(rows []repository.GroupCount) map[string]int64 {
	m := make(map[string]int64, len(rows))
	for _, row := range rows {
		m[row.Key] = row.Count
	}
	return m
}

func round2(v float64) float64 {
	r, err := stats.Round(v, 2)
	if err != nil {
		return v
	}
	return r
}
