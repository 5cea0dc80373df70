package services

import "presale-tracker/models"

// samplePriceFloor excludes zero-filled and noise unit prices from samples.
const samplePriceFloor = 10

// Aggregator folds normalized rows into per-project accumulators keyed by the
// exact project name. It is not safe for concurrent use; one Aggregator serves
// one pass.
type Aggregator struct {
	projects     map[string]*models.ProjectAccumulator
	order        []string
	transactions []models.Transaction
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{projects: make(map[string]*models.ProjectAccumulator)}
}

// Add folds one row. The transaction, if any, is applied first; the row's
// parking price then attaches to the project only if its bucket exists,
// which may be from an earlier row.
func (a *Aggregator) Add(row models.NormalizedRow) {
	if tx := row.Transaction; tx != nil {
		a.addTransaction(row.Project, tx)
	}

	if row.ParkingPrice > 0 {
		if acc, ok := a.projects[row.Project]; ok {
			acc.Parking.Count++
			acc.Parking.Prices = append(acc.Parking.Prices, row.ParkingPrice)
		}
	}
}

// AddAll folds rows in order.
func (a *Aggregator) AddAll(rows []models.NormalizedRow) {
	for _, r := range rows {
		a.Add(r)
	}
}

func (a *Aggregator) addTransaction(name string, tx *models.Transaction) {
	acc, ok := a.projects[name]
	if !ok {
		acc = newAccumulator(name, tx)
		a.projects[name] = acc
		a.order = append(a.order, name)
	}

	acc.Transactions++
	if tx.UnitPrice > samplePriceFloor {
		acc.UnitPrices = append(acc.UnitPrices, tx.UnitPrice)
	}
	acc.TotalPrices = append(acc.TotalPrices, tx.TotalPrice)
	acc.TotalPriceSum += tx.TotalPrice
	acc.Areas = append(acc.Areas, tx.NetArea)

	if tx.DateRaw != "" {
		acc.Dates = append(acc.Dates, tx.DateRaw)
		if tx.Date != nil {
			acc.ParsedDates = append(acc.ParsedDates, *tx.Date)
		}
	}

	if tx.Special {
		acc.SpecialCount++
	}

	rs, ok := acc.Rooms[tx.RoomType]
	if !ok {
		rs = &models.RoomStats{}
		acc.Rooms[tx.RoomType] = rs
	}
	rs.Count++
	rs.Areas = append(rs.Areas, tx.NetArea)
	if tx.UnitPrice > samplePriceFloor {
		rs.UnitPrices = append(rs.UnitPrices, tx.UnitPrice)
	}
	rs.Totals = append(rs.Totals, tx.TotalPrice)

	a.transactions = append(a.transactions, *tx)
}

func newAccumulator(name string, first *models.Transaction) *models.ProjectAccumulator {
	district := first.District
	if district == "" {
		district = models.UnknownDistrict
	}
	address := first.Address
	if address == "" {
		address = models.UnknownAddress
	}
	return &models.ProjectAccumulator{
		Name:     name,
		District: district,
		Address:  address,
		Rooms:    make(map[models.RoomType]*models.RoomStats),
	}
}

// Projects returns the accumulators in first-seen order.
func (a *Aggregator) Projects() []*models.ProjectAccumulator {
	out := make([]*models.ProjectAccumulator, len(a.order))
	for i, name := range a.order {
		out[i] = a.projects[name]
	}
	return out
}

// Project returns the accumulator for name, if any.
func (a *Aggregator) Project(name string) (*models.ProjectAccumulator, bool) {
	acc, ok := a.projects[name]
	return acc, ok
}

// Transactions returns a copy of every folded transaction in input order.
func (a *Aggregator) Transactions() []models.Transaction {
	out := make([]models.Transaction, len(a.transactions))
	copy(out, a.transactions)
	return out
}
