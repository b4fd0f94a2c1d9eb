// Package datagen synthesizes the logistics exercise schema: cities, customers, shippers,
// packages, orders, vehicles, couriers, routes, courier shift schedules, deliveries placed
// inside those shifts, tracking history, warehouses with stock, feedback, payments,
// incidents and warehouse staff. Every foreign id it emits points at a generated row.
package datagen

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
	ShiftLength     = 8 * time.Hour
)

// ShiftStarts are the hours a courier shift may begin.
var ShiftStarts = []int{6, 14, 22}

// TrackingSteps is the order a parcel moves through.
var TrackingSteps = []string{"Processing", "Dispatched", "In Transit", "Out for Delivery", "Delivered"}

var (
	VehicleTypes    = []string{"Van", "Truck", "Bike", "Car"}
	VehicleStatuses = []string{"Available", "In Service", "Maintenance"}
	PaymentMethods  = []string{"Credit Card", "PayPal", "Bank Transfer", "Cash"}
	EmployeeRoles   = []string{"Manager", "Supervisor", "Loader", "Clerk", "Security"}
)

type Options struct {
	Seed uint64
	// Base is the first day dates are drawn from; the window is one year.
	Base time.Time

	Cities     int
	Customers  int
	Shippers   int
	Packages   int
	Orders     int
	Vehicles   int
	Couriers   int
	Routes     int
	Schedules  int
	Deliveries int // at most Orders: delivery i ships order i
	Warehouses int
	Employees  int
	Feedback   int
	Incidents  int
	// MaxTrackingPerDelivery bounds the status history; each delivery gets at least two.
	MaxTrackingPerDelivery int
}

func DefaultOptions(now time.Time) Options {
	y, m, d := now.AddDate(0, 0, -365).Date()
	return Options{
		Seed:                   42,
		Base:                   time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Cities:                 100,
		Customers:              500,
		Shippers:               20,
		Packages:               200,
		Orders:                 400,
		Vehicles:               80,
		Couriers:               100,
		Routes:                 150,
		Schedules:              400,
		Deliveries:             350,
		Warehouses:             15,
		Employees:              200,
		Feedback:               300,
		Incidents:              30,
		MaxTrackingPerDelivery: 5,
	}
}

func (o Options) end() time.Time { return o.Base.AddDate(0, 0, 365) }

type City struct {
	ID   int
	Name string
}

type Customer struct {
	ID     int
	Name   string
	Email  string
	Phone  string
	CityID int
}

type Shipper struct {
	ID            int
	CompanyName   string
	ContactNumber string
}

type Package struct {
	ID          int
	Weight      decimal.Decimal // kg
	Dimensions  string
	Description string
}

type Order struct {
	ID         int
	CustomerID int
	ShipperID  int
	PackageID  int
	Date       time.Time
}

type Vehicle struct {
	ID           int
	Type         string
	LicensePlate string
	Status       string
}

type Courier struct {
	ID        int
	Name      string
	Phone     string
	VehicleID int
}

type Route struct {
	ID                int
	OriginCityID      int
	DestinationCityID int
	DistanceKM        decimal.Decimal
}

type Schedule struct {
	ID         int
	CourierID  int
	ShiftStart time.Time
	ShiftEnd   time.Time
	WorkDate   time.Time
}

type Delivery struct {
	ID        int
	OrderID   int
	CourierID int
	RouteID   int
	Date      time.Time
	Time      time.Time
}

type TrackingStatus struct {
	ID         int
	DeliveryID int
	Status     string
	UpdatedAt  time.Time
}

type Warehouse struct {
	ID      int
	CityID  int
	Address string
}

type InventoryItem struct {
	WarehouseID int
	PackageID   int
	Quantity    int
}

type Feedback struct {
	ID      int
	OrderID int
	Rating  int
	Comment string
	Date    time.Time
}

type Payment struct {
	ID      int
	OrderID int
	Method  string
	Amount  decimal.Decimal
	Date    time.Time
}

type Incident struct {
	ID          int
	DeliveryID  int
	Description string
	ReportedAt  time.Time
}

type Employee struct {
	ID          int
	Name        string
	Role        string
	WarehouseID int
}

type Dataset struct {
	Cities     []City
	Customers  []Customer
	Shippers   []Shipper
	Packages   []Package
	Orders     []Order
	Vehicles   []Vehicle
	Couriers   []Courier
	Routes     []Route
	Schedules  []Schedule
	Deliveries []Delivery
	Tracking   []TrackingStatus
	Warehouses []Warehouse
	Inventory  []InventoryItem
	Feedback   []Feedback
	Payments   []Payment
	Incidents  []Incident
	Employees  []Employee
}

var (
	cityHeads = []string{"North", "South", "East", "West", "New", "Port", "Lake", "Fort", "Glen", "Mount"}
	cityTails = []string{"haven", "field", "ridge", "ford", "ville", "brook", "stead", "view", "wood", "port"}
	firsts    = []string{"Ada", "Grace", "Alan", "Linus", "Barbara", "Ken", "Margaret", "Dennis", "Radia", "John", "Frances", "Edsger"}
	lasts     = []string{"Lovelace", "Hopper", "Turing", "Torvalds", "Liskov", "Thompson", "Hamilton", "Ritchie", "Perlman", "Backus", "Allen", "Dijkstra"}
	firmTails = []string{"Logistics", "Freight", "Express", "Cargo", "Haulage", "Couriers"}
	streets   = []string{"Main", "Oak", "Mill", "Station", "Harbor", "Church", "Park", "High", "Bridge", "Market"}
	words     = []string{
		"fragile", "parcel", "box", "spare", "parts", "books", "cables", "tools", "samples", "documents",
		"arrived", "late", "damaged", "quick", "friendly", "driver", "left", "door", "wrong", "address",
		"signed", "by", "neighbour", "missing", "label", "delayed", "weather", "customs", "held", "at",
	}
)

// Generate builds the dataset. Equal options always give equal output.
func Generate(opt Options) (Dataset, error) {
	if err := opt.check(); err != nil {
		return Dataset{}, err
	}
	g := &gen{r: rand.New(rand.NewPCG(opt.Seed, opt.Seed)), opt: opt}
	var ds Dataset

	for i := 1; i <= opt.Cities; i++ {
		ds.Cities = append(ds.Cities, City{ID: i, Name: g.pick(cityHeads) + g.pick(cityTails)})
	}
	for i := 1; i <= opt.Customers; i++ {
		first, last := g.pick(firsts), g.pick(lasts)
		ds.Customers = append(ds.Customers, Customer{
			ID:     i,
			Name:   first + " " + last,
			Email:  fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), i),
			Phone:  g.phone(),
			CityID: g.id(opt.Cities),
		})
	}
	for i := 1; i <= opt.Shippers; i++ {
		ds.Shippers = append(ds.Shippers, Shipper{ID: i, CompanyName: g.pick(lasts) + " " + g.pick(firmTails), ContactNumber: g.phone()})
	}
	for i := 1; i <= opt.Packages; i++ {
		ds.Packages = append(ds.Packages, Package{
			ID:          i,
			Weight:      g.amount(0.1, 50),
			Dimensions:  fmt.Sprintf("%dx%dx%d cm", g.between(5, 80), g.between(5, 80), g.between(5, 80)),
			Description: g.sentence(6),
		})
	}
	for i := 1; i <= opt.Orders; i++ {
		ds.Orders = append(ds.Orders, Order{
			ID:         i,
			CustomerID: g.id(opt.Customers),
			ShipperID:  g.id(opt.Shippers),
			PackageID:  g.id(opt.Packages),
			Date:       g.day(),
		})
	}
	for i := 1; i <= opt.Vehicles; i++ {
		ds.Vehicles = append(ds.Vehicles, Vehicle{
			ID:           i,
			Type:         g.pick(VehicleTypes),
			LicensePlate: fmt.Sprintf("%c%c-%04d", 'A'+rune(g.r.IntN(26)), 'A'+rune(g.r.IntN(26)), i),
			Status:       g.pick(VehicleStatuses),
		})
	}
	for i := 1; i <= opt.Couriers; i++ {
		ds.Couriers = append(ds.Couriers, Courier{ID: i, Name: g.name(), Phone: g.phone(), VehicleID: g.id(opt.Vehicles)})
	}
	for i := 1; i <= opt.Routes; i++ {
		origin := g.id(opt.Cities)
		dest := g.id(opt.Cities - 1)
		if dest >= origin {
			dest++
		}
		ds.Routes = append(ds.Routes, Route{ID: i, OriginCityID: origin, DestinationCityID: dest, DistanceKM: g.amount(10, 2000)})
	}
	for i := 1; i <= opt.Schedules; i++ {
		day := g.day()
		start := day.Add(time.Duration(pick(g.r, ShiftStarts)) * time.Hour)
		ds.Schedules = append(ds.Schedules, Schedule{
			ID:         i,
			CourierID:  g.id(opt.Couriers),
			ShiftStart: start,
			ShiftEnd:   start.Add(ShiftLength),
			WorkDate:   day,
		})
	}

	// Each delivery borrows a schedule so its courier is on shift at the delivery time.
	for i := 1; i <= opt.Deliveries; i++ {
		s := ds.Schedules[g.r.IntN(len(ds.Schedules))]
		ds.Deliveries = append(ds.Deliveries, Delivery{
			ID:        i,
			OrderID:   i,
			CourierID: s.CourierID,
			RouteID:   g.id(opt.Routes),
			Date:      s.WorkDate,
			Time:      s.ShiftStart.Add(g.seconds(s.ShiftEnd.Sub(s.ShiftStart))),
		})
	}

	// Status history walks the steps in order and ends at the delivery time.
	for _, d := range ds.Deliveries {
		n := g.between(2, opt.MaxTrackingPerDelivery)
		at := d.Time
		hist := make([]TrackingStatus, n)
		for k := n - 1; k >= 0; k-- {
			hist[k] = TrackingStatus{DeliveryID: d.ID, Status: TrackingSteps[len(TrackingSteps)-n+k], UpdatedAt: at}
			at = at.Add(-time.Duration(g.between(1, 48)) * time.Hour)
		}
		for _, h := range hist {
			h.ID = len(ds.Tracking) + 1
			ds.Tracking = append(ds.Tracking, h)
		}
	}

	for i := 1; i <= opt.Warehouses; i++ {
		ds.Warehouses = append(ds.Warehouses, Warehouse{
			ID:      i,
			CityID:  g.id(opt.Cities),
			Address: fmt.Sprintf("%d %s Street, %s", g.between(1, 999), g.pick(streets), g.pick(cityHeads)+g.pick(cityTails)),
		})
	}
	// One stock line per (warehouse, package).
	for _, w := range ds.Warehouses {
		n := min(g.between(20, 60), opt.Packages)
		for _, p := range g.r.Perm(opt.Packages)[:n] {
			ds.Inventory = append(ds.Inventory, InventoryItem{WarehouseID: w.ID, PackageID: p + 1, Quantity: g.between(1, 50)})
		}
	}

	for i := 1; i <= opt.Feedback; i++ {
		ds.Feedback = append(ds.Feedback, Feedback{
			ID:      i,
			OrderID: g.id(opt.Orders),
			Rating:  g.between(1, 5),
			Comment: g.sentence(8),
			Date:    g.day(),
		})
	}
	for _, o := range ds.Orders {
		ds.Payments = append(ds.Payments, Payment{
			ID:      o.ID,
			OrderID: o.ID,
			Method:  g.pick(PaymentMethods),
			Amount:  g.amount(20, 1000),
			Date:    o.Date.AddDate(0, 0, g.between(0, 3)),
		})
	}
	for i := 1; i <= opt.Incidents; i++ {
		ds.Incidents = append(ds.Incidents, Incident{
			ID:          i,
			DeliveryID:  g.id(opt.Deliveries),
			Description: g.sentence(7),
			ReportedAt:  opt.end().Add(-g.seconds(90 * 24 * time.Hour)),
		})
	}
	for i := 1; i <= opt.Employees; i++ {
		ds.Employees = append(ds.Employees, Employee{ID: i, Name: g.name(), Role: g.pick(EmployeeRoles), WarehouseID: g.id(opt.Warehouses)})
	}
	return ds, nil
}

// check refuses counts that would leave a foreign id without a row to point at.
func (o Options) check() error {
	rules := []struct {
		ok  bool
		msg string
	}{
		{(o.Customers == 0 && o.Warehouses == 0 && o.Routes == 0) || o.Cities > 0, "customers, warehouses and routes need cities"},
		{o.Routes == 0 || o.Cities >= 2, "routes need two distinct cities"},
		{o.Orders == 0 || (o.Customers > 0 && o.Shippers > 0 && o.Packages > 0), "orders need customers, shippers and packages"},
		{o.Couriers == 0 || o.Vehicles > 0, "couriers need vehicles"},
		{o.Schedules == 0 || o.Couriers > 0, "schedules need couriers"},
		{o.Deliveries == 0 || (o.Schedules > 0 && o.Routes > 0), "deliveries need schedules and routes"},
		{o.Deliveries <= o.Orders, "deliveries cannot outnumber orders"},
		{o.Deliveries == 0 || o.MaxTrackingPerDelivery >= 2, "tracking needs at least two steps per delivery"},
		{o.MaxTrackingPerDelivery <= len(TrackingSteps), "tracking steps exceed the step list"},
		{o.Warehouses == 0 || o.Packages > 0, "warehouse stock needs packages"},
		{o.Feedback == 0 || o.Orders > 0, "feedback needs orders"},
		{o.Incidents == 0 || o.Deliveries > 0, "incidents need deliveries"},
		{o.Employees == 0 || o.Warehouses > 0, "employees need warehouses"},
	}
	for _, r := range rules {
		if !r.ok {
			return fmt.Errorf("datagen: %s", r.msg)
		}
	}
	return nil
}

type gen struct {
	r   *rand.Rand
	opt Options
}

func pick[T any](r *rand.Rand, xs []T) T { return xs[r.IntN(len(xs))] }

func (g *gen) pick(xs []string) string { return pick(g.r, xs) }

// id returns a random id in [1, n].
func (g *gen) id(n int) int { return 1 + g.r.IntN(n) }

// between returns a random int in [lo, hi].
func (g *gen) between(lo, hi int) int { return lo + g.r.IntN(hi-lo+1) }

// day returns a midnight inside the one year window.
func (g *gen) day() time.Time { return g.opt.Base.AddDate(0, 0, g.r.IntN(365)) }

// seconds returns a whole-second offset in [0, d].
func (g *gen) seconds(d time.Duration) time.Duration {
	return time.Duration(g.r.Int64N(int64(d/time.Second)+1)) * time.Second
}

// amount returns a value in [lo, hi] rounded to cents.
func (g *gen) amount(lo, hi float64) decimal.Decimal {
	return decimal.NewFromFloat(lo + g.r.Float64()*(hi-lo)).Round(2)
}

func (g *gen) name() string { return g.pick(firsts) + " " + g.pick(lasts) }

func (g *gen) phone() string { return fmt.Sprintf("555-%03d-%04d", g.r.IntN(1000), g.r.IntN(10000)) }

func (g *gen) sentence(n int) string {
	ws := make([]string, n)
	for i := range ws {
		ws[i] = g.pick(words)
	}
	ws[0] = strings.ToUpper(ws[0][:1]) + ws[0][1:]
	return strings.Join(ws, " ") + "."
}
