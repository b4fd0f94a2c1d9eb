package datagen

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type table struct {
	name   string
	header []string
	rows   [][]string
}

func itoa(n int) string { return strconv.Itoa(n) }

func ts(t time.Time) string { return t.Format(TimestampLayout) }

func date(t time.Time) string { return t.Format(DateLayout) }

// Tables lists the file names WriteCSV produces, in load order.
func Tables() []string {
	var names []string
	for _, t := range (Dataset{}).tables() {
		names = append(names, t.name)
	}
	return names
}

func (ds Dataset) tables() []table {
	tbl := []table{
		{name: "Cities", header: []string{"city_id", "city_name"}},
		{name: "Customers", header: []string{"customer_id", "name", "email", "phone", "city_id"}},
		{name: "Shippers", header: []string{"shipper_id", "company_name", "contact_number"}},
		{name: "Packages", header: []string{"package_id", "weight", "dimensions", "content_description"}},
		{name: "Orders", header: []string{"order_id", "customer_id", "shipper_id", "package_id", "order_date"}},
		{name: "Vehicles", header: []string{"vehicle_id", "vehicle_type", "license_plate", "status"}},
		{name: "Couriers", header: []string{"courier_id", "name", "phone", "vehicle_id"}},
		{name: "Routes", header: []string{"route_id", "origin_city_id", "destination_city_id", "distance_km"}},
		{name: "Schedules", header: []string{"schedule_id", "courier_id", "shift_start", "shift_end", "work_date"}},
		{name: "Deliveries", header: []string{"delivery_id", "order_id", "courier_id", "route_id", "delivery_date", "delivery_time"}},
		{name: "Tracking_Status", header: []string{"status_id", "delivery_id", "status", "updated_at"}},
		{name: "Warehouses", header: []string{"warehouse_id", "city_id", "address"}},
		{name: "Warehouse_Inventory", header: []string{"warehouse_id", "package_id", "quantity"}},
		{name: "Feedback", header: []string{"feedback_id", "order_id", "rating", "COMMENT", "feedback_date"}},
		{name: "Payments", header: []string{"payment_id", "order_id", "payment_method", "amount", "payment_date"}},
		{name: "Incidents", header: []string{"incident_id", "delivery_id", "description", "reported_at"}},
		{name: "Employees", header: []string{"employee_id", "name", "role", "warehouse_id"}},
	}
	add := func(i int, row ...string) { tbl[i].rows = append(tbl[i].rows, row) }

	for _, c := range ds.Cities {
		add(0, itoa(c.ID), c.Name)
	}
	for _, c := range ds.Customers {
		add(1, itoa(c.ID), c.Name, c.Email, c.Phone, itoa(c.CityID))
	}
	for _, s := range ds.Shippers {
		add(2, itoa(s.ID), s.CompanyName, s.ContactNumber)
	}
	for _, p := range ds.Packages {
		add(3, itoa(p.ID), p.Weight.StringFixed(2), p.Dimensions, p.Description)
	}
	for _, o := range ds.Orders {
		add(4, itoa(o.ID), itoa(o.CustomerID), itoa(o.ShipperID), itoa(o.PackageID), date(o.Date))
	}
	for _, v := range ds.Vehicles {
		add(5, itoa(v.ID), v.Type, v.LicensePlate, v.Status)
	}
	for _, c := range ds.Couriers {
		add(6, itoa(c.ID), c.Name, c.Phone, itoa(c.VehicleID))
	}
	for _, r := range ds.Routes {
		add(7, itoa(r.ID), itoa(r.OriginCityID), itoa(r.DestinationCityID), r.DistanceKM.StringFixed(2))
	}
	for _, s := range ds.Schedules {
		add(8, itoa(s.ID), itoa(s.CourierID), ts(s.ShiftStart), ts(s.ShiftEnd), date(s.WorkDate))
	}
	for _, d := range ds.Deliveries {
		add(9, itoa(d.ID), itoa(d.OrderID), itoa(d.CourierID), itoa(d.RouteID), date(d.Date), ts(d.Time))
	}
	for _, t := range ds.Tracking {
		add(10, itoa(t.ID), itoa(t.DeliveryID), t.Status, ts(t.UpdatedAt))
	}
	for _, w := range ds.Warehouses {
		add(11, itoa(w.ID), itoa(w.CityID), w.Address)
	}
	for _, i := range ds.Inventory {
		add(12, itoa(i.WarehouseID), itoa(i.PackageID), itoa(i.Quantity))
	}
	for _, f := range ds.Feedback {
		add(13, itoa(f.ID), itoa(f.OrderID), itoa(f.Rating), f.Comment, date(f.Date))
	}
	for _, p := range ds.Payments {
		add(14, itoa(p.ID), itoa(p.OrderID), p.Method, p.Amount.StringFixed(2), date(p.Date))
	}
	for _, i := range ds.Incidents {
		add(15, itoa(i.ID), itoa(i.DeliveryID), i.Description, ts(i.ReportedAt))
	}
	for _, e := range ds.Employees {
		add(16, itoa(e.ID), e.Name, e.Role, itoa(e.WarehouseID))
	}
	return tbl
}

// WriteCSV writes one <Table>.csv per table into dir, creating dir if needed.
func WriteCSV(dir string, ds Dataset) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("datagen: %w", err)
	}
	for _, t := range ds.tables() {
		if err := writeTable(filepath.Join(dir, t.name+".csv"), t); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(path string, t table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("datagen: %w", err)
	}
	w := csv.NewWriter(f)
	_ = w.Write(t.header)
	_ = w.WriteAll(t.rows)
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("datagen: write %s: %w", t.name, err)
	}
	return f.Close()
}
