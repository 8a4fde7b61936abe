package policy

import "strings"

// #region store

// Store exposes immutable policy tables and catalogs. It is read-only after
// load and safe to share across concurrent evaluations.
type Store struct {
	Procurement ProcurementPolicy
	Production  ProductionPolicy
	Logistics   LogisticsPolicy
	Finance     FinancePolicy
	Sales       SalesPolicy

	products  map[string]Product
	stock     map[string]StockItem
	suppliers map[string]Supplier
	lines     []FactoryLine
	carriers  map[string][]Carrier
}

// Default builds a store from built-in defaults and the demo catalog.
func Default() *Store {
	s := &Store{
		Procurement: DefaultProcurement(),
		Production:  DefaultProduction(),
		Logistics:   DefaultLogistics(),
		Finance:     DefaultFinance(),
		Sales:       DefaultSales(),
		suppliers:   DefaultSuppliers(),
		carriers:    map[string][]Carrier{},
	}
	s.setMaterials(DefaultMaterials())
	s.setInventory(DefaultInventory())
	return s
}

func (s *Store) setMaterials(products []Product) {
	s.products = make(map[string]Product, len(products))
	for _, p := range products {
		s.products[p.SKU] = p
	}
}

func (s *Store) setInventory(items []StockItem) {
	s.stock = make(map[string]StockItem, len(items))
	for _, it := range items {
		s.stock[it.MaterialID] = it
	}
}

// #endregion

// #region lookups

// Product returns the BOM entry for a SKU.
func (s *Store) Product(sku string) (Product, bool) {
	p, ok := s.products[sku]
	return p, ok
}

// Stock returns the inventory position for a material.
func (s *Store) Stock(materialID string) (StockItem, bool) {
	it, ok := s.stock[materialID]
	return it, ok
}

// Supplier returns the supplier record by name. An unknown name yields a
// supplier with the procurement policy's lead time and a neutral price
// multiplier, so policy files stay optional.
func (s *Store) Supplier(name string) Supplier {
	if sup, ok := s.suppliers[name]; ok {
		if sup.PriceMultiplier <= 0 {
			sup.PriceMultiplier = 1.0
		}
		return sup
	}
	lead := s.Procurement.PrimaryLeadTimeDays
	if name == s.Procurement.AlternateSupplier {
		lead = s.Procurement.AlternateLeadTimeDays
	}
	return Supplier{Name: name, LeadTimeDays: lead, PriceMultiplier: 1.0}
}

// FactoryLines returns the factory lines supporting a SKU.
func (s *Store) FactoryLines(sku string) []FactoryLine {
	var out []FactoryLine
	for _, l := range s.lines {
		if l.Supports(sku) {
			out = append(out, l)
		}
	}
	return out
}

// Carriers returns the carrier network for a shipping mode. A mode with no
// configured network falls back to a single universal carrier.
func (s *Store) Carriers(mode string) []Carrier {
	if list := s.carriers[mode]; len(list) > 0 {
		return list
	}
	return []Carrier{defaultCarrier(mode)}
}

// CustomerProfile returns the matched customer record or the default profile.
func (s *Store) CustomerProfile(customer string) CustomerProfile {
	key := strings.ToLower(strings.TrimSpace(customer))
	if p, ok := s.Sales.Customers[key]; ok {
		return p
	}
	return s.Sales.DefaultCustomer
}

// LocationProfile classifies a destination, defaulting to national.
func (s *Store) LocationProfile(location string) LocationProfile {
	key := strings.ToLower(strings.TrimSpace(location))
	if p, ok := s.Logistics.LocationProfiles[key]; ok {
		return p
	}
	return LocationProfile{Type: "national", DistanceKM: 1000}
}

// VolumeDiscountRate returns the discount step for a quantity. The tiers
// form a non-decreasing step function; an uncovered quantity discounts 0.
func (s *Store) VolumeDiscountRate(quantity int) float64 {
	for _, tier := range s.Finance.VolumeDiscounts {
		if quantity >= tier.MinQty && quantity <= tier.MaxQty {
			return tier.Rate
		}
	}
	return 0.0
}

// MaterialCostCapMultiplier returns the unit-cost cap multiplier for a
// quantity tier. MaxQty 0 marks the unbounded top tier.
func (s *Store) MaterialCostCapMultiplier(quantity int) float64 {
	for _, tier := range s.Finance.MaterialCostCaps {
		if tier.MaxQty == 0 || quantity <= tier.MaxQty {
			return tier.Multiplier
		}
	}
	return 1.0
}

// #endregion
