package policy

// #region imports
import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/synklabs/ordergate/internal/order"
)

// #endregion

// #region errors

// ErrCatalogUnreadable marks a malformed required catalog. Loading aborts;
// there is no default to substitute for the product or inventory books.
var ErrCatalogUnreadable = errors.New("catalog unreadable")

// #endregion

// #region schemas

//go:embed schemas/*.json
var schemaFS embed.FS

func compiledSchema(name string) (*jsonschema.Schema, error) {
	raw, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", name, err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	return compiler.Compile(name)
}

// validateAgainst checks raw catalog bytes against an embedded schema.
func validateAgainst(schemaName string, raw []byte) error {
	schema, err := compiledSchema(schemaName)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

// #endregion

// #region catalog-files

// supplierCatalog mirrors suppliers.json.
type supplierCatalog struct {
	Suppliers map[string]Supplier `json:"suppliers"`
}

// factoryCatalog mirrors factory.json.
type factoryCatalog struct {
	Lines            []FactoryLine              `json:"lines"`
	StrategyProfiles map[string]StrategyProfile `json:"strategy_profiles,omitempty"`
}

// carrierCatalog mirrors carriers.json.
type carrierCatalog struct {
	Origin          string               `json:"origin"`
	CarrierNetworks map[string][]Carrier `json:"carrier_networks"`
}

// #endregion

// #region load

// Load builds a store from JSON files under dir. materials.json and
// inventory.json are required; every policy table file is optional and
// falls back to its built-in default. Present files are schema-validated.
func Load(dir string) (*Store, error) {
	s := &Store{
		Procurement: DefaultProcurement(),
		Production:  DefaultProduction(),
		Logistics:   DefaultLogistics(),
		Finance:     DefaultFinance(),
		Sales:       DefaultSales(),
		suppliers:   DefaultSuppliers(),
		carriers:    map[string][]Carrier{},
	}

	var products []Product
	if err := loadRequired(dir, "materials.json", "materials.schema.json", &products); err != nil {
		return nil, err
	}
	s.setMaterials(products)

	var items []StockItem
	if err := loadRequired(dir, "inventory.json", "inventory.schema.json", &items); err != nil {
		return nil, err
	}
	s.setInventory(items)

	if err := loadOptional(dir, "procurement.json", "policy.schema.json", &s.Procurement); err != nil {
		return nil, err
	}
	if err := loadOptional(dir, "production.json", "policy.schema.json", &s.Production); err != nil {
		return nil, err
	}
	if err := loadOptional(dir, "logistics.json", "policy.schema.json", &s.Logistics); err != nil {
		return nil, err
	}
	if err := loadOptional(dir, "finance.json", "policy.schema.json", &s.Finance); err != nil {
		return nil, err
	}
	if err := loadOptional(dir, "sales.json", "policy.schema.json", &s.Sales); err != nil {
		return nil, err
	}

	var supCat supplierCatalog
	if err := loadOptional(dir, "suppliers.json", "policy.schema.json", &supCat); err != nil {
		return nil, err
	}
	for name, sup := range supCat.Suppliers {
		if sup.Name == "" {
			sup.Name = name
		}
		s.suppliers[name] = sup
	}

	var facCat factoryCatalog
	if err := loadOptional(dir, "factory.json", "policy.schema.json", &facCat); err != nil {
		return nil, err
	}
	s.lines = facCat.Lines
	for tag, prof := range facCat.StrategyProfiles {
		s.Production.StrategyProfiles[order.NormalizeStrategy(tag)] = prof
	}

	var carCat carrierCatalog
	if err := loadOptional(dir, "carriers.json", "policy.schema.json", &carCat); err != nil {
		return nil, err
	}
	for mode, network := range carCat.CarrierNetworks {
		s.carriers[mode] = network
	}

	return s, nil
}

// loadRequired reads and validates a required catalog file.
func loadRequired(dir, name, schemaName string, out any) error {
	path := filepath.Join(dir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCatalogUnreadable, name, err)
	}
	if err := validateAgainst(schemaName, raw); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCatalogUnreadable, name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCatalogUnreadable, name, err)
	}
	return nil
}

// loadOptional reads one optional table, merging file fields over the
// defaults already present in out. A missing file is not an error; a
// present but malformed file is.
func loadOptional(dir, name, schemaName string, out any) error {
	path := filepath.Join(dir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("[POLICY] %s absent, using built-in defaults", name)
			return nil
		}
		return fmt.Errorf("%w: %s: %v", ErrCatalogUnreadable, name, err)
	}
	if err := validateAgainst(schemaName, raw); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCatalogUnreadable, name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCatalogUnreadable, name, err)
	}
	return nil
}

// #endregion
