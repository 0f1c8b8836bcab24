package derive

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed tariffs.yaml
var defaultTariffs []byte

// Tariff is one billable work code.
type Tariff struct {
	Code  string  `yaml:"code"  json:"code"  validate:"required"`
	Label string  `yaml:"label" json:"label" validate:"required"`
	Price float64 `yaml:"price" json:"price" validate:"gte=0"`
}

type tariffFile struct {
	Tariffs []Tariff `yaml:"tariffs" validate:"required,min=1,dive"`
}

// TariffTable is an immutable code/label index over the tariffs. It is safe
// for concurrent use.
type TariffTable struct {
	all     []Tariff
	byCode  map[string]Tariff
	byLabel map[string]Tariff
}

var validate = validator.New()

// DefaultTariffs returns the built-in table.
func DefaultTariffs() *TariffTable {
	t, err := ParseTariffs(defaultTariffs)
	if err != nil {
		panic(fmt.Sprintf("embedded tariffs: %v", err))
	}
	return t
}

// LoadTariffs reads a YAML table from path, or returns the built-in table
// when path is empty.
func LoadTariffs(path string) (*TariffTable, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultTariffs(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tariffs: %w", err)
	}
	return ParseTariffs(b)
}

// ParseTariffs decodes and validates a YAML table. Codes and labels must be
// unique.
func ParseTariffs(b []byte) (*TariffTable, error) {
	var f tariffFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse tariffs: %w", err)
	}
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("tariffs validation failed: %w", err)
	}
	t := &TariffTable{
		all:     make([]Tariff, 0, len(f.Tariffs)),
		byCode:  make(map[string]Tariff, len(f.Tariffs)),
		byLabel: make(map[string]Tariff, len(f.Tariffs)),
	}
	for _, tr := range f.Tariffs {
		tr.Code = strings.TrimSpace(tr.Code)
		tr.Label = strings.TrimSpace(tr.Label)
		ck, lk := codeKey(tr.Code), labelKey(tr.Label)
		if _, dup := t.byCode[ck]; dup {
			return nil, fmt.Errorf("duplicate tariff code %q", tr.Code)
		}
		if _, dup := t.byLabel[lk]; dup {
			return nil, fmt.Errorf("duplicate tariff label %q", tr.Label)
		}
		t.byCode[ck] = tr
		t.byLabel[lk] = tr
		t.all = append(t.all, tr)
	}
	return t, nil
}

// ByCode looks a tariff up by work code ("500-a" matches "500-A").
func (t *TariffTable) ByCode(code string) (Tariff, bool) {
	tr, ok := t.byCode[codeKey(code)]
	return tr, ok
}

// ByLabel looks a tariff up by its label, ignoring case and surrounding
// spaces.
func (t *TariffTable) ByLabel(label string) (Tariff, bool) {
	tr, ok := t.byLabel[labelKey(label)]
	return tr, ok
}

// All returns the tariffs in file order.
func (t *TariffTable) All() []Tariff {
	out := make([]Tariff, len(t.all))
	copy(out, t.all)
	return out
}

func codeKey(s string) string  { return strings.ToUpper(strings.TrimSpace(s)) }
func labelKey(s string) string { return strings.ToLower(strings.Join(strings.Fields(s), " ")) }
