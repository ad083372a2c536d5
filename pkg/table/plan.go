package table

import (
	"fmt"
	"strings"

	domain "github.com/donaldgifford/smartsell/pkg/types"
)

// plan is the per-load mapping from header positions to roles and kinds.
type plan struct {
	header  []string
	roleOf  map[string]domain.Role
	numeric []bool // numeric-role columns
	strict  []bool // price and rating: unparseable cells exclude the row
	revenue string // derived revenue column, "" when not derived
	price   string
	sales   string
}

func newPlan(header []string, schema domain.Schema, o Options) (*plan, error) {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	p := &plan{
		header:  header,
		roleOf:  make(map[string]domain.Role),
		numeric: make([]bool, len(header)),
		strict:  make([]bool, len(header)),
		price:   schema.Price,
		sales:   schema.Sales,
	}

	var missing []string
	for _, role := range domain.RequiredRoles() {
		col := schema.Column(role)
		switch {
		case col == "":
			missing = append(missing, fmt.Sprintf("%s (unmapped)", role))
		case !present[col]:
			missing = append(missing, col)
		default:
			p.roleOf[col] = role
		}
	}

	for _, role := range []domain.Role{
		domain.RoleSubCategory, domain.RoleSales, domain.RoleSuccess, domain.RoleYear,
	} {
		col := schema.Column(role)
		if col == "" {
			continue
		}
		if !present[col] {
			missing = append(missing, col)
			continue
		}
		p.roleOf[col] = role
	}

	revenue := schema.RevenueColumn()
	switch {
	case present[revenue]:
		p.roleOf[revenue] = domain.RoleRevenue
	case o.DeriveRevenue && schema.Sales != "":
		p.revenue = revenue
	case schema.Revenue != "":
		missing = append(missing, schema.Revenue)
	}

	if len(missing) > 0 {
		return nil, &domain.SchemaError{Source: o.Source, Missing: missing}
	}

	for i, h := range header {
		role, ok := p.roleOf[h]
		if !ok || !domain.IsNumericRole(role) {
			continue
		}
		p.numeric[i] = true
		p.strict[i] = role == domain.RolePrice || role == domain.RoleRating
	}

	return p, nil
}

// record converts one row. ok is false when the row is excluded; warns
// also carries cell-level warnings for kept rows.
func (p *plan) record(row []string, line, index int) (rec domain.Record, warns []domain.DataQualityWarning, ok bool) {
	if len(row) != len(p.header) {
		return domain.Record{}, []domain.DataQualityWarning{{
			Line:   line,
			Reason: fmt.Sprintf("expected %d fields, got %d", len(p.header), len(row)),
		}}, false
	}

	rec = domain.Record{
		Index:   index,
		Text:    make(map[string]string),
		Numbers: make(map[string]float64),
	}

	for i, name := range p.header {
		if _, dup := rec.Text[name]; dup {
			continue
		}
		if _, dup := rec.Numbers[name]; dup {
			continue
		}

		if !p.numeric[i] {
			rec.Text[name] = strings.TrimSpace(row[i])
			continue
		}

		v, err := parseNumber(row[i])
		if err == nil {
			rec.Numbers[name] = v
			continue
		}
		warn := domain.DataQualityWarning{
			Line:   line,
			Column: name,
			Value:  row[i],
			Reason: err.Error(),
		}
		if p.strict[i] {
			return domain.Record{}, append(warns, warn), false
		}
		// A blank optional cell is simply missing.
		if strings.TrimSpace(row[i]) != "" {
			warn.Kept = true
			warns = append(warns, warn)
		}
	}

	if p.revenue != "" {
		price, okPrice := rec.Num(p.price)
		sales, okSales := rec.Num(p.sales)
		if okPrice && okSales {
			rec.Numbers[p.revenue] = price * sales
		}
	}

	return rec, warns, true
}

// columns finalizes column kinds. Unmapped columns whose non-empty cells
// all parse as numbers are promoted to numeric in every record.
func (p *plan) columns(records []domain.Record) []domain.Column {
	cols := make([]domain.Column, 0, len(p.header)+1)
	seen := make(map[string]bool, len(p.header))

	for i, name := range p.header {
		if seen[name] {
			continue
		}
		seen[name] = true

		role := p.roleOf[name]
		switch {
		case p.numeric[i]:
			cols = append(cols, domain.Column{Name: name, Kind: domain.KindNumber, Role: role})
		case role == "" && inferNumeric(records, name):
			promote(records, name)
			cols = append(cols, domain.Column{Name: name, Kind: domain.KindNumber})
		default:
			cols = append(cols, domain.Column{Name: name, Kind: domain.KindText, Role: role})
		}
	}

	if p.revenue != "" {
		cols = append(cols, domain.Column{
			Name:    p.revenue,
			Kind:    domain.KindNumber,
			Role:    domain.RoleRevenue,
			Derived: true,
		})
	}

	return cols
}

func inferNumeric(records []domain.Record, name string) bool {
	nonEmpty := 0
	for i := range records {
		v := records[i].Text[name]
		if v == "" {
			continue
		}
		if _, err := parseNumber(v); err != nil {
			return false
		}
		nonEmpty++
	}
	return nonEmpty > 0
}

func promote(records []domain.Record, name string) {
	for i := range records {
		v := records[i].Text[name]
		delete(records[i].Text, name)
		if v == "" {
			continue
		}
		n, _ := parseNumber(v)
		records[i].Numbers[name] = n
	}
}
