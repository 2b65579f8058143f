// internal/app/system/csvutil/products.go
package csvutil

import (
	"encoding/csv"
	"html/template"
	"io"
	"strconv"
	"strings"
)

// ProductCSVRow is the normalized row produced by PreScanProductsCSV.
// Columns: name, category, price, unit (optional, defaults to kg),
// stock (optional, defaults to 0).
type ProductCSVRow struct {
	Name     string
	Category string
	Price    float64
	Unit     string
	Stock    int
}

// PreScanProductsCSV reads all rows from r, skips a header if present,
// validates each row, and either returns normalized rows OR a formatted
// HTML error message describing the first few bad lines. It never writes
// to the database, so it is safe to call before any mutations.
func PreScanProductsCSV(r io.Reader) (rows []ProductCSVRow, htmlErr template.HTML, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	first, ferr := reader.Read()
	if ferr == io.EOF {
		first = nil
	} else if ferr != nil {
		return nil, template.HTML(template.HTMLEscapeString(ferr.Error())), nil
	}

	var raw [][]string
	if len(first) >= 2 &&
		(strings.EqualFold(strings.TrimSpace(first[0]), "name") ||
			strings.EqualFold(strings.TrimSpace(first[0]), "nom")) {
		// header detected, skip it
	} else if first != nil {
		raw = append(raw, first)
	}
	for {
		rec, e := reader.Read()
		if e == io.EOF {
			break
		}
		if e != nil || len(rec) == 0 {
			continue
		}
		raw = append(raw, rec)
		if len(raw) > MaxRows {
			return nil, template.HTML("Upload rejected: too many rows."), nil
		}
	}

	type rowErr struct{ Name, Category, Price, Reason string }
	var errs []rowErr

	field := func(rec []string, i int) string {
		if len(rec) > i {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	for _, rec := range raw {
		name := field(rec, 0)
		category := field(rec, 1)
		priceStr := field(rec, 2)
		unit := field(rec, 3)
		stockStr := field(rec, 4)

		if name == "" && category == "" && priceStr == "" {
			continue
		}

		row := ProductCSVRow{Name: name, Category: category, Unit: unit}
		bad := false

		if name == "" {
			errs = append(errs, rowErr{name, category, priceStr, "missing name"})
			bad = true
		}
		if category == "" {
			errs = append(errs, rowErr{name, category, priceStr, "missing category"})
			bad = true
		}
		price, perr := strconv.ParseFloat(strings.ReplaceAll(priceStr, ",", ""), 64)
		if perr != nil || price < 0 {
			errs = append(errs, rowErr{name, category, priceStr, "invalid price"})
			bad = true
		} else {
			row.Price = price
		}
		if stockStr != "" {
			stock, serr := strconv.Atoi(stockStr)
			if serr != nil || stock < 0 {
				errs = append(errs, rowErr{name, category, priceStr, "invalid stock"})
				bad = true
			} else {
				row.Stock = stock
			}
		}

		if !bad {
			rows = append(rows, row)
		}
	}

	if len(errs) > 0 {
		var b strings.Builder
		b.WriteString("Import rejeté : certaines lignes sont invalides.<br>")
		b.WriteString("Chaque ligne doit avoir un nom, une catégorie et un prix positif.<br>")

		max := 5
		if len(errs) < max {
			max = len(errs)
		}
		if max > 0 {
			b.WriteString("Exemples :<br>")
			for i := 0; i < max; i++ {
				e := errs[i]
				name := e.Name
				if name == "" {
					name = "(sans nom)"
				}
				b.WriteString("• ")
				b.WriteString(template.HTMLEscapeString(name))
				b.WriteString(" | ")
				b.WriteString(template.HTMLEscapeString(e.Category))
				b.WriteString(" | ")
				b.WriteString(template.HTMLEscapeString(e.Price))
				b.WriteString(" → ")
				b.WriteString(template.HTMLEscapeString(e.Reason))
				b.WriteString("<br>")
			}
		}
		return nil, template.HTML(b.String()), nil
	}

	return rows, "", nil
}
