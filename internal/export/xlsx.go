// Package export renders aggregated search results into files a sourcing
// team can pass around.
package export

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/Nirmal2000/suppliercanvas-sub000/internal/model"
)

// WriteXLSX writes one workbook: a supplier summary sheet and a flat
// product sheet, in result order.
func WriteXLSX(path string, result *model.AggregatedSearchResult) error {
	f := xlsx.NewFile()

	if err := addSupplierSheet(f, result.Results); err != nil {
		return err
	}
	if err := addProductSheet(f, result.Results); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func addSupplierSheet(f *xlsx.File, suppliers []model.UnifiedSupplier) error {
	sheet, err := f.AddSheet("Suppliers")
	if err != nil {
		return eris.Wrap(err, "xlsx: add suppliers sheet")
	}
	writeRow(sheet, "Supplier", "Platform", "Location", "Badges", "Products", "Matched Inputs", "URL")
	for _, s := range suppliers {
		writeRow(sheet,
			s.Name,
			string(s.Platform),
			s.Location,
			strings.Join(s.Badges, "; "),
			fmt.Sprintf("%d", len(s.Products)),
			strings.Join(s.MatchedInputIDs, "; "),
			s.URL,
		)
	}
	return nil
}

func addProductSheet(f *xlsx.File, suppliers []model.UnifiedSupplier) error {
	sheet, err := f.AddSheet("Products")
	if err != nil {
		return eris.Wrap(err, "xlsx: add products sheet")
	}
	writeRow(sheet, "Title", "Platform", "Supplier", "Price", "Currency", "MOQ", "Product URL", "Image")
	for _, s := range suppliers {
		for _, p := range s.Products {
			writeRow(sheet,
				p.Title,
				string(p.Platform),
				s.Name,
				deref(p.Price),
				deref(p.Currency),
				deref(p.MOQ),
				p.ProductURL,
				p.Image,
			)
		}
	}
	return nil
}

func writeRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
