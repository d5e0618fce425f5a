// Package pdf genera el comprobante imprimible de una venta.
//
// Layout (ancho A5):
//
//	┌───────────────────────────────────────────┐
//	│  COMPROBANTE DE VENTA   │  N° + Fecha      │
//	│  Franquicia / Vendedor / Estado            │
//	│  ────────────────────────────────────────  │
//	│  Cant | Producto | P.Unit | Subtotal       │
//	│  ────────────────────────────────────────  │
//	│  TOTAL  (+ reverso si aplica)              │
//	│  Tarjeta **** 1234          QR(id venta)   │
//	└───────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/franquicias-pos/internal/application/sales"
	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
)

var _ sales.ReceiptRenderer = (*MarotoReceiptGenerator)(nil)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// MarotoReceiptGenerator implementa sales.ReceiptRenderer con Maroto v2.
type MarotoReceiptGenerator struct {
	title string
}

// NewMarotoReceiptGenerator construye el generador. title aparece en el encabezado.
func NewMarotoReceiptGenerator(title string) *MarotoReceiptGenerator {
	if title == "" {
		title = "COMPROBANTE DE VENTA"
	}
	return &MarotoReceiptGenerator{title: title}
}

// Render genera el PDF y devuelve sus bytes. El número de tarjeta solo aparece enmascarado.
func (g *MarotoReceiptGenerator) Render(sale *entity.Sale, products map[string]*entity.Product) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A5).
		WithLeftMargin(8).WithRightMargin(8).
		WithTopMargin(8).WithBottomMargin(8).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle(g.title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(sale))
	m.AddRows(infoRow(sale))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.4}))
	m.AddRows(tableHeaderRow())
	m.AddRows(itemRows(sale.Items, products)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow(sale))
	if sale.Status.IsTerminal() {
		m.AddRows(reversalRow(sale))
	}
	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(sale))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar comprobante: %w", err)
	}
	return doc.GetBytes(), nil
}

func (g *MarotoReceiptGenerator) headerRow(sale *entity.Sale) core.Row {
	return row.New(14).Add(
		col.New(7).Add(
			text.New(g.title, props.Text{Style: fontstyle.Bold, Size: 11, Color: colorPrimary, Top: 1}),
		),
		col.New(5).Add(
			text.New("N° "+shortID(sale.ID), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 1}),
			text.New(sale.CreatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 7, Align: align.Right, Top: 7, Color: colorGray,
			}),
		),
	)
}

func infoRow(sale *entity.Sale) core.Row {
	return row.New(9).Add(
		col.New(12).Add(
			text.New(fmt.Sprintf("Franquicia: %s   |   Vendedor: %s   |   Estado: %s",
				sale.FranchiseID, sale.SellerID, sale.Status,
			), props.Text{Size: 7, Top: 2, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 7, Align: a, Color: colorPrimary, Top: 1,
		}))
	}
	return row.New(6).Add(
		h("Cant.", 1, align.Center),
		h("Producto", 6, align.Left),
		h("P. Unit.", 2, align.Right),
		h("Subtotal", 3, align.Right),
	)
}

func itemRows(items []entity.SaleItem, products map[string]*entity.Product) []core.Row {
	out := make([]core.Row, 0, len(items))
	for _, it := range items {
		name := it.ProductID
		if p, ok := products[it.ProductID]; ok {
			name = p.Name
			if p.SKU != "" {
				name += " (" + p.SKU + ")"
			}
		}
		out = append(out, row.New(6).Add(
			col.New(1).Add(text.New(fmt.Sprintf("%d", it.Qty), props.Text{Size: 7, Align: align.Center, Top: 1})),
			col.New(6).Add(text.New(name, props.Text{Size: 7, Top: 1})),
			col.New(2).Add(text.New("$"+formatMoney(it.Price), props.Text{Size: 7, Align: align.Right, Top: 1})),
			col.New(3).Add(text.New("$"+formatMoney(it.Subtotal), props.Text{Size: 7, Align: align.Right, Top: 1})),
		))
	}
	return out
}

func totalRow(sale *entity.Sale) core.Row {
	return row.New(9).Add(
		col.New(7),
		col.New(2).Add(text.New("TOTAL:", props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 2,
		})),
		col.New(3).Add(text.New("$"+formatMoney(sale.Total), props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 2,
		})),
	)
}

func reversalRow(sale *entity.Sale) core.Row {
	label := "VENTA CANCELADA"
	if sale.Status == entity.SaleStatusRefunded && sale.RefundTotal != nil {
		label = "REEMBOLSADA: $" + formatMoney(*sale.RefundTotal)
	}
	detail := ""
	if sale.ReversedAt != nil {
		detail = sale.ReversedAt.Format("02/01/2006 15:04")
	}
	if sale.ReversalReason != "" {
		detail = strings.TrimSpace(detail + "  " + sale.ReversalReason)
	}
	return row.New(10).Add(
		col.New(12).Add(
			text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorRed, Top: 1}),
			text.New(detail, props.Text{Size: 7, Color: colorGray, Top: 5}),
		),
	)
}

func footerRow(sale *entity.Sale) core.Row {
	return row.New(28).Add(
		col.New(8).Add(
			text.New("Tarjeta **** "+sale.CardLast4(), props.Text{Size: 8, Top: 2}),
			text.New("Conserve este comprobante para cambios o reembolsos.", props.Text{
				Size: 6.5, Top: 8, Color: colorGray,
			}),
		),
		col.New(4).Add(code.NewQr(sale.ID, props.Rect{Percent: 90, Center: true})),
	)
}

func shortID(id string) string {
	if len(id) <= 8 {
		return strings.ToUpper(id)
	}
	return strings.ToUpper(id[:8])
}

// formatMoney separa miles con punto y decimales con coma; omite ",00".
// Ej: 18500 → "18.500", 1234.5 → "1.234,50"
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3+3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	out := string(buf)
	if frac != "00" {
		out += "," + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
