// Package pdf implementa la generación del RIDE (Representación Impresa del
// Documento Electrónico) según la Ficha Técnica de Comprobantes Electrónicos
// del SRI.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Razón Social + RUC  │  N° Factura + Autorización   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CLAVE DE ACCESO (49 dígitos) + código QR                   │
//	│  EMISOR: Dirección / Régimen / Ambiente                      │
//	│  ADQUIRENTE: Nombre + Identificación + contacto              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | Subtotal               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / IVA / VALOR TOTAL                       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: leyenda de validez + fecha de autorización          │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

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

	appbilling "github.com/dcevallos/restopos-api/internal/application/billing"
	"github.com/dcevallos/restopos-api/internal/domain/entity"
	pkgsri "github.com/dcevallos/restopos-api/pkg/sri"
)

var (
	colorPrimary = &props.Color{Red: 139, Green: 0, Blue: 0}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var _ appbilling.RIDEGenerator = (*MarotoRIDEGenerator)(nil)

// MarotoRIDEGenerator implementa billing.RIDEGenerator usando Maroto v2.
type MarotoRIDEGenerator struct{}

// NewMarotoRIDEGenerator construye el generador.
func NewMarotoRIDEGenerator() *MarotoRIDEGenerator { return &MarotoRIDEGenerator{} }

// GenerateRIDE genera el PDF del comprobante autorizado y devuelve sus bytes.
func (g *MarotoRIDEGenerator) GenerateRIDE(
	_ context.Context,
	bill *entity.Bill,
	restaurant *entity.Restaurant,
	items []*entity.OrderItem,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Factura Electrónica SRI", true).
		WithAuthor(restaurant.Billing.RazonSocial, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(bill, restaurant))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	for _, r := range claveAccesoRows(bill) {
		m.AddRows(r)
	}
	m.AddRows(emisorRow(restaurant, bill))
	m.AddRows(adquirenteRow(bill))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableDetailRows(items) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(bill))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range footerRows(bill) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar RIDE: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRow: razón social + RUC (izq), número y autorización (der).
func headerRow(bill *entity.Bill, restaurant *entity.Restaurant) core.Row {
	name := restaurant.Billing.NombreComercial
	if name == "" {
		name = restaurant.Billing.RazonSocial
	}
	return row.New(20).Add(
		col.New(7).Add(
			text.New(name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(restaurant.Billing.RazonSocial, props.Text{
				Size: 8, Top: 8, Color: colorGray,
			}),
			text.New("RUC: "+restaurant.Billing.RUC, props.Text{
				Size: 9, Top: 13, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("FACTURA ELECTRÓNICA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("No. "+bill.Number, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Emisión: "+bill.CreatedAt.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// claveAccesoRows: la clave de 49 dígitos en texto y código QR para
// verificación en el portal del SRI.
func claveAccesoRows(bill *entity.Bill) []core.Row {
	return []core.Row{
		row.New(5).Add(col.New(12).Add(
			text.New("CLAVE DE ACCESO", props.Text{
				Style: fontstyle.Bold, Size: 7, Color: colorPrimary, Top: 1,
			}),
		)),
		row.New(24).Add(col.New(12).Add(
			code.NewQr(bill.AccessKey, props.Rect{Percent: 90, Center: true}),
		)),
		row.New(4).Add(col.New(12).Add(
			text.New(bill.AccessKey, props.Text{
				Size: 7, Align: align.Center, Color: colorGray,
			}),
		)),
	}
}

// emisorRow: dirección, régimen y ambiente.
func emisorRow(restaurant *entity.Restaurant, bill *entity.Bill) core.Row {
	ambiente := "PRODUCCIÓN"
	if bill.Environment == pkgsri.EnvironmentPruebas {
		ambiente = "PRUEBAS"
	}
	return row.New(12).Add(
		col.New(12).Add(
			text.New("DATOS DEL EMISOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Dirección: %s   |   Régimen: %s   |   Ambiente: %s",
				nonEmpty(restaurant.Billing.Direccion, "—"),
				nonEmpty(restaurant.Billing.Regime, "—"),
				ambiente,
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// adquirenteRow: datos del comprador.
func adquirenteRow(bill *entity.Bill) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("ADQUIRENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(bill.CustomerName, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("Identificación: %s   |   Email: %s",
				bill.CustomerIdentification,
				nonEmpty(bill.CustomerEmail, "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 6, align.Left),
		h("P. Unitario", 2, align.Right),
		h("Subtotal", 3, align.Right),
	)
}

// tableDetailRows: una fila por línea de la orden.
func tableDetailRows(items []*entity.OrderItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				it.Quantity.StringFixed(0),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(6).Add(text.New(
				it.Name,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				"$"+it.Price.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(3).Add(text.New(
				"$"+it.Subtotal().StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(bill *entity.Bill) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2,
		})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1,
		})
	}

	return row.New(26).Add(
		col.New(3),
		col.New(3).Add(
			label("Subtotal:"),
			label(fmt.Sprintf("IVA %s%%:", bill.TaxRate.StringFixed(0))),
			grandLabel("VALOR TOTAL:"),
		),
		col.New(3).Add(
			value("$"+bill.Subtotal.StringFixed(2)),
			value("$"+bill.Tax.StringFixed(2)),
			grandValue("$"+bill.Total.StringFixed(2)),
		),
		col.New(3),
	)
}

// footerRows: número de autorización + leyenda de validez.
func footerRows(bill *entity.Bill) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("AUTORIZACIÓN SRI", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
		row.New(5).Add(col.New(12).Add(
			text.New("Número de autorización: "+bill.AuthorizationNumber, props.Text{
				Size: 8, Top: 1, Color: colorGray,
			}),
		)),
	}
	if bill.AuthorizedAt != nil {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("Fecha y hora de autorización: "+bill.AuthorizedAt.Format("02/01/2006 15:04:05"), props.Text{
				Size: 8, Top: 1, Color: colorGray,
			}),
		)))
	}
	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New(
			"Este documento es la representación impresa de un comprobante electrónico "+
				"autorizado por el Servicio de Rentas Internas. Verifíquelo con la clave de "+
				"acceso en el portal del SRI.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	)))
	return rows
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
