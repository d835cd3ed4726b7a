package cofarsur

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/adapter/soap"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/utils"
)

var minUnitsRe = regexp.MustCompile(`(?i)m[ií]nimo\D*(\d+)`)

type existenceResult struct {
	Estado *soap.Text `xml:"estado"`
	Stock  *soap.Text `xml:"stock"`
}

type priceResult struct {
	Cost          *soap.Text `xml:"costo_sin_iva"`
	OfferCost     *soap.Text `xml:"costo_oferta_sin_iva"`
	OfferDiscount *soap.Text `xml:"descuento_oferta"`
	Message       *soap.Text `xml:"mensaje"`
}

type orderResult struct {
	Estado  *soap.Text `xml:"estado"`
	Number  *soap.Text `xml:"numero_pedido"`
	AltNum  *soap.Text `xml:"nro_pedido"`
	Message *soap.Text `xml:"mensaje"`
}

func text(t *soap.Text) string {
	if t == nil {
		return ""
	}
	return t.String()
}

// ParseExistence reports availability from a ConsultarExistencia answer:
// estado "true" when present, otherwise stock equal to 1.
func ParseExistence(body []byte) (bool, error) {
	var result existenceResult
	if err := soap.FindElement(body, &result, "return"); err != nil {
		return false, err
	}
	switch {
	case result.Estado != nil:
		return strings.EqualFold(text(result.Estado), "true"), nil
	case result.Stock != nil:
		stock, ok := utils.ParseInt(text(result.Stock))
		return ok && stock == 1, nil
	}
	return false, errors.New("cofarsur existence answer has neither estado nor stock")
}

// ParsePrice maps a ConsultarPrecio answer into an in-stock quote. A non-zero
// offer cost becomes a fixed-price tier whose minimum units come from the
// free-text message, defaulting to 1.
func ParsePrice(body []byte) (domain.Quote, error) {
	var result priceResult
	if err := soap.FindElement(body, &result, "return"); err != nil {
		return domain.Quote{}, err
	}

	quote := domain.Quote{
		InStock:   true,
		ListPrice: utils.ParseNullDecimal(text(result.Cost)),
		Offers:    []domain.OfferTier{},
	}

	offerCost, ok := utils.ParseDecimal(text(result.OfferCost))
	if !ok || !offerCost.IsPositive() {
		return quote, nil
	}

	message := text(result.Message)
	minUnits, minFound := parseMinUnits(message)
	percent, percentOK := utils.ParseDecimal(text(result.OfferDiscount))

	quote.Offers = append(quote.Offers, domain.OfferTier{
		Label:           offerLabel(percent, percentOK, minUnits, minFound, message),
		MinUnits:        minUnits,
		DiscountPercent: percent,
		FixedPrice:      decimal.NewNullDecimal(offerCost),
	})
	return quote, nil
}

func parseMinUnits(message string) (int, bool) {
	match := minUnitsRe.FindStringSubmatch(message)
	if match == nil {
		return 1, false
	}
	n, ok := utils.ParseInt(match[1])
	if !ok || n < 1 {
		return 1, false
	}
	return n, true
}

func offerLabel(percent decimal.Decimal, percentOK bool, minUnits int, minFound bool, message string) string {
	var label string
	if percentOK {
		label = fmt.Sprintf("%s%%", percent.Round(0).String())
	}
	if minFound {
		label += fmt.Sprintf(" min %d unidades", minUnits)
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = message
	}
	if label == "" {
		label = "Oferta"
	}
	return label
}

// ParseOrder maps an AltaPedido answer. estado false is a remote fault.
func ParseOrder(body []byte) (domain.OrderResult, error) {
	var result orderResult
	if err := soap.FindElement(body, &result, "return"); err != nil {
		return domain.OrderResult{}, err
	}

	number := text(result.Number)
	if number == "" {
		number = text(result.AltNum)
	}
	message := text(result.Message)

	if result.Estado != nil && !strings.EqualFold(text(result.Estado), "true") {
		supplierErr := domain.NewSupplierError(domain.KindRemoteFault, domain.SupplierCofarsur, opOrder,
			fmt.Errorf("cofarsur rejected order: %s", message))
		supplierErr.Detail = message
		return domain.OrderResult{}, supplierErr
	}
	if result.Estado == nil && number == "" {
		return domain.OrderResult{}, errors.New("cofarsur order answer has neither estado nor order number")
	}

	return domain.OrderResult{
		Status:       domain.OrderStatusOK,
		OrderNumber:  number,
		Confirmation: message,
	}, nil
}
