package suizo

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/adapter/soap"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
	"github.com/ComprasSanchez/pedidos-sucursales/pkg/utils"
)

var (
	percentRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)
	minUnitsRe = regexp.MustCompile(`(?i)Min\.?:\s*(\d+)`)
	schemaRe   = regexp.MustCompile(`(?s)<xsd:schema.*?</xsd:schema>`)

	unescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#13;", "\n", "&amp;", "&")
)

// ErrNoDocument is returned when a Result carries no VFPData cursor
var ErrNoDocument = errors.New("suizo result has no VFPData document")

type vfpRow struct {
	Barcode string `xml:"codbarra,attr"`
	Stock   string `xml:"stock,attr"`
	Price   string `xml:"precio,attr"`
	Offer   string `xml:"oferta,attr"`
	Number  string `xml:"nropedido,attr"`
	Outcome string `xml:"resultado,attr"`
	Message string `xml:"mensaje,attr"`
}

type vfpData struct {
	Rows []vfpRow `xml:"row"`
}

// extractDocument pulls the VFP cursor out of the Result element. The
// cursor may arrive escaped once or twice; the inline schema is dropped.
func extractDocument(body []byte) (string, error) {
	var result soap.Text
	if err := soap.FindElement(body, &result, "Result"); err != nil {
		return "", err
	}

	doc := result.Value
	for i := 0; i < 2 && !strings.Contains(doc, "<VFPData"); i++ {
		doc = unescaper.Replace(doc)
	}
	doc = schemaRe.ReplaceAllString(doc, "")

	start := strings.Index(doc, "<VFPData")
	if start < 0 {
		return "", ErrNoDocument
	}
	return doc[start:], nil
}

func decodeRows(body []byte) ([]vfpRow, error) {
	doc, err := extractDocument(body)
	if err != nil {
		return nil, err
	}

	decoder := soap.NewDecoder(strings.NewReader(doc))
	decoder.Strict = false

	var data vfpData
	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("decode VFPData: %w", err)
	}
	return data.Rows, nil
}

// ParseStockResponse maps the row of barcode into a quote. A cursor
// without that barcode is an unavailable quote.
func ParseStockResponse(body []byte, barcode string) (domain.Quote, error) {
	rows, err := decodeRows(body)
	if err != nil {
		return domain.Quote{}, err
	}

	for _, row := range rows {
		if strings.TrimSpace(row.Barcode) != barcode {
			continue
		}
		quote := domain.Quote{
			InStock: strings.EqualFold(strings.TrimSpace(row.Stock), "si"),
			Offers:  []domain.OfferTier{},
		}
		if price, ok := utils.ParseDecimal(row.Price); ok && price.IsPositive() {
			quote.ListPrice = utils.ParseNullDecimal(row.Price)
		}
		if tier, ok := parseOffer(row.Offer); ok {
			quote.Offers = append(quote.Offers, tier)
		}
		return quote, nil
	}
	return domain.UnavailableQuote(domain.SupplierSuizo), nil
}

// parseOffer reads legends such as "FAR-20.00% Min.:3 -Dto.Cli"
func parseOffer(raw string) (domain.OfferTier, bool) {
	match := percentRe.FindStringSubmatch(raw)
	if match == nil {
		return domain.OfferTier{}, false
	}
	percent, ok := utils.ParseDecimal(match[1])
	if !ok || !percent.IsPositive() {
		return domain.OfferTier{}, false
	}

	tier := domain.OfferTier{MinUnits: 1, DiscountPercent: percent}
	labelMin := 0
	if m := minUnitsRe.FindStringSubmatch(raw); m != nil {
		if n, ok := utils.ParseInt(m[1]); ok && n > 0 {
			tier.MinUnits = n
			labelMin = n
		}
	}
	tier.Label = domain.OfferLabel(percent, labelMin)
	return tier, true
}

// ParseOrderResponse reads the confirmation cursor of a Pedido call
func ParseOrderResponse(body []byte) (domain.OrderResult, error) {
	rows, err := decodeRows(body)
	if err != nil {
		return domain.OrderResult{}, err
	}
	if len(rows) == 0 {
		return domain.OrderResult{}, errors.New("suizo order answer has no rows")
	}

	row := rows[0]
	message := strings.TrimSpace(row.Message)
	outcome := strings.TrimSpace(row.Outcome)
	if outcome != "" && !strings.EqualFold(outcome, "OK") {
		supplierErr := domain.NewSupplierError(domain.KindRemoteFault, domain.SupplierSuizo, opOrder,
			fmt.Errorf("suizo rejected order: %s", message))
		supplierErr.Detail = message
		return domain.OrderResult{}, supplierErr
	}

	number := strings.TrimSpace(row.Number)
	if number == "" {
		return domain.OrderResult{}, errors.New("suizo order answer has no order number")
	}
	return domain.OrderResult{
		Status:       domain.OrderStatusOK,
		OrderNumber:  number,
		Confirmation: message,
	}, nil
}
