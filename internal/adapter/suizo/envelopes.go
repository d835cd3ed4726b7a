package suizo

import (
	"strconv"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/adapter/soap"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
)

const (
	namespace    = "http://tempuri.org/wspedidos2/"
	actionPrefix = "http://tempuri.org/wspedidos2/action/wspedidos2."

	opStock = "Stock"
	opOrder = "Pedido"
)

func envelope(op string, params ...soap.Element) []byte {
	return soap.Envelope("soapenv", []soap.Attr{{Name: "xmlns:ws", Value: namespace}},
		soap.Element{Name: "ws:" + op, Children: params})
}

// stockEnvelope asks for stock and price of a single barcode
func stockEnvelope(creds *domain.Credentials, stockType, barcode string) []byte {
	return envelope(opStock,
		soap.Leaf("tcUsuario", creds.Username),
		soap.Leaf("tcClave", creds.Password),
		soap.Leaf("tcTipo", stockType),
		soap.Leaf("tcArticulos", barcode),
		soap.Leaf("tcCliente", creds.AccountCode),
	)
}

// orderDocument renders the VFP cursor the Pedido operation expects as its
// tcPedido string parameter.
func orderDocument(lines []domain.OrderLine) []byte {
	doc := soap.Element{Name: "VFPData"}
	for _, line := range lines {
		doc.Children = append(doc.Children, soap.Element{
			Name: "row",
			Attrs: []soap.Attr{
				{Name: "codbarra", Value: line.ProductCode},
				{Name: "cantidad", Value: strconv.Itoa(line.Quantity)},
			},
		})
	}
	return doc.Marshal()
}

// orderEnvelope embeds the order document as escaped text
func orderEnvelope(creds *domain.Credentials, req domain.OrderRequest) []byte {
	return envelope(opOrder,
		soap.Leaf("tcUsuario", creds.Username),
		soap.Leaf("tcClave", creds.Password),
		soap.Leaf("tcCliente", creds.AccountCode),
		soap.Leaf("tcPedido", string(orderDocument(req.Lines))),
		soap.Leaf("tcReferencia", req.Options.Reference),
		soap.Leaf("tcObservaciones", req.Options.Notes),
	)
}
