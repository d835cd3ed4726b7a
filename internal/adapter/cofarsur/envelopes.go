package cofarsur

import (
	"strconv"

	"github.com/ComprasSanchez/pedidos-sucursales/internal/adapter/soap"
	"github.com/ComprasSanchez/pedidos-sucursales/internal/domain"
)

const (
	namespace    = "http://tempuri.org/"
	actionPrefix = "http://tempuri.org/wsdl/"

	opExistence = "ConsultarExistencia"
	opPrice     = "ConsultarPrecio"
	opOrder     = "AltaPedido"
)

// queryEnvelope builds the document/literal request shared by the existence
// and price operations; only the operation name changes.
func queryEnvelope(op string, creds *domain.Credentials, barcode string) []byte {
	data := soap.Element{
		Name: "tem:Datos" + op,
		Children: []soap.Element{
			soap.Leaf("tem:usuario", creds.Username),
			soap.Leaf("tem:clave", creds.Password),
			soap.Leaf("tem:codigo_barra", barcode),
			soap.Leaf("tem:codigo_cofarsur", "0"),
			soap.Leaf("tem:codigo_alfabeta", "0"),
			soap.Leaf("tem:troquel", "0"),
			soap.Leaf("tem:token", creds.Token),
		},
	}
	return soap.Envelope("soap", []soap.Attr{{Name: "xmlns:tem", Value: namespace}},
		soap.Element{Name: "tem:" + op, Children: []soap.Element{data}})
}

// refIDs hands out the sequential ids that link multi-ref nodes
type refIDs struct {
	next int
}

func (r *refIDs) take() string {
	r.next++
	return strconv.Itoa(r.next)
}

func typed(name, xsdType, value string) soap.Element {
	return soap.Element{Name: name, Attrs: []soap.Attr{{Name: "xsi:type", Value: xsdType}}, Text: value}
}

func href(name, id string) soap.Element {
	return soap.Element{Name: name, Attrs: []soap.Attr{{Name: "href", Value: "#" + id}}}
}

// orderEnvelope builds the rpc/encoded AltaPedido request. The order header,
// the items array and every item are independent multi-ref nodes, numbered
// from 1 in document order and linked through href.
func orderEnvelope(creds *domain.Credentials, req domain.OrderRequest) []byte {
	ids := &refIDs{}
	headerID := ids.take()
	arrayID := ids.take()

	itemIDs := make([]string, len(req.Lines))
	for i := range req.Lines {
		itemIDs[i] = ids.take()
	}

	header := soap.Element{
		Name: "tns:TDatosAltaPedido",
		Attrs: []soap.Attr{
			{Name: "id", Value: headerID},
			{Name: "xsi:type", Value: "tns:TDatosAltaPedido"},
		},
		Children: []soap.Element{
			typed("usuario", "xsd:string", creds.Username),
			typed("clave", "xsd:string", creds.Password),
			typed("token", "xsd:string", creds.Token),
			typed("referencia", "xsd:string", req.Options.Reference),
			typed("observaciones", "xsd:string", req.Options.Notes),
			href("items", arrayID),
		},
	}

	array := soap.Element{
		Name: "SOAP-ENC:Array",
		Attrs: []soap.Attr{
			{Name: "id", Value: arrayID},
			{Name: "xsi:type", Value: "SOAP-ENC:Array"},
			{Name: "SOAP-ENC:arrayType", Value: "tns:TItemPedido[" + strconv.Itoa(len(req.Lines)) + "]"},
		},
	}
	for _, id := range itemIDs {
		array.Children = append(array.Children, href("item", id))
	}

	body := []soap.Element{
		{Name: "tns:" + opOrder, Children: []soap.Element{href("DatosAltaPedido", headerID)}},
		header,
		array,
	}
	for i, line := range req.Lines {
		body = append(body, soap.Element{
			Name: "tns:TItemPedido",
			Attrs: []soap.Attr{
				{Name: "id", Value: itemIDs[i]},
				{Name: "xsi:type", Value: "tns:TItemPedido"},
			},
			Children: []soap.Element{
				typed("codigo_barra", "xsd:string", line.ProductCode),
				typed("codigo_cofarsur", "xsd:int", "0"),
				typed("cantidad", "xsd:int", strconv.Itoa(line.Quantity)),
			},
		})
	}

	return soap.Envelope("SOAP-ENV", []soap.Attr{
		{Name: "xmlns:SOAP-ENC", Value: soap.EncodingNS},
		{Name: "xmlns:xsd", Value: soap.XSDNS},
		{Name: "xmlns:xsi", Value: soap.XSINS},
		{Name: "xmlns:tns", Value: namespace},
		{Name: "SOAP-ENV:encodingStyle", Value: soap.EncodingNS},
	}, body...)
}
