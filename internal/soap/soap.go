// Package soap builds and parses the SOAP envelopes UPnP action control
// uses over HTTP POST, and maps HTTP 500 <s:Fault> bodies to the shared
// error taxonomy. Per-service fault ranges live alongside each concrete
// service in internal/avclient, consulted through the HandleUPnPResult hook
// each service supplies.
package soap

import (
	"fmt"

	avmodel "github.com/upnpgo/avengine/internal/model"
	xmlu "github.com/upnpgo/avengine/internal/xmlutil"
	averrors "github.com/upnpgo/avengine/internal/errors"
)

const (
	envelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
	encodingNS = "http://schemas.xmlsoap.org/soap/encoding/"
)

// BuildEnvelope serializes action into a full SOAP envelope body, in the
// exact shape UPnP control requires: <s:Envelope><s:Body><u:Name
// xmlns:u="...">args...</u:Name></s:Body></s:Envelope>. Argument order in
// the output equals action.ArgumentList's insertion order.
func BuildEnvelope(action *avmodel.Action) []byte {
	envelope := xmlu.NewElement("s:Envelope")
	envelope.SetAttr("xmlns:s", envelopeNS)
	envelope.SetAttr("s:encodingStyle", encodingNS)

	body := envelope.AddChild(xmlu.NewElement("s:Body"))
	actionEl := body.AddChild(xmlu.NewElement("u:" + action.Name))
	actionEl.SetAttr("xmlns:u", avmodel.ServiceTypeToUrnTypeString(action.ServiceType))

	action.ArgumentList.Each(func(name, value string) {
		actionEl.AddTextChild(name, value)
	})

	return []byte(xml1_0Header + envelope.String())
}

const xml1_0Header = `<?xml version="1.0" encoding="utf-8"?>` + "\n"

// SOAPActionHeader renders the SOAPACTION header value for action, e.g.
// "urn:schemas-upnp-org:service:AVTransport:1#Play".
func SOAPActionHeader(action *avmodel.Action) string {
	return fmt.Sprintf("%q", avmodel.ServiceTypeToUrnTypeString(action.ServiceType)+"#"+action.Name)
}

// ParseResponse extracts the named child elements of
// <u:ActionNameResponse> in document order as an ArgumentList.
func ParseResponse(actionName string, body []byte) (*avmodel.ArgumentList, error) {
	root, err := xmlu.Parse(body)
	if err != nil {
		return nil, averrors.InvalidResponse(err, "malformed SOAP response body")
	}
	bodyEl, ok := root.FindChild("Body")
	if !ok {
		return nil, averrors.InvalidResponse(nil, "SOAP response missing Body element")
	}
	respEl, ok := bodyEl.FindChild(actionName + "Response")
	if !ok {
		return nil, averrors.InvalidResponse(nil, "SOAP response missing %sResponse element", actionName)
	}
	args := avmodel.NewArgumentList()
	for _, c := range respEl.Children {
		args.Add(c.Name, c.Text)
	}
	return args, nil
}

// ParseRequest extracts the action name and ordered arguments out of an
// incoming SOAP action request body, the device-host counterpart to
// BuildEnvelope.
func ParseRequest(body []byte) (actionName string, args *avmodel.ArgumentList, err error) {
	root, parseErr := xmlu.Parse(body)
	if parseErr != nil {
		return "", nil, averrors.InvalidResponse(parseErr, "malformed SOAP request body")
	}
	bodyEl, ok := root.FindChild("Body")
	if !ok || len(bodyEl.Children) == 0 {
		return "", nil, averrors.InvalidResponse(nil, "SOAP request missing Body element")
	}
	actionEl := bodyEl.Children[0]

	args = avmodel.NewArgumentList()
	for _, c := range actionEl.Children {
		args.Add(c.Name, c.Text)
	}
	return localXMLName(actionEl.Name), args, nil
}

// localXMLName strips a namespace prefix ("u:Play" -> "Play").
func localXMLName(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == ':' {
			return name[i+1:]
		}
	}
	return name
}

// BuildResponseEnvelope serializes a successful action result into the
// <ActionNameResponse> envelope UPnP action control requires in reply.
func BuildResponseEnvelope(actionName string, serviceType avmodel.ServiceType, result *avmodel.ArgumentList) []byte {
	envelope := xmlu.NewElement("s:Envelope")
	envelope.SetAttr("xmlns:s", envelopeNS)
	envelope.SetAttr("s:encodingStyle", encodingNS)

	body := envelope.AddChild(xmlu.NewElement("s:Body"))
	respEl := body.AddChild(xmlu.NewElement("u:" + actionName + "Response"))
	respEl.SetAttr("xmlns:u", avmodel.ServiceTypeToUrnTypeString(serviceType))

	result.Each(func(name, value string) {
		respEl.AddTextChild(name, value)
	})

	return []byte(xml1_0Header + envelope.String())
}

// BuildFaultEnvelope renders a <s:Fault> body carrying a UPnPError of the
// given code/description, the body an avhost action handler's error is
// translated into before the 500 response is written.
func BuildFaultEnvelope(code int, description string) []byte {
	envelope := xmlu.NewElement("s:Envelope")
	envelope.SetAttr("xmlns:s", envelopeNS)
	envelope.SetAttr("s:encodingStyle", encodingNS)

	body := envelope.AddChild(xmlu.NewElement("s:Body"))
	fault := body.AddChild(xmlu.NewElement("s:Fault"))
	fault.AddTextChild("faultcode", "s:Client")
	fault.AddTextChild("faultstring", "UPnPError")

	detail := fault.AddChild(xmlu.NewElement("detail"))
	upnpError := detail.AddChild(xmlu.NewElement("UPnPError"))
	upnpError.SetAttr("xmlns", "urn:schemas-upnp-org:control-1-0")
	upnpError.AddTextChild("errorCode", fmt.Sprintf("%d", code))
	upnpError.AddTextChild("errorDescription", description)

	return []byte(xml1_0Header + envelope.String())
}

// Fault is a parsed <s:Fault> body.
type Fault struct {
	FaultCode   string
	FaultString string
	ErrorCode   int
	Description string
}

// ParseFault extracts the UPnPError code/description out of an HTTP 500
// <s:Fault> body.
func ParseFault(body []byte) (*Fault, error) {
	root, err := xmlu.Parse(body)
	if err != nil {
		return nil, averrors.InvalidResponse(err, "malformed SOAP fault body")
	}
	bodyEl, ok := root.FindChild("Body")
	if !ok {
		return nil, averrors.InvalidResponse(nil, "SOAP fault missing Body element")
	}
	faultEl, ok := bodyEl.FindChild("Fault")
	if !ok {
		return nil, averrors.InvalidResponse(nil, "SOAP fault missing Fault element")
	}

	f := &Fault{}
	if code, ok := faultEl.FindChild("faultcode"); ok {
		f.FaultCode = code.Text
	}
	if str, ok := faultEl.FindChild("faultstring"); ok {
		f.FaultString = str.Text
	}
	if upnpErr, ok := faultEl.FindDescendant("UPnPError"); ok {
		if codeEl, ok := upnpErr.FindChild("errorCode"); ok {
			fmt.Sscanf(codeEl.Text, "%d", &f.ErrorCode)
		}
		if descEl, ok := upnpErr.FindChild("errorDescription"); ok {
			f.Description = descEl.Text
		}
	}
	return f, nil
}

// HandleUPnPResultFunc is the shape of a per-service fault mapper: it maps a
// service-specific fault code into a descriptive error, falling back to a
// generic UPnPError for codes it doesn't recognize. The concrete services in
// internal/avclient do not use this type; each implements
// ServiceTraits.HandleUPnPResult(code, defaultMessage) instead.
type HandleUPnPResultFunc func(code int) error

// GenericUPnPError builds the fallback error for a fault code no
// per-service table recognizes.
func GenericUPnPError(code int) error {
	return averrors.UPnPError(code, fmt.Sprintf("UPnP error %d", code))
}
