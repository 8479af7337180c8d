package scpd

import (
	"testing"

	avmodel "github.com/upnpgo/avengine/internal/model"
)

func TestBuildAndParseDeviceDescription(t *testing.T) {
	root := EmbeddedDevice{
		UDN:          "uuid:abc",
		FriendlyName: "Test Renderer",
		Manufacturer: "Test",
		ModelName:    "TR-1",
		Type:         avmodel.DeviceType{Tag: avmodel.DeviceMediaRenderer, Version: 1},
		Services: []avmodel.Service{
			{
				Type:        avmodel.ServiceType{Tag: avmodel.ServiceAVTransport, Version: 1},
				ServiceID:   "urn:upnp-org:serviceId:AVTransport",
				ControlURL:  "/upnp/control/avtransport",
				EventSubURL: "/upnp/event/avtransport",
				SCPDURL:     "/upnp/service/avtransport.xml",
			},
		},
	}

	doc := BuildDeviceDescription("http://10.0.0.5:1234/", root)
	parsed, err := ParseDeviceDescription(doc, "http://10.0.0.5:1234/desc.xml")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.UDN != "uuid:abc" {
		t.Errorf("got UDN %q", parsed.UDN)
	}
	if parsed.FriendlyName != "Test Renderer" {
		t.Errorf("got friendlyName %q", parsed.FriendlyName)
	}
	if parsed.Type.Tag != avmodel.DeviceMediaRenderer {
		t.Errorf("got device tag %v", parsed.Type.Tag)
	}
	if len(parsed.Services) != 1 || parsed.Services[0].Type.Tag != avmodel.ServiceAVTransport {
		t.Fatalf("expected one AVTransport service, got %+v", parsed.Services)
	}
	if parsed.BaseURL != "http://10.0.0.5:1234/" {
		t.Errorf("expected URLBase to win over LOCATION, got %q", parsed.BaseURL)
	}
}

func TestActionDocumentBuildAndParseRoundTrip(t *testing.T) {
	doc := Document{
		Actions: []ActionDescriptor{
			{
				Name: "Play",
				Arguments: []ArgumentDescriptor{
					{Name: "InstanceID", Direction: DirectionIn, RelatedStateVariable: "A_ARG_TYPE_InstanceID"},
					{Name: "Speed", Direction: DirectionIn, RelatedStateVariable: "TransportPlaySpeed"},
				},
			},
		},
		Variables: []StateVariableDescriptor{
			{Name: "TransportState", DataType: "string", SendEvents: true},
			{Name: "TransportPlaySpeed", DataType: "string", SendEvents: false},
		},
	}

	parsed := Parse(doc.Build())
	if len(parsed.Actions) != 1 || parsed.Actions[0].Name != "Play" {
		t.Fatalf("expected one Play action, got %+v", parsed.Actions)
	}
	if len(parsed.Actions[0].Arguments) != 2 {
		t.Fatalf("expected 2 arguments, got %d", len(parsed.Actions[0].Arguments))
	}
	if parsed.Actions[0].Arguments[1].Name != "Speed" {
		t.Errorf("expected argument order preserved, got %+v", parsed.Actions[0].Arguments)
	}
	if len(parsed.Variables) != 2 || !parsed.Variables[0].SendEvents {
		t.Fatalf("expected TransportState sendEvents=true, got %+v", parsed.Variables)
	}
}

func TestParseMalformedDocumentDegradesGracefully(t *testing.T) {
	doc := Parse([]byte("not xml at all"))
	if len(doc.Actions) != 0 || len(doc.Variables) != 0 {
		t.Errorf("expected empty Document on malformed input, got %+v", doc)
	}
}
