package soap

import (
	"strings"
	"testing"

	avmodel "github.com/upnpgo/avengine/internal/model"
)

func TestBuildEnvelopeArgumentOrder(t *testing.T) {
	action := avmodel.NewAction("Seek", "http://10.0.0.5/control/AVTransport",
		avmodel.ServiceType{Tag: avmodel.ServiceAVTransport, Version: 1})
	action.ArgumentList.Add("InstanceID", "0").Add("Unit", "REL_TIME").Add("Target", "0:01:00")

	body := string(BuildEnvelope(action))

	idx1 := strings.Index(body, "<InstanceID>")
	idx2 := strings.Index(body, "<Unit>")
	idx3 := strings.Index(body, "<Target>")
	if idx1 < 0 || idx2 < 0 || idx3 < 0 {
		t.Fatalf("missing expected elements in body: %s", body)
	}
	if !(idx1 < idx2 && idx2 < idx3) {
		t.Errorf("expected InstanceID < Unit < Target order, got body: %s", body)
	}
	if !strings.Contains(body, `<u:Seek xmlns:u="urn:schemas-upnp-org:service:AVTransport:1">`) {
		t.Errorf("missing action element with serviceType namespace: %s", body)
	}
}

func TestSOAPActionHeader(t *testing.T) {
	action := avmodel.NewAction("Play", "http://x/control", avmodel.ServiceType{Tag: avmodel.ServiceAVTransport, Version: 1})
	got := SOAPActionHeader(action)
	want := `"urn:schemas-upnp-org:service:AVTransport:1#Play"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseResponse(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
 <s:Body>
  <u:PlayResponse xmlns:u="urn:schemas-upnp-org:service:AVTransport:1">
  </u:PlayResponse>
 </s:Body>
</s:Envelope>`)
	args, err := ParseResponse("Play", body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if args.Len() != 0 {
		t.Errorf("expected no arguments, got %d", args.Len())
	}
}

func TestParseRequestExtractsActionNameAndArgs(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
 <s:Body>
  <u:SetVolume xmlns:u="urn:schemas-upnp-org:service:RenderingControl:1">
   <InstanceID>0</InstanceID>
   <Channel>Master</Channel>
   <DesiredVolume>42</DesiredVolume>
  </u:SetVolume>
 </s:Body>
</s:Envelope>`)
	actionName, args, err := ParseRequest(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actionName != "SetVolume" {
		t.Errorf("got action name %q, want SetVolume", actionName)
	}
	if v, _ := args.Get("DesiredVolume"); v != "42" {
		t.Errorf("got DesiredVolume %q, want 42", v)
	}
}

func TestBuildResponseEnvelopeRoundTripsThroughParseResponse(t *testing.T) {
	result := avmodel.NewArgumentList().Add("CurrentVolume", "42")
	body := BuildResponseEnvelope("GetVolume", avmodel.ServiceType{Tag: avmodel.ServiceRenderingControl, Version: 1}, result)

	args, err := ParseResponse("GetVolume", body)
	if err != nil {
		t.Fatalf("unexpected error parsing the built response: %v", err)
	}
	if v, _ := args.Get("CurrentVolume"); v != "42" {
		t.Errorf("got CurrentVolume %q, want 42", v)
	}
}

func TestBuildFaultEnvelopeRoundTripsThroughParseFault(t *testing.T) {
	body := BuildFaultEnvelope(701, "Playback transition not supported at this moment")

	fault, err := ParseFault(body)
	if err != nil {
		t.Fatalf("unexpected error parsing the built fault: %v", err)
	}
	if fault.ErrorCode != 701 {
		t.Errorf("got errorCode %d, want 701", fault.ErrorCode)
	}
	if fault.Description != "Playback transition not supported at this moment" {
		t.Errorf("got description %q", fault.Description)
	}
}

func TestParseFaultExtractsErrorCode(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
 <s:Body>
  <s:Fault>
   <faultcode>s:Client</faultcode>
   <faultstring>UPnPError</faultstring>
   <detail>
    <UPnPError xmlns="urn:schemas-upnp-org:control-1-0">
     <errorCode>701</errorCode>
     <errorDescription>Playback transition not supported at this moment</errorDescription>
    </UPnPError>
   </detail>
  </s:Fault>
 </s:Body>
</s:Envelope>`)
	fault, err := ParseFault(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fault.ErrorCode != 701 {
		t.Errorf("got errorCode %d, want 701", fault.ErrorCode)
	}
	if fault.Description != "Playback transition not supported at this moment" {
		t.Errorf("got description %q", fault.Description)
	}
}
