package model

import "testing"

func TestServiceTypeURNRoundTrip(t *testing.T) {
	cases := []ServiceType{
		{Tag: ServiceContentDirectory, Version: 1},
		{Tag: ServiceRenderingControl, Version: 1},
		{Tag: ServiceConnectionManager, Version: 1},
		{Tag: ServiceAVTransport, Version: 1},
		{Tag: ServiceAVTransport, Version: 2},
	}
	for _, want := range cases {
		urn := ServiceTypeToUrnTypeString(want)
		got, err := ServiceTypeUrnStringToService(urn)
		if err != nil {
			t.Fatalf("round trip for %v failed to parse %q: %v", want, urn, err)
		}
		if got != want {
			t.Errorf("round trip for %v: got %v from urn %q", want, got, urn)
		}
	}
}

func TestServiceTypeUrnIDString(t *testing.T) {
	got := ServiceTypeToUrnIDString(ServiceType{Tag: ServiceAVTransport, Version: 1})
	want := "urn:upnp-org:serviceId:AVTransport"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestServiceTypeUrnMetadataString(t *testing.T) {
	got := ServiceTypeToUrnMetadataString(ServiceType{Tag: ServiceAVTransport, Version: 1})
	want := "urn:schemas-upnp-org:metadata-1-0/AVT/"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestServiceTypeUrnStringToServiceRejectsMalformed(t *testing.T) {
	if _, err := ServiceTypeUrnStringToService("not-a-urn"); err == nil {
		t.Error("expected error for malformed urn")
	}
}
