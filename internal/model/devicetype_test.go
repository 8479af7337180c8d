package model

import "testing"

func TestDeviceTypeURNRoundTrip(t *testing.T) {
	cases := []DeviceType{
		{Tag: DeviceMediaServer, Version: 1},
		{Tag: DeviceMediaRenderer, Version: 1},
		{Tag: DeviceInternetGateway, Version: 1},
	}
	for _, want := range cases {
		urn := DeviceTypeToUrnTypeString(want)
		got, err := DeviceTypeUrnStringToDevice(urn)
		if err != nil {
			t.Fatalf("round trip for %v failed to parse %q: %v", want, urn, err)
		}
		if got != want {
			t.Errorf("round trip for %v: got %v from urn %q", want, got, urn)
		}
	}
}

func TestDeviceTypeUrnStringToDeviceRejectsMalformed(t *testing.T) {
	if _, err := DeviceTypeUrnStringToDevice("urn:schemas-upnp-org:device:MediaServer"); err == nil {
		t.Error("expected error for malformed urn")
	}
}
