package avclient

import (
	"testing"

	averrors "github.com/upnpgo/avengine/internal/errors"
)

func TestAVTransportHandleUPnPResultUsesFaultTable(t *testing.T) {
	traits := AVTransportTraits{}
	err := traits.HandleUPnPResult(701, "ignored when 701 has a defined message")

	upnpErr, ok := err.(*averrors.Error)
	if !ok {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	if upnpErr.Kind != averrors.KindUPnPError {
		t.Errorf("expected KindUPnPError, got %v", upnpErr.Kind)
	}
	if upnpErr.Code != 701 {
		t.Errorf("expected code 701, got %d", upnpErr.Code)
	}
	if upnpErr.Message != "Playback transition not supported at this moment" {
		t.Errorf("expected the AVTransport-specific 701 message, got %q", upnpErr.Message)
	}
}

func TestAVTransportHandleUPnPResultFallsBackForGenericCodes(t *testing.T) {
	traits := AVTransportTraits{}
	err := traits.HandleUPnPResult(402, "Invalid Args")

	upnpErr, ok := err.(*averrors.Error)
	if !ok {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	if upnpErr.Message != "Invalid Args" {
		t.Errorf("expected fallback to the fault's own description, got %q", upnpErr.Message)
	}
}

func TestAVTransportAllServiceSpecificCodesAreMapped(t *testing.T) {
	for code := 701; code <= 718; code++ {
		if _, ok := avTransportFaults[code]; !ok {
			t.Errorf("expected UPnP error code %d to have a defined AVTransport fault message", code)
		}
	}
}

func TestSupportsActionIsPermissiveBeforeSCPDLoads(t *testing.T) {
	c := NewServiceClient(AVTransportTraits{}, nil, nil)
	if !c.SupportsAction("Play") {
		t.Error("expected an unloaded SCPD to not reject any action name")
	}
}

func TestSupportsActionRejectsUnknownActionAfterSCPDLoads(t *testing.T) {
	c := NewServiceClient(AVTransportTraits{}, nil, nil)
	c.supportedActions = map[string]bool{"Play": true}

	if !c.SupportsAction("Play") {
		t.Error("expected Play to be recognized as supported")
	}
	if c.SupportsAction("SetRecordQualityMode") {
		t.Error("expected an action missing from the loaded SCPD to be rejected")
	}
}
