package context

import (
	stdctx "context"
	"testing"
	"time"

	"github.com/upnpgo/avengine/internal/clock"
	avmodel "github.com/upnpgo/avengine/internal/model"
	"github.com/upnpgo/avengine/internal/ssdp"
)

type fakeDispatcher struct{}

func (fakeDispatcher) OnAction(name string, args *avmodel.ArgumentList) (*avmodel.ArgumentList, error) {
	return avmodel.NewArgumentList(), nil
}

func (fakeDispatcher) ServiceType() avmodel.ServiceType {
	return avmodel.ServiceType{}
}

func TestNewDeviceUDNIsUUIDPrefixed(t *testing.T) {
	udn := NewDeviceUDN()
	if len(udn) < len("uuid:") || udn[:5] != "uuid:" {
		t.Fatalf("expected a uuid: prefixed UDN, got %s", udn)
	}
}

func TestSetAndGetLocalDevice(t *testing.T) {
	rc := NewRuntimeContext(ssdp.NewCache(clock.NewFakeClock(time.Unix(0, 0))))
	if _, ok := rc.LocalDevice(); ok {
		t.Fatal("expected no local device before SetLocalDevice")
	}

	d := avmodel.Device{UDN: NewDeviceUDN(), FriendlyName: "Test Renderer"}
	rc.SetLocalDevice(d)

	got, ok := rc.LocalDevice()
	if !ok || got.UDN != d.UDN {
		t.Fatalf("expected local device %v, got %v (ok=%v)", d, got, ok)
	}
}

func TestRegisterAndLookupHostedService(t *testing.T) {
	rc := NewRuntimeContext(ssdp.NewCache(clock.NewFakeClock(time.Unix(0, 0))))
	rc.RegisterHostedService("/AVTransport/control", fakeDispatcher{})

	d, ok := rc.DispatcherForControlURL("/AVTransport/control")
	if !ok {
		t.Fatal("expected a registered dispatcher for /AVTransport/control")
	}
	if _, err := d.OnAction("Play", avmodel.NewArgumentList()); err != nil {
		t.Fatalf("unexpected error dispatching through the registered dispatcher: %v", err)
	}

	if _, ok := rc.DispatcherForControlURL("/unknown"); ok {
		t.Fatal("expected no dispatcher for an unregistered control URL")
	}
}

func TestShutdownFlag(t *testing.T) {
	rc := NewRuntimeContext(ssdp.NewCache(clock.NewFakeClock(time.Unix(0, 0))))
	if rc.IsShutdownRequested() {
		t.Fatal("expected shutdown not requested initially")
	}
	rc.SetShutdownRequested(stdctx.Background(), true)
	if !rc.IsShutdownRequested() {
		t.Fatal("expected shutdown requested after SetShutdownRequested(true)")
	}
}
