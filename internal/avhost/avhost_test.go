package avhost

import (
	"testing"
	"time"

	averrors "github.com/upnpgo/avengine/internal/errors"
	"github.com/upnpgo/avengine/internal/gena"
	avmodel "github.com/upnpgo/avengine/internal/model"

	"github.com/upnpgo/avengine/internal/clock"
)

func newTestAVTransportHost() *AVTransportHost {
	genaHost := gena.NewHost("AVTransport", 1801*time.Second, clock.NewFakeClock(time.Unix(0, 0)), nil)
	return NewAVTransportHost(genaHost)
}

func TestPlayWithoutMediaReturnsNoContentFault(t *testing.T) {
	h := newTestAVTransportHost()
	args := avmodel.NewArgumentList().Add("InstanceID", "0").Add("Speed", "1")

	_, err := h.OnAction("Play", args)
	if err == nil {
		t.Fatal("expected an error playing without a set URI")
	}
	upnpErr, ok := err.(*averrors.Error)
	if !ok || upnpErr.Code != 702 {
		t.Fatalf("expected UPnP error 702, got %v", err)
	}
}

func TestSetURIThenPlayThenPauseTransitionsState(t *testing.T) {
	h := newTestAVTransportHost()
	setArgs := avmodel.NewArgumentList().Add("InstanceID", "0").Add("CurrentURI", "http://example.com/a.mp3").Add("CurrentURIMetaData", "")
	if _, err := h.OnAction("SetAVTransportURI", setArgs); err != nil {
		t.Fatalf("SetAVTransportURI failed: %v", err)
	}

	playArgs := avmodel.NewArgumentList().Add("InstanceID", "0").Add("Speed", "1")
	if _, err := h.OnAction("Play", playArgs); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	info, err := h.handleGetTransportInfo(avmodel.NewArgumentList().Add("InstanceID", "0"))
	if err != nil {
		t.Fatalf("GetTransportInfo failed: %v", err)
	}
	state, _ := info.Get("CurrentTransportState")
	if state != "PLAYING" {
		t.Errorf("expected PLAYING after Play, got %s", state)
	}

	pauseArgs := avmodel.NewArgumentList().Add("InstanceID", "0")
	if _, err := h.OnAction("Pause", pauseArgs); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	info, _ = h.handleGetTransportInfo(avmodel.NewArgumentList().Add("InstanceID", "0"))
	state, _ = info.Get("CurrentTransportState")
	if state != "PAUSED_PLAYBACK" {
		t.Errorf("expected PAUSED_PLAYBACK after Pause, got %s", state)
	}
}

func TestPauseWithoutPlayingReturnsTransitionFault(t *testing.T) {
	h := newTestAVTransportHost()
	setArgs := avmodel.NewArgumentList().Add("InstanceID", "0").Add("CurrentURI", "http://example.com/a.mp3").Add("CurrentURIMetaData", "")
	h.OnAction("SetAVTransportURI", setArgs)

	_, err := h.OnAction("Pause", avmodel.NewArgumentList().Add("InstanceID", "0"))
	if err == nil {
		t.Fatal("expected an error pausing a stopped transport")
	}
	upnpErr, ok := err.(*averrors.Error)
	if !ok || upnpErr.Code != 701 {
		t.Fatalf("expected UPnP error 701, got %v", err)
	}
}

func TestUnknownActionIsInvalidResponse(t *testing.T) {
	h := newTestAVTransportHost()
	_, err := h.OnAction("NotAnAction", avmodel.NewArgumentList())
	if !averrors.Is(err, averrors.KindInvalidResponse) {
		t.Fatalf("expected KindInvalidResponse for an unknown action, got %v", err)
	}
}
