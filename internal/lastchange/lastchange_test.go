package lastchange

import (
	"strings"
	"testing"
	"time"

	"github.com/upnpgo/avengine/internal/clock"
	avmodel "github.com/upnpgo/avengine/internal/model"
)

func TestAddChangedVariableFlushesImmediatelyOnFirstChange(t *testing.T) {
	fc := clock.NewFakeClock(time.Unix(1000, 0))
	var emitted [][]byte
	agg := NewAggregator(200*time.Millisecond, fc, "urn:schemas-upnp-org:metadata-1-0/AVT/", func(data []byte) { emitted = append(emitted, data) })

	flushed := agg.AddChangedVariable(0, avmodel.NewServiceVariable("TransportState", "PLAYING"))
	if !flushed {
		t.Fatal("expected the first change to flush immediately")
	}
	if len(emitted) != 1 {
		t.Fatalf("expected 1 emitted event, got %d", len(emitted))
	}
	if !strings.Contains(string(emitted[0]), "TransportState") {
		t.Errorf("expected rendered event to contain TransportState, got %s", emitted[0])
	}
}

func TestAddChangedVariableCoalescesWithinWindow(t *testing.T) {
	fc := clock.NewFakeClock(time.Unix(1000, 0))
	var emitted [][]byte
	agg := NewAggregator(200*time.Millisecond, fc, "urn:schemas-upnp-org:metadata-1-0/AVT/", func(data []byte) { emitted = append(emitted, data) })

	agg.AddChangedVariable(0, avmodel.NewServiceVariable("TransportState", "PLAYING"))
	fc.Advance(50 * time.Millisecond)
	flushed := agg.AddChangedVariable(0, avmodel.NewServiceVariable("TransportState", "PAUSED_PLAYBACK"))

	if flushed {
		t.Fatal("expected second change within the coalescing window to not flush immediately")
	}
	if len(emitted) != 1 {
		t.Fatalf("expected only the first flush so far, got %d emissions", len(emitted))
	}

	if !agg.DueForFlush(fc.Now().Add(200 * time.Millisecond)) {
		t.Error("expected a pending change to become due once MinInterval elapses")
	}

	agg.Flush()
	if len(emitted) != 2 {
		t.Fatalf("expected a second emission after Flush, got %d", len(emitted))
	}
	if !strings.Contains(string(emitted[1]), "PAUSED_PLAYBACK") {
		t.Errorf("expected coalesced value to win, got %s", emitted[1])
	}
	if strings.Contains(string(emitted[1]), "PLAYING\"") {
		t.Errorf("did not expect the superseded value to appear, got %s", emitted[1])
	}
}

func TestPositionVariablesBypassAggregation(t *testing.T) {
	fc := clock.NewFakeClock(time.Unix(1000, 0))
	var emitted [][]byte
	agg := NewAggregator(200*time.Millisecond, fc, "urn:schemas-upnp-org:metadata-1-0/AVT/", func(data []byte) { emitted = append(emitted, data) })

	agg.AddChangedVariable(0, avmodel.NewServiceVariable("RelativeTimePosition", "00:00:05"))
	if len(emitted) != 0 {
		t.Errorf("expected position variable to bypass LastChange aggregation entirely, got %d emissions", len(emitted))
	}
}

func TestFlushLivenessBound(t *testing.T) {
	fc := clock.NewFakeClock(time.Unix(1000, 0))
	agg := NewAggregator(200*time.Millisecond, fc, "urn:schemas-upnp-org:metadata-1-0/AVT/", func(data []byte) {})

	agg.AddChangedVariable(0, avmodel.NewServiceVariable("TransportState", "PLAYING"))
	fc.Advance(10 * time.Millisecond)
	agg.AddChangedVariable(0, avmodel.NewServiceVariable("TransportState", "PAUSED_PLAYBACK"))

	if agg.DueForFlush(fc.Now()) {
		t.Error("change should not be due for flush before MinInterval elapses")
	}
	fc.Advance(200 * time.Millisecond)
	if !agg.DueForFlush(fc.Now()) {
		t.Error("change must become due for flush within MinInterval of being added")
	}
}
