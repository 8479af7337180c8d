package avclient

import (
	"testing"

	avmodel "github.com/upnpgo/avengine/internal/model"
)

func TestDecodeLastChangeEventMapsInstanceScopedVariables(t *testing.T) {
	body := []byte(`<e:propertyset xmlns:e="urn:schemas-upnp-org:event-1-0">` +
		`<e:property><LastChange>` +
		`&lt;Event xmlns=&quot;urn:schemas-upnp-org:metadata-1-0/AVT/&quot;&gt;` +
		`&lt;InstanceID val=&quot;0&quot;&gt;&lt;TransportState val=&quot;PLAYING&quot;/&gt;&lt;/InstanceID&gt;` +
		`&lt;/Event&gt;` +
		`</LastChange></e:property>` +
		`</e:propertyset>`)

	changes, err := DecodeLastChangeEvent(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	vars, ok := changes[0]
	if !ok {
		t.Fatalf("expected instance 0 in decoded changes, got %v", changes)
	}
	if vars["TransportState"] != "PLAYING" {
		t.Errorf("expected TransportState=PLAYING, got %q", vars["TransportState"])
	}
}

func TestSubscribeForVariableChangesDeliversDecodedEvent(t *testing.T) {
	var gotInstance uint32
	var gotVars map[string]string

	listener := &decodingListener{
		onChange: func(instanceID uint32, vars map[string]string) {
			gotInstance = instanceID
			gotVars = vars
		},
	}

	body := []byte(`<e:propertyset xmlns:e="urn:schemas-upnp-org:event-1-0">` +
		`<e:property><LastChange>` +
		`&lt;Event xmlns=&quot;urn:schemas-upnp-org:metadata-1-0/AVT/&quot;&gt;` +
		`&lt;InstanceID val=&quot;0&quot;&gt;&lt;TransportState val=&quot;PLAYING&quot;/&gt;&lt;/InstanceID&gt;` +
		`&lt;/Event&gt;` +
		`</LastChange></e:property>` +
		`</e:propertyset>`)

	listener.HandleEvent(avmodel.SubscriptionEvent{SID: "uuid:test", Data: body, Sequence: 0})

	if gotInstance != 0 {
		t.Errorf("expected instance 0, got %d", gotInstance)
	}
	if gotVars["TransportState"] != "PLAYING" {
		t.Errorf("expected TransportState=PLAYING, got %q", gotVars["TransportState"])
	}
}
