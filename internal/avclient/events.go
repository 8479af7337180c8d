package avclient

import (
	"context"
	"fmt"
	"strconv"

	"github.com/upnpgo/avengine/internal/gena"
	"github.com/upnpgo/avengine/internal/logger"
	avmodel "github.com/upnpgo/avengine/internal/model"
	xmlu "github.com/upnpgo/avengine/internal/xmlutil"
)

// VariableChangeHandler is invoked once per <InstanceID> block a decoded
// NOTIFY carries, with that instance's variable name to value map. Services
// with no LastChange variable (ConnectionManager) deliver their evented
// variables under instance 0.
type VariableChangeHandler func(instanceID uint32, vars map[string]string)

// SubscribeForVariableChanges subscribes like Subscribe, but decodes each
// delivered event's propertyset (and, where present, its embedded
// LastChange XML) into an instance-scoped variable map before calling
// onChange, instead of handing the caller raw NOTIFY bytes.
func (c *ServiceClient) SubscribeForVariableChanges(ctx context.Context, onChange VariableChangeHandler, onLost func(sid string, cause error)) (string, error) {
	return c.Subscribe(ctx, &decodingListener{onChange: onChange, onLost: onLost})
}

// decodingListener adapts gena.Listener's raw-bytes event delivery to
// VariableChangeHandler's typed, instance-scoped shape.
type decodingListener struct {
	onChange VariableChangeHandler
	onLost   func(sid string, cause error)
}

func (l *decodingListener) HandleEvent(evt avmodel.SubscriptionEvent) {
	changes, err := DecodeLastChangeEvent(evt.Data)
	if err != nil {
		logger.ControlPointLog.Warnf("failed to decode event body for sid=%s: %v", evt.SID, err)
		return
	}
	if l.onChange == nil {
		return
	}
	for instanceID, vars := range changes {
		l.onChange(instanceID, vars)
	}
}

func (l *decodingListener) HandleSubscriptionLost(sid string, cause error) {
	if l.onLost != nil {
		l.onLost(sid, cause)
	}
}

// DecodeLastChangeEvent parses a GENA NOTIFY body into an instance-scoped
// variable map. A propertyset's direct variables (ConnectionManager-style,
// not instance-scoped) are grouped under instance 0; a LastChange property
// is unwrapped into the <InstanceID val="N"> blocks its own embedded XML
// carries, per spec.md's event-decode contract.
func DecodeLastChangeEvent(data []byte) (map[uint32]map[string]string, error) {
	root, err := xmlu.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("avclient: parse propertyset: %w", err)
	}

	result := make(map[uint32]map[string]string)
	for _, prop := range root.FindAllChildren("property") {
		for _, v := range prop.Children {
			if v.Name == "LastChange" {
				if err := decodeLastChangeXML(v.Text, result); err != nil {
					return nil, err
				}
				continue
			}
			addVariable(result, 0, v.Name, v.Text)
		}
	}
	return result, nil
}

func decodeLastChangeXML(eventXML string, result map[uint32]map[string]string) error {
	event, err := xmlu.Parse([]byte(eventXML))
	if err != nil {
		return fmt.Errorf("avclient: parse LastChange event: %w", err)
	}

	for _, instance := range event.FindAllChildren("InstanceID") {
		idStr, _ := instance.Attr("val")
		id, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil {
			continue
		}
		for _, varEl := range instance.Children {
			val, _ := varEl.Attr("val")
			addVariable(result, uint32(id), varEl.Name, val)
		}
	}
	return nil
}

func addVariable(result map[uint32]map[string]string, instanceID uint32, name, value string) {
	vars, ok := result[instanceID]
	if !ok {
		vars = make(map[string]string)
		result[instanceID] = vars
	}
	vars[name] = value
}

var _ gena.Listener = (*decodingListener)(nil)
