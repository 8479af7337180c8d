// Package avhost implements the device-host role's per-service action
// dispatch and state-variable eventing: a generic ServiceHost that routes
// incoming SOAP action requests to registered handlers and funnels
// evented variable changes through internal/lastchange and internal/gena,
// plus four concrete hosts mirroring internal/avclient's service set.
package avhost

import (
	"net/http"
	"sync"

	averrors "github.com/upnpgo/avengine/internal/errors"
	"github.com/upnpgo/avengine/internal/gena"
	"github.com/upnpgo/avengine/internal/lastchange"
	avmodel "github.com/upnpgo/avengine/internal/model"
	xmlu "github.com/upnpgo/avengine/internal/xmlutil"
)

// ActionHandler implements one SOAP action: given the request arguments,
// return the ordered response arguments or an error (typically an
// averrors.UPnPError for a service-specific fault).
type ActionHandler func(args *avmodel.ArgumentList) (*avmodel.ArgumentList, error)

// ServiceHost dispatches SOAP action requests for one service instance and
// publishes evented state-variable changes through a lastchange.Aggregator
// and gena.Host, the device-role counterpart to avclient.ServiceClient.
type ServiceHost struct {
	serviceType avmodel.ServiceType
	genaHost    *gena.Host

	mu        sync.RWMutex
	actions   map[string]ActionHandler
	variables map[string]avmodel.ServiceVariable
	aggregators map[uint32]*lastchange.Aggregator
}

// NewServiceHost builds a ServiceHost for serviceType, delivering NOTIFYs
// through genaHost.
func NewServiceHost(serviceType avmodel.ServiceType, genaHost *gena.Host) *ServiceHost {
	return &ServiceHost{
		serviceType: serviceType,
		genaHost:    genaHost,
		actions:     make(map[string]ActionHandler),
		variables:   make(map[string]avmodel.ServiceVariable),
		aggregators: make(map[uint32]*lastchange.Aggregator),
	}
}

// RegisterAction binds name to handler. Concrete hosts call this once per
// supported action during construction.
func (h *ServiceHost) RegisterAction(name string, handler ActionHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.actions[name] = handler
}

// RegisterInstanceAggregator wires instanceID's LastChange coalescing
// aggregator, whose flush sink is expected to call h.EmitLastChange.
func (h *ServiceHost) RegisterInstanceAggregator(instanceID uint32, agg *lastchange.Aggregator) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.aggregators[instanceID] = agg
}

// ServiceType returns the UPnP service type this host dispatches actions
// for, letting a generic control-URL router (internal/context's
// ActionDispatcher) render the right response envelope namespace without
// knowing the concrete host type.
func (h *ServiceHost) ServiceType() avmodel.ServiceType {
	return h.serviceType
}

// GenaHost returns the gena.Host this service delivers NOTIFYs through,
// so a SUBSCRIBE handler can push the initial full-state NOTIFY to a
// freshly accepted subscriber.
func (h *ServiceHost) GenaHost() *gena.Host {
	return h.genaHost
}

// OnAction dispatches a parsed SOAP action body to its registered handler
// and returns the handler's response arguments; the HTTP layer builds the
// `<ActionNameResponse>` wrapper from the name it already parsed.
func (h *ServiceHost) OnAction(name string, args *avmodel.ArgumentList) (*avmodel.ArgumentList, error) {
	h.mu.RLock()
	handler, ok := h.actions[name]
	h.mu.RUnlock()
	if !ok {
		return nil, averrors.InvalidResponse(nil, "unknown action %q for service %v", name, h.serviceType)
	}
	return handler(args)
}

// SetVariable updates the host's notion of a non-instanced state variable
// (e.g. a ConnectionManager variable not scoped to an AVTransport
// instance). It does not participate in LastChange aggregation.
func (h *ServiceHost) SetVariable(name, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.variables[name] = avmodel.NewServiceVariable(name, value)
}

// GetVariable returns the last value set for name.
func (h *ServiceHost) GetVariable(name string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.variables[name]
	return v.Value, ok
}

// SetInstanceVariable routes v through instanceID's LastChange aggregator.
// The host keeps no copy of instance variables. The change is dropped when
// no aggregator is registered for instanceID, or when v is a position
// variable (those bypass LastChange and are expected to be polled via
// GetPositionInfo instead of evented).
func (h *ServiceHost) SetInstanceVariable(instanceID uint32, v avmodel.ServiceVariable) {
	h.mu.RLock()
	agg := h.aggregators[instanceID]
	h.mu.RUnlock()

	if agg == nil || avmodel.IsPositionVariable(v.Name) {
		return
	}
	agg.AddChangedVariable(instanceID, v)
}

// NotifyVariableChange is the single entry point a device host uses to
// both update state and emit the resulting event: it records v for
// instanceID and, if this host does not aggregate through LastChange
// (e.g. the variable's containing service has no LastChange state
// variable, as with RenderingControl's per-channel ones), returns the
// rendered propertyset body the caller should deliver immediately. Unifies
// what would otherwise be instanced and non-instanced notify overloads.
func (h *ServiceHost) NotifyVariableChange(instanceID uint32, v avmodel.ServiceVariable) []byte {
	h.mu.RLock()
	_, instanced := h.aggregators[instanceID]
	h.mu.RUnlock()

	if instanced {
		h.SetInstanceVariable(instanceID, v)
		return nil
	}
	h.SetVariable(v.Name, v.Value)
	return BuildPropertySet(v.Name, v.Value)
}

// EmitLastChange renders a NOTIFY body containing a LastChange state
// variable update and delivers it to every subscriber via the bound
// gena.Host.
func (h *ServiceHost) EmitLastChange(data []byte) {
	if h.genaHost == nil {
		return
	}
	body := BuildPropertySet("LastChange", string(data))
	h.genaHost.Notify(http.Header{"Content-Type": {`text/xml; charset="utf-8"`}}, body)
}

// BuildPropertySet wraps a single evented variable's value into the GENA
// NOTIFY body shape:
//
//	<e:propertyset xmlns:e="urn:schemas-upnp-org:event-1-0">
//	  <e:property><VarName>value</VarName></e:property>
//	</e:propertyset>
func BuildPropertySet(varName, value string) []byte {
	propset := xmlu.NewElement("e:propertyset")
	propset.SetAttr("xmlns:e", "urn:schemas-upnp-org:event-1-0")
	prop := xmlu.NewElement("e:property")
	prop.AddTextChild(varName, value)
	propset.AddChild(prop)
	return []byte(propset.String())
}

// GetSubscriptionResponse renders the initial-event body a SUBSCRIBE
// response must deliver: the current value of every variable set through
// SetVariable, wrapped the same way as a later NOTIFY. Instance variables
// routed through SetInstanceVariable are not stored by the host and are
// not included.
func (h *ServiceHost) GetSubscriptionResponse() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()

	propset := xmlu.NewElement("e:propertyset")
	propset.SetAttr("xmlns:e", "urn:schemas-upnp-org:event-1-0")
	for name, v := range h.variables {
		prop := xmlu.NewElement("e:property")
		prop.AddTextChild(name, v.Value)
		propset.AddChild(prop)
	}
	return []byte(propset.String())
}
