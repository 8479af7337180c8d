// Package avclient implements the control-point role's per-service action
// invocation and eventing: a generic ServiceClient that knows how to build
// SOAP requests and subscribe for events against one device service, and
// four concrete services (AVTransport, RenderingControl, ContentDirectory,
// ConnectionManager) that supply the service-specific action/variable
// vocabularies and UPnP fault-code interpretation.
package avclient

import (
	"context"
	"time"

	averrors "github.com/upnpgo/avengine/internal/errors"
	"github.com/upnpgo/avengine/internal/gena"
	"github.com/upnpgo/avengine/internal/httpx"
	"github.com/upnpgo/avengine/internal/logger"
	avmodel "github.com/upnpgo/avengine/internal/model"
	"github.com/upnpgo/avengine/internal/scpd"
	"github.com/upnpgo/avengine/internal/soap"
)

// ServiceTraits supplies the behavior that differs per UPnP service type:
// its subscription timeout and how it turns a SOAP fault's UPnP error code
// into a Go error.
type ServiceTraits interface {
	Tag() avmodel.ServiceTag
	SubscriptionTimeout() time.Duration
	HandleUPnPResult(code int, defaultMessage string) error
}

// ServiceClient is embedded by each concrete service client (AVTransport,
// RenderingControl, ...) to share action execution and subscription
// management, the same base/derived split a reference implementation draws
// between ServiceClientBase and its per-service subclasses.
type ServiceClient struct {
	traits  ServiceTraits
	http    *httpx.Client
	gena    *gena.Client
	device  avmodel.Device
	service avmodel.Service
	sid     string

	// supportedActions is nil until LoadSCPD has run; nil means "unknown",
	// in which case ExecuteAction does not enforce the precondition. After
	// LoadSCPD it is never nil: a failed fetch or parse leaves it empty, and
	// ExecuteAction then rejects every action name.
	supportedActions map[string]bool
}

// NewServiceClient builds a ServiceClient bound to traits, using httpClient
// for SOAP POSTs and genaClient for eventing.
func NewServiceClient(traits ServiceTraits, httpClient *httpx.Client, genaClient *gena.Client) *ServiceClient {
	return &ServiceClient{traits: traits, http: httpClient, gena: genaClient}
}

// SetDevice binds the client to a discovered device, resolving the service
// matching the client's traits. Returns false if the device does not
// expose the service.
func (c *ServiceClient) SetDevice(d avmodel.Device) bool {
	svc, ok := d.ServiceOfType(c.traits.Tag())
	if !ok {
		return false
	}
	c.device = d
	c.service = svc
	return true
}

// LoadSCPD downloads and parses the bound service's SCPD document,
// populating the set of actions ExecuteAction will accept. A fetch or
// parse failure is logged and leaves supportedActions as an empty (not
// nil) set rather than failing the caller, per spec.md's "the client
// remains usable with an empty supported-actions set".
func (c *ServiceClient) LoadSCPD(ctx context.Context) {
	actions := make(map[string]bool)
	c.supportedActions = actions

	if c.service.SCPDURL == "" {
		return
	}

	status, body, err := c.http.Get(ctx, c.service.SCPDURL)
	if err != nil {
		logger.ControlPointLog.Warnf("failed to fetch SCPD for service=%s url=%s: %v", c.traits.Tag(), c.service.SCPDURL, err)
		return
	}
	if status != 200 {
		logger.ControlPointLog.Warnf("SCPD fetch for service=%s url=%s returned status %d", c.traits.Tag(), c.service.SCPDURL, status)
		return
	}

	doc := scpd.Parse(body)
	for _, name := range doc.ActionNames() {
		actions[name] = true
	}
	logger.ControlPointLog.Debugf("loaded %d supported action(s) for service=%s", len(actions), c.traits.Tag())
}

// SupportsAction reports whether name is in the set of actions LoadSCPD
// discovered. It reports true when LoadSCPD has not been called yet,
// since an unknown supported-actions set must not reject every call.
func (c *ServiceClient) SupportsAction(name string) bool {
	if c.supportedActions == nil {
		return true
	}
	return c.supportedActions[name]
}

// ExecuteAction posts a SOAP action request built from name/args against
// the bound service's control URL, returning the parsed response
// arguments. A SOAP fault is translated through ServiceTraits.HandleUPnPResult.
func (c *ServiceClient) ExecuteAction(ctx context.Context, name string, args [][2]string) (*avmodel.ArgumentList, error) {
	if c.service.ControlURL == "" {
		return nil, averrors.InvalidResponse(nil, "no device bound or service lacks a control URL")
	}
	if !c.SupportsAction(name) {
		return nil, averrors.PreconditionFailed("action %q is not advertised by service %s", name, c.traits.Tag())
	}

	action := avmodel.NewAction(name, c.service.ControlURL, c.service.Type)
	for _, kv := range args {
		action.ArgumentList.Add(kv[0], kv[1])
	}

	body := soap.BuildEnvelope(action)
	headers := soapHeaders(action)

	status, _, respBody, err := c.http.Perform(ctx, "POST", c.service.ControlURL, headers, body)
	if err != nil {
		return nil, err
	}

	if status != 200 {
		fault, ferr := soap.ParseFault(respBody)
		if ferr != nil {
			return nil, averrors.InvalidResponse(ferr, "action %s failed with status %d and unparseable fault body", name, status)
		}
		return nil, c.traits.HandleUPnPResult(fault.ErrorCode, fault.Description)
	}

	return soap.ParseResponse(name, respBody)
}

// Subscribe establishes a GENA subscription for the bound service's
// eventing URL, delivering events to listener.
func (c *ServiceClient) Subscribe(ctx context.Context, listener gena.Listener) (string, error) {
	if c.service.EventSubURL == "" {
		return "", averrors.InvalidResponse(nil, "service has no event subscription URL")
	}
	sid, err := c.gena.Subscribe(ctx, c.service.EventSubURL, c.traits.SubscriptionTimeout(), listener)
	if err != nil {
		return "", err
	}
	c.sid = sid
	return sid, nil
}

// Unsubscribe tears down the client's active subscription, if any.
func (c *ServiceClient) Unsubscribe(ctx context.Context) error {
	if c.sid == "" {
		return nil
	}
	err := c.gena.Unsubscribe(ctx, c.sid)
	c.sid = ""
	return err
}

func soapHeaders(action *avmodel.Action) map[string][]string {
	return map[string][]string{
		"Content-Type": {`text/xml; charset="utf-8"`},
		"SOAPACTION":   {soap.SOAPActionHeader(action)},
	}
}
