package avhost

import (
	"io"
	"net/http"

	averrors "github.com/upnpgo/avengine/internal/errors"
	"github.com/upnpgo/avengine/internal/logger"
	"github.com/upnpgo/avengine/internal/soap"
)

const maxControlRequestBytes = 1 << 20

// ControlHandler adapts a ServiceHost's action dispatch to the HTTP POST
// shape an action's controlURL must serve: parse the SOAP request body,
// dispatch, and render either the success envelope or a <s:Fault>.
type ControlHandler struct {
	host *ServiceHost
}

// NewControlHandler builds a ControlHandler dispatching through host.
func NewControlHandler(host *ServiceHost) *ControlHandler {
	return &ControlHandler{host: host}
}

func (h *ControlHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(io.LimitReader(req.Body, maxControlRequestBytes))
	if err != nil {
		http.Error(w, "failed reading request body", http.StatusBadRequest)
		return
	}

	actionName, args, err := soap.ParseRequest(body)
	if err != nil {
		logger.DeviceHostLog.Warnf("malformed SOAP action request: %v", err)
		http.Error(w, "malformed SOAP request", http.StatusBadRequest)
		return
	}

	result, actionErr := h.host.OnAction(actionName, args)
	if actionErr != nil {
		code, description := faultFromError(actionErr)
		w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(soap.BuildFaultEnvelope(code, description))
		return
	}

	w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
	w.Write(soap.BuildResponseEnvelope(actionName, h.host.serviceType, result))
}

// faultFromError maps an action handler's error into a UPnPError
// code/description pair. A handler is expected to always return an
// *averrors.Error built via averrors.UPnPError; anything else surfaces as
// the generic 501 "Action Failed" per UPnP's control fault table.
func faultFromError(err error) (int, string) {
	if e, ok := err.(*averrors.Error); ok && e.Kind == averrors.KindUPnPError {
		return e.Code, e.Message
	}
	return 501, "Action Failed"
}
