package avclient

import (
	"context"
	"strings"
	"time"

	averrors "github.com/upnpgo/avengine/internal/errors"
	"github.com/upnpgo/avengine/internal/gena"
	"github.com/upnpgo/avengine/internal/httpx"
	avmodel "github.com/upnpgo/avengine/internal/model"
)

// ConnectionManagerTraits supplies the ConnectionManager service's
// subscription timeout and fault handling.
type ConnectionManagerTraits struct{}

func (ConnectionManagerTraits) Tag() avmodel.ServiceTag { return avmodel.ServiceConnectionManager }

func (ConnectionManagerTraits) SubscriptionTimeout() time.Duration { return 1801 * time.Second }

func (ConnectionManagerTraits) HandleUPnPResult(code int, defaultMessage string) error {
	return averrors.UPnPError(code, defaultMessage)
}

// ConnectionManager is the control-point-side ConnectionManager service
// client: protocol/connection capability queries used before binding a
// renderer to a media source.
type ConnectionManager struct {
	*ServiceClient
}

// NewConnectionManager builds a ConnectionManager client.
func NewConnectionManager(httpClient *httpx.Client, genaClient *gena.Client) *ConnectionManager {
	return &ConnectionManager{ServiceClient: NewServiceClient(ConnectionManagerTraits{}, httpClient, genaClient)}
}

// GetProtocolInfo returns the source and sink protocol info entries the
// device supports, split out of the response's comma-separated strings.
func (c *ConnectionManager) GetProtocolInfo(ctx context.Context) (source []string, sink []string, err error) {
	args, err := c.ExecuteAction(ctx, "GetProtocolInfo", nil)
	if err != nil {
		return nil, nil, err
	}
	src, _ := args.Get("Source")
	snk, _ := args.Get("Sink")
	return splitNonEmpty(src), splitNonEmpty(snk), nil
}

// GetCurrentConnectionIDs lists the device's currently active connection IDs.
func (c *ConnectionManager) GetCurrentConnectionIDs(ctx context.Context) ([]string, error) {
	args, err := c.ExecuteAction(ctx, "GetCurrentConnectionIDs", nil)
	if err != nil {
		return nil, err
	}
	ids, _ := args.Get("ConnectionIDs")
	return splitNonEmpty(ids), nil
}

// ConnectionInfo is the parsed GetCurrentConnectionInfo response.
type ConnectionInfo struct {
	RcsID                 int32
	AVTransportID         int32
	ProtocolInfo          string
	PeerConnectionManager string
	PeerConnectionID      int32
	Direction             string
	Status                string
}

// GetCurrentConnectionInfo queries details of one active connection.
func (c *ConnectionManager) GetCurrentConnectionInfo(ctx context.Context, connectionID int32) (ConnectionInfo, error) {
	args, err := c.ExecuteAction(ctx, "GetCurrentConnectionInfo", [][2]string{
		{"ConnectionID", instanceStr(uint32(connectionID))},
	})
	if err != nil {
		return ConnectionInfo{}, err
	}
	rcsID, _ := args.Get("RcsID")
	avtID, _ := args.Get("AVTransportID")
	protoInfo, _ := args.Get("ProtocolInfo")
	peerMgr, _ := args.Get("PeerConnectionManager")
	peerID, _ := args.Get("PeerConnectionID")
	direction, _ := args.Get("Direction")
	status, _ := args.Get("Status")
	return ConnectionInfo{
		RcsID:                 parseInt32(rcsID),
		AVTransportID:         parseInt32(avtID),
		ProtocolInfo:          protoInfo,
		PeerConnectionManager: peerMgr,
		PeerConnectionID:      parseInt32(peerID),
		Direction:             direction,
		Status:                status,
	}, nil
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
