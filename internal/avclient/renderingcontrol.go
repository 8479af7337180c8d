package avclient

import (
	"context"
	"time"

	averrors "github.com/upnpgo/avengine/internal/errors"
	"github.com/upnpgo/avengine/internal/gena"
	"github.com/upnpgo/avengine/internal/httpx"
	avmodel "github.com/upnpgo/avengine/internal/model"
)

// RenderingControlTraits supplies the RenderingControl service's
// subscription timeout and fault handling. RenderingControl defines no
// service-specific error codes beyond the generic UPnP range.
type RenderingControlTraits struct{}

func (RenderingControlTraits) Tag() avmodel.ServiceTag { return avmodel.ServiceRenderingControl }

func (RenderingControlTraits) SubscriptionTimeout() time.Duration { return 1801 * time.Second }

func (RenderingControlTraits) HandleUPnPResult(code int, defaultMessage string) error {
	return averrors.UPnPError(code, defaultMessage)
}

// RenderingControl is the control-point-side RenderingControl service
// client: volume and mute control, plus LastChange eventing.
type RenderingControl struct {
	*ServiceClient
}

// NewRenderingControl builds a RenderingControl client.
func NewRenderingControl(httpClient *httpx.Client, genaClient *gena.Client) *RenderingControl {
	return &RenderingControl{ServiceClient: NewServiceClient(RenderingControlTraits{}, httpClient, genaClient)}
}

// SetVolume sets the volume for channel (e.g. "Master") on the given instance.
func (c *RenderingControl) SetVolume(ctx context.Context, instanceID uint32, channel string, volume uint16) error {
	_, err := c.ExecuteAction(ctx, "SetVolume", [][2]string{
		{"InstanceID", instanceStr(instanceID)},
		{"Channel", channel},
		{"DesiredVolume", instanceStr(uint32(volume))},
	})
	return err
}

// GetVolume queries the current volume for channel on the given instance.
func (c *RenderingControl) GetVolume(ctx context.Context, instanceID uint32, channel string) (uint16, error) {
	args, err := c.ExecuteAction(ctx, "GetVolume", [][2]string{
		{"InstanceID", instanceStr(instanceID)},
		{"Channel", channel},
	})
	if err != nil {
		return 0, err
	}
	v, _ := args.Get("CurrentVolume")
	return uint16(parseUint32(v)), nil
}

// SetMute sets the mute state for channel on the given instance.
func (c *RenderingControl) SetMute(ctx context.Context, instanceID uint32, channel string, mute bool) error {
	_, err := c.ExecuteAction(ctx, "SetMute", [][2]string{
		{"InstanceID", instanceStr(instanceID)},
		{"Channel", channel},
		{"DesiredMute", boolToUPnP(mute)},
	})
	return err
}

// GetMute queries the current mute state for channel on the given instance.
func (c *RenderingControl) GetMute(ctx context.Context, instanceID uint32, channel string) (bool, error) {
	args, err := c.ExecuteAction(ctx, "GetMute", [][2]string{
		{"InstanceID", instanceStr(instanceID)},
		{"Channel", channel},
	})
	if err != nil {
		return false, err
	}
	v, _ := args.Get("CurrentMute")
	return v == "1" || v == "true", nil
}

func boolToUPnP(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
