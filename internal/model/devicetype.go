package model

import (
	"fmt"
	"strconv"
	"strings"
)

// DeviceTag identifies a UPnP AV device kind. Equality between two
// DeviceType values is by tag only.
type DeviceTag int

const (
	DeviceUnknown DeviceTag = iota
	DeviceMediaServer
	DeviceMediaRenderer
	DeviceInternetGateway
)

func (t DeviceTag) String() string {
	switch t {
	case DeviceMediaServer:
		return "MediaServer"
	case DeviceMediaRenderer:
		return "MediaRenderer"
	case DeviceInternetGateway:
		return "InternetGatewayDevice"
	default:
		return "Unknown"
	}
}

// DeviceType is a tagged variant over the known UPnP AV device kinds plus a
// version number used only for URN rendering.
type DeviceType struct {
	Tag     DeviceTag
	Version uint32
}

// DeviceTypeToUrnTypeString renders the deviceType URN, e.g.
// "urn:schemas-upnp-org:device:MediaRenderer:1".
func DeviceTypeToUrnTypeString(t DeviceType) string {
	return fmt.Sprintf("urn:schemas-upnp-org:device:%s:%d", t.Tag, versionOrDefault(t.Version))
}

// DeviceTypeUrnStringToDevice parses a deviceType URN back into a
// DeviceType, the inverse of DeviceTypeToUrnTypeString for every known tag.
func DeviceTypeUrnStringToDevice(urn string) (DeviceType, error) {
	parts := strings.Split(urn, ":")
	if len(parts) != 5 || parts[0] != "urn" || parts[1] != "schemas-upnp-org" || parts[2] != "device" {
		return DeviceType{}, fmt.Errorf("model: malformed deviceType urn %q", urn)
	}
	version, err := strconv.ParseUint(parts[4], 10, 32)
	if err != nil {
		return DeviceType{}, fmt.Errorf("model: malformed deviceType version in urn %q: %w", urn, err)
	}
	tag := deviceTagFromName(parts[3])
	return DeviceType{Tag: tag, Version: uint32(version)}, nil
}

func deviceTagFromName(name string) DeviceTag {
	switch name {
	case "MediaServer":
		return DeviceMediaServer
	case "MediaRenderer":
		return DeviceMediaRenderer
	case "InternetGatewayDevice":
		return DeviceInternetGateway
	default:
		return DeviceUnknown
	}
}
