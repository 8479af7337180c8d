// Package scpd builds and parses UPnP device description and SCPD (Service
// Control Protocol Description) XML documents. Its structure and field
// names are grounded directly on a reference device-description/SCPD
// generator, generalized from fixed string templates into builders over
// internal/xmlutil that also parse.
package scpd

import (
	avmodel "github.com/upnpgo/avengine/internal/model"
	xmlu "github.com/upnpgo/avengine/internal/xmlutil"
)

// EmbeddedDevice describes one device node for the purposes of
// BuildDeviceDescription; devices nest their own EmbeddedDevices and
// Services.
type EmbeddedDevice struct {
	UDN          string
	FriendlyName string
	Manufacturer string
	ModelName    string
	Type         avmodel.DeviceType
	Services     []avmodel.Service
	Embedded     []EmbeddedDevice
}

// BuildDeviceDescription renders the <root><device>...<serviceList>...
// document for root, with urlBase published as <URLBase> when non-empty.
func BuildDeviceDescription(urlBase string, root EmbeddedDevice) []byte {
	rootEl := xmlu.NewElement("root")
	rootEl.SetAttr("xmlns", "urn:schemas-upnp-org:device-1-0")

	specVersion := rootEl.AddChild(xmlu.NewElement("specVersion"))
	specVersion.AddTextChild("major", "1")
	specVersion.AddTextChild("minor", "0")

	if urlBase != "" {
		rootEl.AddTextChild("URLBase", urlBase)
	}

	rootEl.AddChild(buildDeviceElement(root))

	return []byte(`<?xml version="1.0"?>` + "\n" + rootEl.String())
}

func buildDeviceElement(d EmbeddedDevice) *xmlu.Element {
	deviceEl := xmlu.NewElement("device")
	deviceEl.AddTextChild("deviceType", avmodel.DeviceTypeToUrnTypeString(d.Type))
	deviceEl.AddTextChild("friendlyName", d.FriendlyName)
	if d.Manufacturer != "" {
		deviceEl.AddTextChild("manufacturer", d.Manufacturer)
	}
	if d.ModelName != "" {
		deviceEl.AddTextChild("modelName", d.ModelName)
	}
	deviceEl.AddTextChild("UDN", d.UDN)

	if len(d.Services) > 0 {
		serviceList := deviceEl.AddChild(xmlu.NewElement("serviceList"))
		for _, svc := range d.Services {
			serviceEl := serviceList.AddChild(xmlu.NewElement("service"))
			serviceEl.AddTextChild("serviceType", avmodel.ServiceTypeToUrnTypeString(svc.Type))
			serviceEl.AddTextChild("serviceId", svc.ServiceID)
			serviceEl.AddTextChild("SCPDURL", svc.SCPDURL)
			serviceEl.AddTextChild("controlURL", svc.ControlURL)
			serviceEl.AddTextChild("eventSubURL", svc.EventSubURL)
		}
	}

	if len(d.Embedded) > 0 {
		deviceList := deviceEl.AddChild(xmlu.NewElement("deviceList"))
		for _, embedded := range d.Embedded {
			deviceList.AddChild(buildDeviceElement(embedded))
		}
	}

	return deviceEl
}

// ParsedDevice is the result of parsing a device description document.
type ParsedDevice struct {
	UDN          string
	FriendlyName string
	Type         avmodel.DeviceType
	BaseURL      string
	Services     []avmodel.Service
}

// ParseDeviceDescription parses a device description document rooted at
// locationURL (used to resolve relative service URLs when no <URLBase> is
// present, per spec.md's "resolved relative to <URLBase> or the LOCATION").
func ParseDeviceDescription(data []byte, locationURL string) (*ParsedDevice, error) {
	root, err := xmlu.Parse(data)
	if err != nil {
		return nil, err
	}

	baseURL := locationURL
	if urlBaseEl, ok := root.FindChild("URLBase"); ok && urlBaseEl.Text != "" {
		baseURL = urlBaseEl.Text
	}

	deviceEl, ok := root.FindChild("device")
	if !ok {
		return nil, errNoDeviceElement
	}

	parsed := &ParsedDevice{BaseURL: baseURL}
	if el, ok := deviceEl.FindChild("deviceType"); ok {
		dt, err := avmodel.DeviceTypeUrnStringToDevice(el.Text)
		if err == nil {
			parsed.Type = dt
		}
	}
	if el, ok := deviceEl.FindChild("friendlyName"); ok {
		parsed.FriendlyName = el.Text
	}
	if el, ok := deviceEl.FindChild("UDN"); ok {
		parsed.UDN = el.Text
	}

	if serviceListEl, ok := deviceEl.FindChild("serviceList"); ok {
		for _, serviceEl := range serviceListEl.FindAllChildren("service") {
			var svc avmodel.Service
			if el, ok := serviceEl.FindChild("serviceType"); ok {
				st, err := avmodel.ServiceTypeUrnStringToService(el.Text)
				if err == nil {
					svc.Type = st
				}
			}
			if el, ok := serviceEl.FindChild("serviceId"); ok {
				svc.ServiceID = el.Text
			}
			if el, ok := serviceEl.FindChild("SCPDURL"); ok {
				svc.SCPDURL = el.Text
			}
			if el, ok := serviceEl.FindChild("controlURL"); ok {
				svc.ControlURL = el.Text
			}
			if el, ok := serviceEl.FindChild("eventSubURL"); ok {
				svc.EventSubURL = el.Text
			}
			parsed.Services = append(parsed.Services, svc)
		}
	}

	return parsed, nil
}

var errNoDeviceElement = xmlError("scpd: device description missing <device> element")

type xmlError string

func (e xmlError) Error() string { return string(e) }
