package scpd

import (
	xmlu "github.com/upnpgo/avengine/internal/xmlutil"
)

// ArgumentDirection is "in" or "out".
type ArgumentDirection string

const (
	DirectionIn  ArgumentDirection = "in"
	DirectionOut ArgumentDirection = "out"
)

// ArgumentDescriptor describes one <argument> entry in an action's
// <argumentList>.
type ArgumentDescriptor struct {
	Name                 string
	Direction            ArgumentDirection
	RelatedStateVariable string
}

// ActionDescriptor describes one <action> entry.
type ActionDescriptor struct {
	Name      string
	Arguments []ArgumentDescriptor
}

// StateVariableDescriptor describes one <stateVariable> entry.
type StateVariableDescriptor struct {
	Name        string
	DataType    string
	SendEvents  bool
	AllowedVals []string
}

// Document is a full parsed or to-be-built SCPD document: its action list
// and state variable table.
type Document struct {
	Actions   []ActionDescriptor
	Variables []StateVariableDescriptor
}

// Build renders doc as a complete SCPD XML document.
func (doc Document) Build() []byte {
	root := xmlu.NewElement("scpd")
	root.SetAttr("xmlns", "urn:schemas-upnp-org:service-1-0")

	specVersion := root.AddChild(xmlu.NewElement("specVersion"))
	specVersion.AddTextChild("major", "1")
	specVersion.AddTextChild("minor", "0")

	actionList := root.AddChild(xmlu.NewElement("actionList"))
	for _, action := range doc.Actions {
		actionEl := actionList.AddChild(xmlu.NewElement("action"))
		actionEl.AddTextChild("name", action.Name)
		argList := actionEl.AddChild(xmlu.NewElement("argumentList"))
		for _, arg := range action.Arguments {
			argEl := argList.AddChild(xmlu.NewElement("argument"))
			argEl.AddTextChild("name", arg.Name)
			argEl.AddTextChild("direction", string(arg.Direction))
			argEl.AddTextChild("relatedStateVariable", arg.RelatedStateVariable)
		}
	}

	stateTable := root.AddChild(xmlu.NewElement("serviceStateTable"))
	for _, v := range doc.Variables {
		varEl := xmlu.NewElement("stateVariable")
		sendEvents := "no"
		if v.SendEvents {
			sendEvents = "yes"
		}
		varEl.SetAttr("sendEvents", sendEvents)
		varEl.AddTextChild("name", v.Name)
		varEl.AddTextChild("dataType", v.DataType)
		if len(v.AllowedVals) > 0 {
			allowedList := varEl.AddChild(xmlu.NewElement("allowedValueList"))
			for _, av := range v.AllowedVals {
				allowedList.AddTextChild("allowedValue", av)
			}
		}
		stateTable.AddChild(varEl)
	}

	return []byte(`<?xml version="1.0" encoding="utf-8"?>` + "\n" + root.String())
}

// Parse extracts the <actionList> and <serviceStateTable> of an SCPD
// document into supportedActions and stateVariables, per spec.md's
// service-client contract; a malformed document degrades to an empty
// Document rather than an error, matching "SCPD-parse failure degrades the
// client to no supported actions known".
func Parse(data []byte) Document {
	var doc Document
	root, err := xmlu.Parse(data)
	if err != nil {
		return doc
	}

	if actionList, ok := root.FindChild("actionList"); ok {
		for _, actionEl := range actionList.FindAllChildren("action") {
			action := ActionDescriptor{}
			if nameEl, ok := actionEl.FindChild("name"); ok {
				action.Name = nameEl.Text
			}
			if argList, ok := actionEl.FindChild("argumentList"); ok {
				for _, argEl := range argList.FindAllChildren("argument") {
					var arg ArgumentDescriptor
					if el, ok := argEl.FindChild("name"); ok {
						arg.Name = el.Text
					}
					if el, ok := argEl.FindChild("direction"); ok {
						arg.Direction = ArgumentDirection(el.Text)
					}
					if el, ok := argEl.FindChild("relatedStateVariable"); ok {
						arg.RelatedStateVariable = el.Text
					}
					action.Arguments = append(action.Arguments, arg)
				}
			}
			doc.Actions = append(doc.Actions, action)
		}
	}

	if stateTable, ok := root.FindChild("serviceStateTable"); ok {
		for _, varEl := range stateTable.FindAllChildren("stateVariable") {
			v := StateVariableDescriptor{}
			if sendEvents, ok := varEl.Attr("sendEvents"); ok {
				v.SendEvents = sendEvents == "yes"
			}
			if el, ok := varEl.FindChild("name"); ok {
				v.Name = el.Text
			}
			if el, ok := varEl.FindChild("dataType"); ok {
				v.DataType = el.Text
			}
			if allowedList, ok := varEl.FindChild("allowedValueList"); ok {
				for _, av := range allowedList.FindAllChildren("allowedValue") {
					v.AllowedVals = append(v.AllowedVals, av.Text)
				}
			}
			doc.Variables = append(doc.Variables, v)
		}
	}

	return doc
}

// ActionNames returns the names of every action in doc, for building a
// supportedActions set.
func (doc Document) ActionNames() []string {
	names := make([]string, len(doc.Actions))
	for i, a := range doc.Actions {
		names[i] = a.Name
	}
	return names
}
