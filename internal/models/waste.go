package models

import "strings"

// WasteType is the e-waste category reported by the classifier
type WasteType string

const (
	WasteBattery        WasteType = "Battery"
	WasteKeyboard       WasteType = "Keyboard"
	WasteMicrowave      WasteType = "Microwave"
	WasteMobile         WasteType = "Mobile"
	WasteMouse          WasteType = "Mouse"
	WastePCB            WasteType = "PCB"
	WastePlayer         WasteType = "Player"
	WastePrinter        WasteType = "Printer"
	WasteTelevision     WasteType = "Television"
	WasteWashingMachine WasteType = "Washing Machine"
	WasteLaptop         WasteType = "Laptop"
	WasteUnknown        WasteType = "Unknown"
)

// KnownWasteTypes lists the categories the classifier model was trained on
var KnownWasteTypes = []WasteType{
	WasteBattery,
	WasteKeyboard,
	WasteMicrowave,
	WasteMobile,
	WasteMouse,
	WastePCB,
	WastePlayer,
	WastePrinter,
	WasteTelevision,
	WasteWashingMachine,
	WasteLaptop,
}

// ParseWasteType matches a label case-insensitively against the known
// categories. Anything else becomes WasteUnknown.
func ParseWasteType(label string) WasteType {
	label = strings.TrimSpace(label)
	for _, wt := range KnownWasteTypes {
		if strings.EqualFold(string(wt), label) {
			return wt
		}
	}
	return WasteUnknown
}

// ClassificationResult is the opaque output of the image classifier
type ClassificationResult struct {
	WasteType  WasteType `json:"waste_type"`
	Confidence float64   `json:"confidence"`
}

// DetectionResponse is returned by POST /user/detect-waste
type DetectionResponse struct {
	WasteType     WasteType `json:"waste_type"`
	Confidence    float64   `json:"confidence"`
	BasePoints    int       `json:"base_points"`
	ManualPoints  int       `json:"manual_points"`
	PointsToEarn  int       `json:"points_to_earn"`
	LowConfidence bool      `json:"low_confidence"`
}
