// Package actuator translates actuator commands into the Arduino serial
// vocabulary. The dev backend uses it to queue actuator requests as
// serial_command lines; the agent uses it to describe commands it does not run.
package actuator

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Fill rate assumed when a fill is requested by duration instead of volume.
const fillLitersPerMinute = 6.0

// ToSerial returns the serial line for an actuator command type. Unknown
// types map to STATUS with ok=false.
func ToSerial(actuatorType string, params map[string]any) (string, bool) {
	switch actuatorType {
	case "spray_pump", "pump":
		return "Spray " + intParam(params, "duration_ms", 1000), true
	case "fill_valve":
		if liters := stringParam(params, "target_liters"); liters != "" {
			return "FillL " + liters, true
		}
		ms, ok := floatParam(params, "duration_ms")
		if !ok {
			ms = 5000
		}
		liters := ms / 1000 / 60 * fillLitersPerMinute
		return "FillL " + strconv.FormatFloat(liters, 'f', 2, 64), true
	case "valve":
		return onOff(params, "TabON", "TabOFF"), true
	case "light":
		return onOff(params, "LightON", "LightOFF"), true
	case "fan":
		return "Fan " + intParam(params, "duration_ms", 5000), true
	}
	return "STATUS", false
}

func stringParam(params map[string]any, key string) string {
	switch v := params[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func floatParam(params map[string]any, key string) (float64, bool) {
	s := strings.TrimSpace(stringParam(params, key))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func intParam(params map[string]any, key string, def int) string {
	if f, ok := floatParam(params, key); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.Itoa(def)
}

func onOff(params map[string]any, on, off string) string {
	state := stringParam(params, "state")
	if state == "" || state == "on" {
		return on
	}
	return off
}
