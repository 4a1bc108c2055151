package device

import "time"

// Device represents a controllable or monitorable entity in the home.
// This matches the devices table in the initial schema migration.
type Device struct {
	// Identity
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`

	// Location: weak reference into the area registry. Cleared, never
	// cascaded, when the area is deleted.
	AreaID *string `json:"area_id,omitempty"`

	// Classification
	Domain   Domain   `json:"domain"`
	Protocol Protocol `json:"protocol"`

	// Address holds protocol-specific addressing as a JSON map.
	//
	// Examples:
	//   MQTT:  {"topic": "hearth/state/zigbee/0x00124b00"}
	//   Modem: {"device_address": "AA.BB.CC"}
	Address Address `json:"address"`

	// Labels are weak references into the label registry.
	Labels []string `json:"labels,omitempty"`

	// Current state
	State          State      `json:"state"`
	StateUpdatedAt *time.Time `json:"state_updated_at,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Address holds protocol-specific address information as a JSON map.
type Address map[string]any

// State holds the current device state as a JSON map.
//
// Examples:
//   - Light: {"on": true, "brightness": 75}
//   - Thermostat: {"temperature": 21.5, "setpoint": 22.0, "mode": "heat"}
type State map[string]any

// DeepCopy creates a complete independent copy of the Device.
// All map and slice fields are cloned so modifications to the copy
// do not affect the original. Essential for cache isolation.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d
	cpy.Address = deepCopyMap(d.Address)
	cpy.State = deepCopyMap(d.State)

	if d.Labels != nil {
		cpy.Labels = make([]string, len(d.Labels))
		copy(cpy.Labels, d.Labels)
	}

	// Pointer fields (*string, *time.Time) point at immutable values.

	return &cpy
}

// deepCopyMap creates a deep copy of a map[string]any.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		return v
	}
}

// Domain represents the functional kind of a device.
type Domain string

// Domain constants.
const (
	DomainLight       Domain = "light"
	DomainSwitch      Domain = "switch"
	DomainSensor      Domain = "sensor"
	DomainClimate     Domain = "climate"
	DomainCover       Domain = "cover"
	DomainLock        Domain = "lock"
	DomainFan         Domain = "fan"
	DomainMediaPlayer Domain = "media_player"
)

// AllDomains returns all valid domain values.
func AllDomains() []Domain {
	return []Domain{
		DomainLight, DomainSwitch, DomainSensor, DomainClimate,
		DomainCover, DomainLock, DomainFan, DomainMediaPlayer,
	}
}

// Protocol represents the transport a device is reached over.
type Protocol string

// Protocol constants.
const (
	ProtocolMQTT   Protocol = "mqtt"
	ProtocolZigbee Protocol = "zigbee"
	ProtocolZWave  Protocol = "zwave"
	ProtocolMatter Protocol = "matter"
	ProtocolModem  Protocol = "modem"
	ProtocolHTTP   Protocol = "http"
)

// AllProtocols returns all valid protocol values.
func AllProtocols() []Protocol {
	return []Protocol{
		ProtocolMQTT, ProtocolZigbee, ProtocolZWave,
		ProtocolMatter, ProtocolModem, ProtocolHTTP,
	}
}
