package device

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Kitchen Light", "kitchen_light"},
		{"Front-Porch Light", "front_porch_light"},
		{"  Weird   Name  ", "weird_name"},
		{"UPPER", "upper"},
	}
	for _, tt := range tests {
		if got := GenerateSlug(tt.name); got != tt.want {
			t.Errorf("GenerateSlug(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestValidateDevice(t *testing.T) {
	valid := func() *Device {
		return &Device{
			ID:       GenerateID(),
			Name:     "Kitchen Light",
			Slug:     "kitchen_light",
			Domain:   DomainLight,
			Protocol: ProtocolZigbee,
			Address:  Address{"device_address": "0xabc"},
		}
	}

	if err := ValidateDevice(valid()); err != nil {
		t.Fatalf("ValidateDevice(valid) error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Device)
		want   error
	}{
		{"empty name", func(d *Device) { d.Name = "" }, ErrInvalidName},
		{"long name", func(d *Device) { d.Name = strings.Repeat("x", 101) }, ErrInvalidName},
		{"bad slug", func(d *Device) { d.Slug = "Has-Caps" }, ErrInvalidSlug},
		{"bad domain", func(d *Device) { d.Domain = "teleporter" }, ErrInvalidDomain},
		{"bad protocol", func(d *Device) { d.Protocol = "telepathy" }, ErrInvalidProtocol},
		{"no address", func(d *Device) { d.Address = nil }, ErrInvalidAddress},
		{"missing address key", func(d *Device) { d.Address = Address{"foo": "bar"} }, ErrInvalidAddress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid()
			tt.mutate(d)
			if err := ValidateDevice(d); !errors.Is(err, tt.want) {
				t.Errorf("ValidateDevice() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidateAddress_PerProtocol(t *testing.T) {
	if err := ValidateAddress(ProtocolModem, Address{"device_address": "AA.BB.CC"}); err != nil {
		t.Errorf("modem address error = %v", err)
	}
	if err := ValidateAddress(ProtocolModem, Address{"topic": "x"}); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("modem without device_address error = %v, want ErrInvalidAddress", err)
	}
	if err := ValidateAddress(ProtocolHTTP, Address{"url": "http://cam.local"}); err != nil {
		t.Errorf("http address error = %v", err)
	}
	if err := ValidateAddress(ProtocolMQTT, Address{"topic": "hearth/state/x/y"}); err != nil {
		t.Errorf("mqtt address error = %v", err)
	}
}

func TestValidateDevice_NestingDepthLimit(t *testing.T) {
	deep := map[string]any{}
	cur := deep
	for i := 0; i < 15; i++ {
		next := map[string]any{}
		cur["nested"] = next
		cur = next
	}

	d := &Device{
		ID:       GenerateID(),
		Name:     "Deep",
		Domain:   DomainSensor,
		Protocol: ProtocolMQTT,
		Address:  Address{"topic": "x"},
		State:    deep,
	}
	if err := ValidateDevice(d); !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("ValidateDevice(deeply nested) error = %v, want ErrInvalidDevice", err)
	}
}
