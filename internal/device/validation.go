package device

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Validation constants.
const (
	maxNameLength = 100
	maxSlugLength = 50
	slugPattern   = `^[a-z0-9]+(?:_[a-z0-9]+)*$`

	// Size limits for JSON fields to bound memory per device.
	maxAddressKeys    = 20
	maxStateKeys      = 100
	maxLabels         = 50
	maxStringValueLen = 1024
	maxNestingDepth   = 10
)

var slugRegex = regexp.MustCompile(slugPattern)

// Pre-computed validation sets for O(1) lookups.
var (
	validDomains   map[Domain]struct{}
	validProtocols map[Protocol]struct{}
)

func init() {
	validDomains = make(map[Domain]struct{}, len(AllDomains()))
	for _, d := range AllDomains() {
		validDomains[d] = struct{}{}
	}

	validProtocols = make(map[Protocol]struct{}, len(AllProtocols()))
	for _, p := range AllProtocols() {
		validProtocols[p] = struct{}{}
	}
}

// ValidateDevice performs full validation on a device.
// Returns an error describing the first validation failure found.
func ValidateDevice(d *Device) error {
	if d == nil {
		return ErrInvalidDevice
	}

	if err := ValidateName(d.Name); err != nil {
		return err
	}

	// An empty slug is generated later.
	if d.Slug != "" {
		if err := ValidateSlug(d.Slug); err != nil {
			return err
		}
	}

	if err := ValidateDomain(d.Domain); err != nil {
		return err
	}
	if err := ValidateProtocol(d.Protocol); err != nil {
		return err
	}

	if len(d.Address) == 0 {
		return fmt.Errorf("%w: address is required", ErrInvalidAddress)
	}
	if len(d.Address) > maxAddressKeys {
		return fmt.Errorf("%w: address exceeds max keys (%d)", ErrInvalidAddress, maxAddressKeys)
	}
	if err := validateMapSize(d.Address, "address", 0); err != nil {
		return err
	}
	if err := ValidateAddress(d.Protocol, d.Address); err != nil {
		return err
	}

	if len(d.State) > maxStateKeys {
		return fmt.Errorf("%w: state exceeds max keys (%d)", ErrInvalidState, maxStateKeys)
	}
	if err := validateMapSize(d.State, "state", 0); err != nil {
		return err
	}

	if len(d.Labels) > maxLabels {
		return fmt.Errorf("%w: too many labels (max %d)", ErrInvalidDevice, maxLabels)
	}

	return nil
}

// validateMapSize bounds key/value sizes and nesting depth.
func validateMapSize(m map[string]any, fieldName string, depth int) error {
	if depth > maxNestingDepth {
		return fmt.Errorf("%w: %s exceeds maximum nesting depth", ErrInvalidDevice, fieldName)
	}

	for k, v := range m {
		if len(k) > maxStringValueLen {
			return fmt.Errorf("%w: %s key too long", ErrInvalidDevice, fieldName)
		}
		if err := validateValueSize(v, fieldName, depth); err != nil {
			return err
		}
	}
	return nil
}

func validateValueSize(v any, fieldName string, depth int) error {
	switch val := v.(type) {
	case string:
		if len(val) > maxStringValueLen {
			return fmt.Errorf("%w: %s string value too long", ErrInvalidDevice, fieldName)
		}
	case map[string]any:
		if len(val) > maxStateKeys {
			return fmt.Errorf("%w: %s nested map too large", ErrInvalidDevice, fieldName)
		}
		return validateMapSize(val, fieldName, depth+1)
	case []any:
		if len(val) > maxStateKeys {
			return fmt.Errorf("%w: %s array too large", ErrInvalidDevice, fieldName)
		}
		for _, elem := range val {
			if err := validateValueSize(elem, fieldName, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateName checks if a device name is valid.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidateSlug checks if a slug format is valid.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("%w: slug cannot be empty", ErrInvalidSlug)
	}
	if len(slug) > maxSlugLength {
		return fmt.Errorf("%w: slug exceeds %d characters", ErrInvalidSlug, maxSlugLength)
	}
	if !slugRegex.MatchString(slug) {
		return fmt.Errorf("%w: slug must be lowercase alphanumeric with underscores", ErrInvalidSlug)
	}
	return nil
}

// ValidateDomain checks if a domain is valid.
func ValidateDomain(domain Domain) error {
	if _, ok := validDomains[domain]; ok {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
}

// ValidateProtocol checks if a protocol is valid.
func ValidateProtocol(protocol Protocol) error {
	if _, ok := validProtocols[protocol]; ok {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidProtocol, protocol)
}

// ValidateAddress validates protocol-specific address configuration.
// Detailed validation belongs to the owning bridge; the hub only checks
// the keys it routes on.
func ValidateAddress(protocol Protocol, addr Address) error {
	switch protocol {
	case ProtocolMQTT, ProtocolZigbee, ProtocolZWave, ProtocolMatter:
		// Bridged protocols report over MQTT and need a device address.
		if _, ok := addr["device_address"]; !ok {
			if _, ok := addr["topic"]; !ok {
				return fmt.Errorf("%w: %s address requires device_address or topic", ErrInvalidAddress, protocol)
			}
		}
		return nil
	case ProtocolModem:
		da, ok := addr["device_address"].(string)
		if !ok || da == "" {
			return fmt.Errorf("%w: modem address requires device_address", ErrInvalidAddress)
		}
		return nil
	case ProtocolHTTP:
		if _, ok := addr["url"]; !ok {
			return fmt.Errorf("%w: http address requires url", ErrInvalidAddress)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown protocol %q", ErrInvalidProtocol, protocol)
}

// GenerateSlug creates an identifier-safe slug from a name.
func GenerateSlug(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "_")
	slug = strings.ReplaceAll(slug, "-", "_")

	var result strings.Builder
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			result.WriteRune(r)
		}
	}
	slug = result.String()

	slug = strings.Trim(slug, "_")
	for strings.Contains(slug, "__") {
		slug = strings.ReplaceAll(slug, "__", "_")
	}

	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
		slug = strings.TrimRight(slug, "_")
	}

	return slug
}

// GenerateID creates a new UUID for a device.
func GenerateID() string {
	return uuid.New().String()
}
