package integration

import "context"

// DeviceInfoProvider is the capability an integration registers when it
// can describe devices it owns. Explicit registration replaces runtime
// discovery: the hub only ever calls interfaces handed to it at setup.
type DeviceInfoProvider interface {
	DeviceInfo(ctx context.Context, deviceID string) (map[string]any, error)
}
