package telemetry

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteDeviceMetric records a single numeric device measurement.
//
// The write is non-blocking; points are batched and sent asynchronously.
//
//	client.WriteDeviceMetric("thermostat_hall", "temperature_c", 21.5)
func (c *Client) WriteDeviceMetric(deviceID string, measurement string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_metrics",
		map[string]string{
			"device_id":   deviceID,
			"measurement": measurement,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteStateChange records a device state transition for history queries.
//
// The state value is stored as a field so high-cardinality states do not
// explode the tag index.
func (c *Client) WriteStateChange(deviceID string, domain string, state string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"state_changes",
		map[string]string{
			"device_id": deviceID,
			"domain":    domain,
		},
		map[string]interface{}{
			"state": state,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteConnectionStats records WebSocket connection counters.
//
// Used by the socket server to track active connections and total
// messages dispatched.
func (c *Client) WriteConnectionStats(active int, dispatched uint64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"socket_stats",
		nil,
		map[string]interface{}{
			"active_connections": active,
			"messages_total":     int64(dispatched), // #nosec G115 -- counter fits int64 in practice
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
