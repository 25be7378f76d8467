package timeseries

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSample archives a single decoded numeric sample for a topic. This
// is the mirror write PersistenceBatcher issues alongside its SQLite
// upsert. The underlying write API is asynchronous and batches points
// client-side, so this only reports the one synchronous precondition
// (not currently connected); it never blocks the batcher's flush loop.
func (c *Client) WriteSample(topic string, value float64, timestamp time.Time) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	point := write.NewPoint(
		"topic_samples",
		map[string]string{"topic": topic},
		map[string]interface{}{"value": value},
		timestamp,
	)
	c.writeAPI.WritePoint(point)
	return nil
}

// WriteAlertEvent archives a threshold alert firing, so alert history can
// be queried alongside the sample data that triggered it. Called from
// ThresholdEvaluator alongside email dispatch, mirroring the way
// WriteSample is called from PersistenceBatcher.
func (c *Client) WriteAlertEvent(topic, color string, value, thresholdValue float64, timestamp time.Time) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	point := write.NewPoint(
		"threshold_alerts",
		map[string]string{"topic": topic, "color": color},
		map[string]interface{}{
			"value":           value,
			"threshold_value": thresholdValue,
		},
		timestamp,
	)
	c.writeAPI.WritePoint(point)
	return nil
}

// WritePoint writes a custom point for measurements that don't fit the
// helpers above.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
