package mqtt

// SystemStatusTopic is the topic Warden publishes its own online/offline
// status to, distinct from the arbitrary sensor topics it subscribes to on
// behalf of the coordinator. New subscribers get the retained last value.
const SystemStatusTopic = "warden/system/status"

// Topics provides builders for Warden's own control topics. Sensor topics
// themselves are opaque strings supplied by the caller of subscribeToTopic
// and are not modeled here.
type Topics struct{}

// SystemStatus returns the topic Warden's LWT and lifecycle status are
// published to.
func (Topics) SystemStatus() string {
	return SystemStatusTopic
}
