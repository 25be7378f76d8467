// Package mqtt provides a resilient MQTT client for Warden's ingest
// pipeline.
//
// Reconnection and Subscriptions:
//
// The client auto-reconnects with exponential backoff. It does not track
// or replay subscriptions itself: the coordinator holds the authoritative
// topic set and re-issues Subscribe for each topic from an OnConnect
// callback, so a topic is only ever subscribed by the one component that
// knows the full set.
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe("sensors/reactor-1/temp", 1, handler)
package mqtt
