// Package events publishes compilation completion events to NATS JetStream.
package events
