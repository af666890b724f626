// Package event holds the broker payloads shared by publishing and consuming modules.
package event

// HeaderCorrelationID carries the request correlation id across the broker.
const HeaderCorrelationID string = "cID"

// ActivityConsumerGroup is the group the activity module consumes every destination with.
const ActivityConsumerGroup string = "activity"

// Destinations lists every destination the activity module records.
var Destinations = []string{
	UserRegisteredDestination,
	TokenIssuedDestination,
	TokenRevokedDestination,
	ExportCreatedDestination,
}
