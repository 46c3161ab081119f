// Package feed implements the live feed server and its websocket client.
//
// The server accepts raw frames (POST /v1/frames, or capture replay paced by
// a token bucket), decodes them through protocol.Dispatcher and turns each
// into an Event. Events are:
//
//   - broadcast to websocket subscribers on /ws through the Hub
//   - kept, for accepted frames, in a bounded Store that backs
//     /v1/series and /v1/commands
//   - counted in Prometheus metrics exposed on /metrics
//   - passed to OnEvent listeners (the MQTT publisher registers one)
//
// A slow subscriber loses events instead of stalling ingestion.
package feed
