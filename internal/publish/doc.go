// Package publish forwards decoded feed events to an MQTT broker.
//
// Events are JSON encoded feed.Event values published to
// "{prefix}/heart_rate", "{prefix}/metadata" or "{prefix}/frame". The
// broker password is read from WHOOMP_MQTT_PASSWORD by the caller and never
// stored in the config file.
package publish
