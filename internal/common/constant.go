// Package common contains shared constants and sentinel errors used across
// paykeeper components.
package common

// AccessTokenHeaderName is the gRPC/HTTP metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// SettingsID is the well-known id of the singleton settings record.
const SettingsID = "app-settings"
