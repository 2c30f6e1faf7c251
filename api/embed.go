// Package api carries the OpenAPI document of the Rocketlane REST API that
// the tool catalog is generated from.
package api

import _ "embed"

// RocketlaneOpenAPI is the OpenAPI 3 document describing every Rocketlane
// operation exposed as a tool.
//
//go:embed rocketlane.yaml
var RocketlaneOpenAPI []byte

// RocketlaneSource is the source name reported for the embedded document.
const RocketlaneSource = "embedded:rocketlane.yaml"
