// Package clip defines the core types, ports, and errors shared by the web
// clipper pipeline: the request that enters the orchestrator, the artifacts each
// step produces, and the narrow interfaces the external systems are reached through.
package clip
