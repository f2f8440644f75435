// Package server provides the HTTP surface for the track download service.
//
// # Routing
//
// [NewRouter] assembles a chi router: the JSON API under /api and an
// unprefixed /health probe. Standard chi middleware (request ids, real IP,
// panic recovery) wraps every route, plus [RequestLogger] writing structured
// lines through the service logger.
//
// # Handlers
//
// [API] holds the handler dependencies and implements every endpoint:
// catalog search and metadata proxies, download acceptance (track, album,
// reverse), job status polling, one-shot file retrieval and the existence
// probe. Handlers ack immediately with queued snapshots; the actual pipeline
// work runs on the engine's worker pool.
//
// # Error Mapping
//
// Handlers translate the sentinel taxonomy in internal/shared onto HTTP
// status codes with errors.Is: validation sentinels become 400s, not-found
// sentinels 404s, unconfigured integrations 503s and upstream failures 502s.
// Bodies are always JSON, errors as {"error": message}.
//
// # Lifecycle
//
// [Server] wraps http.Server with Start/Shutdown for graceful draining. The
// write timeout is left disabled so large audio responses are never cut off
// mid-stream.
package server
