// Package stream serves scenario replays over HTTP.
//
// Routes:
//
//	GET  /healthz             liveness probe
//	GET  /metrics             Prometheus metrics (path configurable)
//	POST /replay              replay the YAML body, or ?source=s3://bucket/key
//	GET  /watch?scenario=...  websocket; replays one scenario and streams its events
//	GET  /events              websocket; receives every event of every replay
package stream
