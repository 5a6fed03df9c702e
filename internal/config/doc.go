// Package config provides configuration parsing for the arrive CLI and
// server.
//
// The configuration is stored in arrive.json. This package handles loading,
// saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "defaults": {
//	    "arrive": {"existing": true, "timeout": "2s"},
//	    "leave": {"onceOnly": false}
//	  },
//	  "log": {"level": "debug", "format": "json"},
//	  "metrics": {"enabled": true, "namespace": "arrive", "path": "/metrics"},
//	  "server": {"host": "0.0.0.0", "port": 7070},
//	  "s3": {"region": "eu-west-1", "endpoint": "http://localhost:9000"}
//	}
//
// # Usage
//
//	cfg, err := config.Resolve(flagPath)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defaults, err := cfg.EngineDefaults()
package config
