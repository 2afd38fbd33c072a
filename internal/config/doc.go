// Package config provides configuration parsing for the scenes server.
//
// The configuration is stored in scenes.json next to the dashboard
// definition. This package handles loading, saving, and validating it.
//
// # Configuration File Structure
//
//	{
//	  "dashboard": "dashboard.yaml",
//	  "server": {
//	    "host": "localhost",
//	    "port": 3100,
//	    "allowedOrigins": ["http://localhost:3000"]
//	  },
//	  "data": {
//	    "path": "data/payload.json",
//	    "watch": true,
//	    "debounce": "200ms",
//	    "refresh": "30s"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "telemetry": {
//	    "namespace": "scenes",
//	    "tracerName": "github.com/vango-dev/scenes"
//	  },
//	  "nats": {
//	    "url": "nats://localhost:4222",
//	    "subject": "scenes.snapshots"
//	  }
//	}
//
// Relative paths are resolved against the directory holding scenes.json.
//
// A .env file next to scenes.json is loaded into the environment, then the
// SCENES_HOST, SCENES_PORT, SCENES_DASHBOARD, SCENES_DATA, SCENES_LOG_LEVEL
// and SCENES_NATS_URL variables override the file.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
