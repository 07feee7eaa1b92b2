// Package config loads vtree.json, the configuration of the vtree command.
//
// # Configuration File Structure
//
//	{
//	  "port": 7070,
//	  "host": "localhost",
//	  "logLevel": "info",
//	  "trees": ["trees/step1.yaml", "trees/step2.yaml"],
//	  "server": {
//	    "session": "main",
//	    "title": "vtree",
//	    "heartbeat": "30s",
//	    "patchHistory": 100
//	  },
//	  "snapshot": {
//	    "backend": "s3",
//	    "bucket": "vtree-snapshots",
//	    "region": "eu-west-1"
//	  },
//	  "render": {"pretty": true},
//	  "metrics": {"enabled": true}
//	}
//
// VTREE_PORT, VTREE_HOST and VTREE_LOG_LEVEL override the file.
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
