// Package config provides configuration parsing for observer tooling.
//
// The configuration is stored in observer.json or observer.yaml in the
// working directory. JSON is preferred when both exist.
//
// # Configuration File Structure
//
//	{
//	  "dev": true,
//	  "logLevel": "debug",
//	  "hasProto": true,
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "observer"
//	  },
//	  "tracing": {
//	    "enabled": false,
//	    "tracerName": "observer"
//	  },
//	  "devtools": {
//	    "address": "localhost:7070"
//	  },
//	  "s3": {
//	    "region": "us-east-1"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg.Apply()
package config
