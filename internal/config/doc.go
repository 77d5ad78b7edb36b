// Package config provides configuration parsing for propctl.
//
// The configuration is stored in propctl.json. This package handles
// loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "localhost",
//	    "port": 7070,
//	    "metrics": true,
//	    "syncTimeout": "5s"
//	  },
//	  "reactor": {
//	    "name": "default",
//	    "lockThread": false,
//	    "recoverPanics": true,
//	    "traceJobs": false
//	  },
//	  "log": {
//	    "level": "info",
//	    "json": false
//	  },
//	  "bench": {
//	    "writers": 4,
//	    "writes": 10000,
//	    "subscribers": 4
//	  },
//	  "properties": [
//	    {"name": "port", "type": "int", "value": "8080"},
//	    {"name": "ratio", "type": "double", "value": "0.5"}
//	  ]
//	}
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
