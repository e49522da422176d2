// Package config loads the server's HCL configuration file.
//
// A file may contain any of these blocks, each at most once except line:
//
//	server {
//	  listen           = "127.0.0.1:12345"
//	  max_query_length = 1024
//	}
//
//	http {
//	  port       = 8080
//	  static_dir = "${config_dir}/public"
//	}
//
//	log {
//	  level  = "debug"
//	  format = "json"
//	}
//
//	line "red" {
//	  file = "lines/red.txt"
//	}
//
// Expressions can read config_dir, the directory holding the file, and env,
// the process environment. Relative line files are resolved against
// config_dir. Attributes that are left out stay nil so flags and defaults can
// fill them in.
package config
