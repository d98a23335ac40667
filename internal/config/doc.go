// Package config manages user-level settings stored at ~/.bumpwright/config.yaml.
// Every key can also be set from the environment with the BUMPWRIGHT_ prefix
// (BUMPWRIGHT_LOG_LEVEL, BUMPWRIGHT_WORKSPACE, ...). Command flags take
// precedence over both.
package config
