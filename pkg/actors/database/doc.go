// Package database provides the key-value database actor. The backing store
// is opened on Start and closed on Stop; memory, Redis and JSON file
// backends are available.
package database
