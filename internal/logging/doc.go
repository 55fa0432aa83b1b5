// Package logging provides a small leveled logger for the media explorer.
//
// Levels, lowest first: DEBUG, INFO, WARN, ERROR. FATAL always prints and exits.
//
// The level is read once from DEBUG (any truthy value forces debug) or
// LOG_LEVEL. Startup code may override it with SetLevel after loading
// configuration.
package logging
