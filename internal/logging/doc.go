// Package logging provides leveled logging for the DICOM viewer.
//
// The log level is read once from the environment: DEBUG=true forces
// debug output, otherwise LOG_LEVEL selects one of debug, info, warn,
// error (default info). SetLevel overrides the level at runtime.
package logging
