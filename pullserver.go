// Package pullserver triggers a source-control synchronization of the
// process working directory over HTTP.
package pullserver

// Version is the pullserver release version.
const Version = "0.1.0"
