package version

// Version is the talk-tools release version.
const Version = "0.3.0"
