package version

// Version is stamped at release time; "dev" otherwise.
var Version = "0.2.0"
