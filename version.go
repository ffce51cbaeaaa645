package cardflow

// Version is the release of the library and the command line tool.
const Version = "0.4.0"
