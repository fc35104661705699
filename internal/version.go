package internal

// Version is the echovision release version
const Version = "0.3.0"
