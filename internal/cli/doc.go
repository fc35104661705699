// Package cli provides command-line interface setup and configuration
// for the echovision application. It handles flag parsing, command
// creation, and configuration management using cobra and viper, and
// resolves everything into one Settings value for the rest of the program.
package cli
