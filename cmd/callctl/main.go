// Command callctl is the operator CLI for the call center platform.
// It talks to Postgres directly and never goes through the HTTP API.
package main

import "os"

func main() {
	os.Exit(New().Execute())
}
