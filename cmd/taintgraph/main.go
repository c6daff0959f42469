// Command taintgraph analyzes serialized program graphs for tainted flows
// from attacker-controlled sources into dangerous sinks.
package main

import "os"

func main() {
	os.Exit(execute())
}
