// Command ralph is the minimal CLI wiring for the build loop engine: it
// resolves the agent CLI and config, builds an Iteration Context, and hands
// it to the Build Loop Controller. The CLI surface itself is intentionally
// thin — the engine, not the command layer, is this module's subject.
package main

import "os"

func main() {
	os.Exit(Execute())
}
