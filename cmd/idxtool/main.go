// Command idxtool builds, queries, and inspects disk-resident B+-tree
// indexes over a single integer attribute.
package main

import "btreeidx/internal/cli"

func main() {
	cli.Execute()
}
