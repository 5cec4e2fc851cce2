// fieldlens statically analyzes a domain model and computes, for every call
// path that crosses a repository boundary, the aggregate-root fields that
// path actually requires.
package main

import "github.com/lenslabs/fieldlens/cmd"

func main() {
	cmd.Execute()
}
