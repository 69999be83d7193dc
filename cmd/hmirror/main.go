// Command hmirror inspects and edits one mirrored namespace from the shell.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
