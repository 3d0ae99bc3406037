// Command rehearse runs mock job interviews against an AI interviewer.
package main

import "github.com/rehearse-dev/rehearse/internal/cli"

func main() {
	cli.Execute()
}
