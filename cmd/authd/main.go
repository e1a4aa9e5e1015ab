// Command authd serves the authcore engine over HTTP.
package main

import "github.com/farmlink/authcore/cmd/authd/cmd"

func main() {
	cmd.Execute()
}
