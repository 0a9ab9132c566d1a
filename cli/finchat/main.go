package main

import (
	"os"

	finchatcmder "github.com/finpersona/finchat/cmd/finchat"
)

func main() {
	cmd := finchatcmder.NewFinchatCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
