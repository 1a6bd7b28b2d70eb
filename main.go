package main

import "github.com/hrops/attendance-ledger/cmd"

func main() {
	cmd.Execute()
}
