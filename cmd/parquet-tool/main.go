package main

import "github.com/polarsignals/pqexplorer/cmd/parquet-tool/cmd"

func main() {
	cmd.Execute()
}
