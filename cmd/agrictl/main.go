package main

import "github.com/MorokaPrince/AgriIntelV3-sub000/internal/cli"

func main() {
	cli.Execute()
}
