// Package main is the entry point for the clinsop SOP center.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/clinsop/cmd/sop-center/app"
)

func main() {
	app.NewApp().Run()
}
