// Package main is the entry point for the clinsop QA service.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/clinsop/cmd/qa/app"
)

func main() {
	app.NewApp().Run()
}
