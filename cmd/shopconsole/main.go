// Command shopconsole serves the Computer Shop admin console.
package main

import (
	"fmt"

	"github.com/patric-chuzhbe/shopconsole/internal/app"
)

var (
	buildVersion = "N/A"
	buildDate    = "N/A"
	buildCommit  = "N/A"
)

func main() {
	fmt.Printf("Build version: %s\nBuild date: %s\nBuild commit: %s\n", buildVersion, buildDate, buildCommit)

	application, err := app.New()
	if err != nil {
		panic(err)
	}
	defer application.Close()

	if err := application.Run(); err != nil {
		panic(err)
	}
}
