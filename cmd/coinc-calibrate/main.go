// cmd/coinc-calibrate/main.go
package main

import (
	"coinc/internal/appshell"
	"coinc/internal/calibapp"
)

func main() {
	appshell.Main(calibapp.RunContext)
}
