// cmd/coinc/main.go
package main

import (
	"coinc/internal/app"
	"coinc/internal/appshell"
)

func main() {
	appshell.Main(app.RunContext)
}
