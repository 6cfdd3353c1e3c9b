// cmd/ohfid/main.go
package main

import (
	"ohfid/internal/app"
	"ohfid/internal/appshell"
)

func main() { appshell.Main(app.RunContext) }
