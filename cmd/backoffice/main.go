// Command backoffice runs the recruitment agency back-office API.
//
// @title          Agency Back-Office API
// @version        1.0
// @description    Matching and settlement engine for a recruitment agency.
// @BasePath       /api/v1
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
