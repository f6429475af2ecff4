// Main entry point for the application
package main

import (
	"log"

	"gazer/internal/ui"
)

func main() {
	// Set the logger prefix
	log.SetPrefix("gazer ")

	ui.CreateApplication()
}
