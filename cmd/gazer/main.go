package main

import (
	"gazer/internal/ui"
)

func main() {
	ui.CreateApplication()
}
