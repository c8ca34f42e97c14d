package main

import "safefeed/internal/app"

func main() {
	app.Main()
}
