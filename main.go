package main

import "github.com/saadjs/kcal-sync/cmd/kcal"

func main() {
	kcal.Execute()
}
