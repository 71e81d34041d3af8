package main

import (
	"github.com/RavuAlHemio/zmx/internal/cmd"
)

func main() {
	p, err := cmd.NewParser()
	if err != nil {
		panic(err)
	}

	_, err = p.Parse()
	exit(err)
}
