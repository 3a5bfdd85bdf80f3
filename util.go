package main

import (
	"fmt"
	"math/rand/v2"
)

// RandomColor returns a random #RRGGBB color
func RandomColor() string {
	return fmt.Sprintf("#%06X", rand.IntN(1<<24))
}
