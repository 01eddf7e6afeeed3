// genhash prints the bcrypt hash of an RFID device key, for DEVICE_KEYS or
// DEVICE_SHARED_KEY_HASH.
//
// Usage: genhash <device-key> [device-id]
package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 2 || os.Args[1] == "" {
		fmt.Fprintln(os.Stderr, "usage: genhash <device-key> [device-id]")
		os.Exit(2)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), 12)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bcrypt:", err)
		os.Exit(1)
	}
	if len(os.Args) > 2 {
		fmt.Printf("%s:%s\n", os.Args[2], h)
		return
	}
	fmt.Println(string(h))
}
