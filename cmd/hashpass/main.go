package main

import (
	"fmt"
	"os"

	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/auth"
)

// Gera o hash Argon2id de uma senha para colar na aba de usuários.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: hashpass <password>")
		os.Exit(1)
	}

	hash, err := auth.Hash(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
