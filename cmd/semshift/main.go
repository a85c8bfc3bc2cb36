// Command semshift aligns word embeddings trained on two corpora, ranks the
// words whose meaning shifted most and mines example sentences for them.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Credentials for remote stores may live in a local .env file.
	_ = godotenv.Load()

	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
