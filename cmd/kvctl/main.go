package main

import (
	"log"
	"os"
)

func main() {
	if err := newRootCmd(dialGRPC).Execute(); err != nil {
		log.Printf("kvctl: %v", err)
		os.Exit(1)
	}
}
