package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/VanDung-dev/HieraChain-Bridge/node"
)

func main() {
	cfg, err := node.ParseCLI(os.Args)
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	action, err := node.Start(cfg, func(newChain string) {
		log.Printf("Node restarted on chain %s", newChain)
	}, nil)
	if err != nil {
		log.Fatalf("Failed to start node: %v", err)
	}

	if action.Client == nil {
		if action.Output != "" {
			fmt.Println(action.Output)
		}
		return
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down node...")
	action.Client.Shutdown()
	log.Println("Node stopped.")
}
