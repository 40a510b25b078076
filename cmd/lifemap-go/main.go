// Command lifemap-go runs the lifecycle widget server. All the real work
// happens in the startup package; Initialize blocks until shutdown.
package main

import (
	"log"
	"os"

	"github.com/RecordKit/lifemap-go/internal/application/startup"
)

func main() {
	if err := startup.Initialize(); err != nil {
		log.Printf("lifemap startup failed: %v", err)
		os.Exit(1)
	}
	log.Println("lifemap shut down cleanly")
}
