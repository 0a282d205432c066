package main

import (
	"log"
	"net/http"
	"os"

	"github.com/stakeq/stakeq/internal/db"
	"github.com/stakeq/stakeq/internal/web"
)

func main() {
	// Init DB (creates stakeq.db in working dir)
	if err := db.Init(); err != nil {
		log.Fatalf("db init: %v", err)
	}

	if err := ensureAdmin(); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	r := web.Router()

	addr := getEnv("ADDR", ":8080")
	log.Printf("StakeQ listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal(err)
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
