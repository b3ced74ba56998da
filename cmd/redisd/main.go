package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/flondb/redisd/internal/server"
)

func main() {
	var (
		bindAddr = flag.String("bind", "0.0.0.0", "address to listen on")
		port     = flag.Int("port", 6379, "port to listen on")
		dir      = flag.String("dir", "", "unused, accepted for client compatibility")
		dbfile   = flag.String("dbfilename", "", "unused, accepted for client compatibility")
	)
	flag.Parse()
	_ = dir
	_ = dbfile

	srv := server.New(fmt.Sprintf("%s:%d", *bindAddr, *port))
	if err := srv.Start(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
