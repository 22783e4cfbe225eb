// Package main writes development TLS material for the sandbox server into a
// directory: a CA, a server certificate and a client certificate.
//
// Start the server with -cert/-key pointing at server.crt/server.key and the
// client with -ca ca.crt (plus -cert/-key client.crt/client.key for mTLS).
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atinyakov/bizops/internal/certgen"
)

type options struct {
	dir    string
	hosts  []string
	client string
	ttl    time.Duration
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("certgen", flag.ContinueOnError)
	dir := fs.String("dir", "certs", "output directory")
	hosts := fs.String("hosts", "localhost,127.0.0.1", "comma-separated server host names and IPs")
	client := fs.String("client", "bizops-client", "client certificate common name, empty to skip")
	ttl := fs.Duration("ttl", 365*24*time.Hour, "certificate lifetime")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	opts := options{dir: *dir, client: *client, ttl: *ttl}
	for _, h := range strings.Split(*hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			opts.hosts = append(opts.hosts, h)
		}
	}
	if len(opts.hosts) == 0 {
		return options{}, fmt.Errorf("no hosts given")
	}
	return opts, nil
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	return certgen.WriteBundle(opts.dir, opts.hosts, opts.client, opts.ttl)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "certgen:", err)
		os.Exit(1)
	}
	fmt.Println("✅ Certificates generated")
}
