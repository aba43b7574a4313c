package main

import (
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"acs/internal/config"
	"acs/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print acsctl's version and check for a reachable acsd",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			fmt.Printf("acsctl %s\n", info.String())
			fmt.Println(info.Full())

			loaded, err := config.LoadAcsctl("")
			if err != nil {
				return nil
			}
			fmt.Println()
			fmt.Printf("acsd at %s: %s\n", loaded.Server, probeServer(loaded.Server))
			return nil
		},
	}
}

// probeServer reports whether an address looks reachable, via a plain
// dial-and-close liveness probe. acsctl never actually talks to acsd
// over this connection (§1); it only tells an
// operator whether the configured address is worth pointing a browser or
// curl at for /healthz.
func probeServer(addr string) string {
	if addr == "" {
		return "not configured"
	}
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		return "unreachable"
	}
	conn.Close()
	return "reachable"
}
