package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "simulator",
	Short: "Solar telemetry simulator",
	Long: `Simulates Arduino solar installations streaming telemetry over
WebSocket and exercises the query APIs of a running server.`,
}

var (
	httpHostPort string
	grpcHostPort string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&httpHostPort, "http", "127.0.0.1:1080", "HTTP host:port of the server")
	rootCmd.PersistentFlags().StringVar(&grpcHostPort, "grpc", "127.0.0.1:10801", "gRPC host:port of the server")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
