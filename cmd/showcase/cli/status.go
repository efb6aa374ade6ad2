package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check if the Showcase server is running",
		Long:  "Check the status of the Showcase server, including process state and store readiness.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	pid, err := readPID()
	if err != nil {
		fmt.Println("Server is not running (no PID file found).")
		return nil
	}

	if !isProcessRunning(pid) {
		removePID()
		fmt.Println("Server is not running (stale PID file removed).")
		return nil
	}

	port := viper.GetInt("server.port")
	if port == 0 {
		port = 8080
	}
	host := viper.GetString("server.host")
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}

	readyAddr := fmt.Sprintf("http://%s:%d/readyz", host, port)
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(readyAddr)
	if err != nil {
		fmt.Printf("Server process is running (PID %d) but not responding to HTTP.\n", pid)
		fmt.Printf("  Logs: %s\n", logFilePath())
		return nil
	}
	defer resp.Body.Close()

	var ready struct {
		Status string `json:"status"`
		Driver string `json:"driver"`
	}
	json.NewDecoder(resp.Body).Decode(&ready)

	fmt.Printf("Server is running (PID %d)\n", pid)
	fmt.Printf("  Ready:   %s (%d %s)\n", readyAddr, resp.StatusCode, ready.Status)
	if ready.Driver != "" {
		fmt.Printf("  Store:   %s\n", ready.Driver)
	}
	fmt.Printf("  Logs:    %s\n", logFilePath())
	return nil
}
