// Package main is the entry point of the Students CRUD API.
//
// Usage:
//
//	students-api                        # serve on defaults (0.0.0.0:8080, memory store)
//	students-api -c config/local.yaml   # serve with a config file
//	students-api version                # print build info
//
// The config path can also come from the CONFIG_PATH environment variable.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd serves the API; there is nothing else for the binary to do.
var rootCmd = &cobra.Command{
	Use:   "students-api",
	Short: "In-memory REST API for student records",
	Long: `students-api serves create/read/update/delete operations over
student records kept in process memory. Data does not survive a restart.

Endpoints:
  GET    /api/students?page=&limit=
  GET    /api/students/{id}
  POST   /api/students
  PUT    /api/students/{id}
  DELETE /api/students/{id}
  GET    /api/health`,
	SilenceUsage: true,
	RunE:         runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "students-api %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to config file (optional)")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}
