package main

import "github.com/SAP-F-2025/lms-service/internal/cli"

func main() {
	cli.Execute()
}
