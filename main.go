package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/gerunddev/blockbridge/internal/commands"
	"github.com/gerunddev/blockbridge/internal/styles"
)

const version = "0.1.0"

func main() {
	if err := commands.App(version).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, styles.Failure("%v", err))
		os.Exit(1)
	}
}
