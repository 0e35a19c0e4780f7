package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/openmool/openmool/internal/client/cli"
	"github.com/openmool/openmool/internal/client/config"
)

// positionalArgs strips the config flags (all of which take a value) and
// returns the remaining command arguments.
func positionalArgs(args []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "-") {
			if !strings.Contains(args[i], "=") {
				i++
			}
			continue
		}
		out = append(out, args[i])
	}
	return out
}

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx, positionalArgs(os.Args[1:])); err != nil {
		log.Fatalf("%v", err)
	}
}
