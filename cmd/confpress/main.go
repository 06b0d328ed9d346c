package main

import (
	"fmt"
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/confpress/confpress/cmd/confpress/commands"
	"github.com/confpress/confpress/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("confpress"),
		kong.Description("Build and publish a conference session notes site."),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("confpress %s (%s, %s)", version.Version, version.GitCommit, version.BuildTime)},
	)

	g := &commands.Global{Logger: slog.Default()}
	ctx.FatalIfErrorf(ctx.Run(g, cli))
}
