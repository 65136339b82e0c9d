package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/masmgr/tdrspots/internal/output"
)

func writeHotspotReport(c *cli.Context, ctx *CommandContext, report *output.HotspotReport) error {
	opts := ctx.OutputOptions(c)
	writer := output.NewHotspotReportWriter(opts.Format)
	return writer.Write(report, opts)
}
