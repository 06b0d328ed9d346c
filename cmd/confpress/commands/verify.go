package commands

import (
	"fmt"
	"os"

	"github.com/confpress/confpress/internal/config"
	"github.com/confpress/confpress/internal/sitecheck"
)

// VerifyCmd implements the 'verify' command: check an existing output tree.
type VerifyCmd struct {
	Output string `short:"o" help:"Output tree to verify (defaults to configured output directory)"`
}

func (v *VerifyCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	outputDir := cfg.Output.Directory
	if v.Output != "" {
		outputDir = v.Output
	}
	if fi, err := os.Stat(outputDir); err != nil || !fi.IsDir() {
		return fmt.Errorf("output tree not found: %s (run build first)", outputDir)
	}

	checker := sitecheck.NewChecker(cfg.Site.BasePath, cfg.Assets.Icons)
	issues, err := checker.Check(outputDir)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	if len(issues) == 0 {
		fmt.Println("No issues found")
		return nil
	}
	for _, issue := range issues {
		fmt.Printf("[%s] %s %s: %s (%s)\n", issue.Severity, issue.Code, issue.Page, issue.Detail, issue.Ref)
	}
	return fmt.Errorf("%d verification issues", len(issues))
}
