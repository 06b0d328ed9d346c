package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/confpress/confpress/internal/assets"
	"github.com/confpress/confpress/internal/compile"
	"github.com/confpress/confpress/internal/config"
	"github.com/confpress/confpress/internal/contrib"
	"github.com/confpress/confpress/internal/logfields"
	"github.com/confpress/confpress/internal/notes"
	"github.com/confpress/confpress/internal/publish"
	"github.com/confpress/confpress/internal/sitecheck"
)

// stagePrepareOutput creates the workspace and a clean output directory.
func (b *Builder) stagePrepareOutput(_ context.Context, rs *RunState) error {
	if err := rs.Workspace.Create(); err != nil {
		return NewFatalStageError(StagePrepareOutput, err)
	}

	checkout, err := rs.Workspace.CreateSubdir("hosting")
	if err != nil {
		return NewFatalStageError(StagePrepareOutput, err)
	}
	rs.CheckoutDir = checkout

	out, err := filepath.Abs(rs.Config.Output.Directory)
	if err != nil {
		return NewFatalStageError(StagePrepareOutput, err)
	}
	rs.OutputDir = out

	if rs.Config.Output.Clean {
		if err := cleanDir(out); err != nil {
			return NewFatalStageError(StagePrepareOutput, fmt.Errorf("clean output directory: %w", err))
		}
	}
	if err := os.MkdirAll(out, 0o750); err != nil {
		return NewFatalStageError(StagePrepareOutput, fmt.Errorf("create output directory: %w", err))
	}
	return nil
}

// stageDiscoverNotes walks the content directory. An empty collection is
// fatal: publishing a blank site over a populated one is never intended.
func (b *Builder) stageDiscoverNotes(_ context.Context, rs *RunState) error {
	discovery := notes.NewDiscovery(rs.Config.Site.ContentDir)
	pages, err := discovery.DiscoverPages()
	if err != nil {
		return NewFatalStageError(StageDiscoverNotes, err)
	}

	markdown := 0
	for _, p := range pages {
		if !p.IsAsset {
			markdown++
		}
	}
	if markdown == 0 {
		return NewFatalStageError(StageDiscoverNotes,
			fmt.Errorf("no note pages found under %s", rs.Config.Site.ContentDir))
	}

	rs.Pages = pages
	rs.Report.PagesSeen = markdown
	return nil
}

// stageGenerateMetadata writes contributor/uid/fingerprint frontmatter.
func (b *Builder) stageGenerateMetadata(ctx context.Context, rs *RunState) error {
	token := config.ResolveToken(rs.Config.Metadata.Auth)
	gen := contrib.NewGenerator(rs.Config.Metadata, token, rs.Logger)

	res, err := gen.Generate(ctx, rs.Pages)
	if err != nil {
		return NewFatalStageError(StageGenerateMetadata, err)
	}
	rs.Report.PagesUpdated = res.PagesUpdated
	rs.Recorder.IncPagesUpdated(res.PagesUpdated)

	if res.LookupErrors > 0 {
		return NewWarnStageError(StageGenerateMetadata,
			fmt.Errorf("%d contributor lookups fell back to commit author names", res.LookupErrors))
	}
	return nil
}

// stageRunCompiler invokes the external documentation compiler.
func (b *Builder) stageRunCompiler(ctx context.Context, rs *RunState) error {
	inv := compile.Invocation{
		ContentDir: rs.Config.Site.ContentDir,
		OutputDir:  rs.OutputDir,
		BasePath:   rs.Config.Site.BasePath,
	}
	if err := b.compiler.Compile(ctx, inv); err != nil {
		if errors.Is(err, compile.ErrCompilerNotFound) {
			return NewFatalStageError(StageRunCompiler, err)
		}
		// A non-zero compiler exit is usually deterministic (bad content),
		// but can also be an environment hiccup; one retry round is cheap.
		return NewTransientStageError(StageRunCompiler, err)
	}
	return nil
}

// stageOverrideAssets replaces the compiler-emitted icon files with the
// repository-provided ones.
func (b *Builder) stageOverrideAssets(_ context.Context, rs *RunState) error {
	overrider := assets.NewOverrider(rs.Config.Assets, rs.Config.Site.AssetsDir)
	if err := overrider.Apply(rs.OutputDir); err != nil {
		return NewFatalStageError(StageOverrideAssets, err)
	}
	return nil
}

// stageVerifySite checks the generated tree: internal links resolve, and
// icon references actually go through the overridden files.
func (b *Builder) stageVerifySite(_ context.Context, rs *RunState) error {
	checker := sitecheck.NewChecker(rs.Config.Site.BasePath, rs.Config.Assets.Icons)
	issues, err := checker.Check(rs.OutputDir)
	if err != nil {
		return NewFatalStageError(StageVerifySite, err)
	}

	rs.Report.SiteIssues = issues
	for _, issue := range issues {
		rs.Report.AddIssue(StageVerifySite, issue.Code, string(issue.Severity),
			fmt.Sprintf("%s: %s (%s)", issue.Page, issue.Detail, issue.Ref))
		rs.Logger.Warn("site verification issue",
			logfields.Page(issue.Page),
			logfields.Name(issue.Code),
			logfields.URL(issue.Ref))
	}
	if len(issues) > 0 {
		return NewWarnStageError(StageVerifySite,
			fmt.Errorf("%d site verification issues", len(issues)))
	}
	return nil
}

// stagePublish snapshots the output tree onto the hosting branch.
func (b *Builder) stagePublish(ctx context.Context, rs *RunState) error {
	pub := publish.NewPublisher(rs.Config.Publish, rs.Logger)
	res, err := pub.Publish(ctx, rs.OutputDir, rs.CheckoutDir)
	if err != nil {
		if publish.IsTransient(err) {
			return NewTransientStageError(StagePublish, err)
		}
		return NewFatalStageError(StagePublish, err)
	}

	rs.Report.Commit = res.Commit
	rs.Report.Pushed = res.Pushed
	rs.Report.Unchanged = res.Unchanged
	rs.Recorder.IncPublish(res.Pushed)
	return nil
}

// cleanDir removes the contents of dir without removing dir itself, so an
// output path that is a mount point or symlink target stays valid.
func cleanDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
