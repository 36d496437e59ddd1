package tree

import (
	"go.uber.org/zap"

	"github.com/AndreyAkinshin/cargotest/internal/cargo"
	"github.com/AndreyAkinshin/cargotest/internal/testparser"
)

// Listing is the discovery result of one package target.
type Listing struct {
	Target cargo.BuildTarget
	Lines  []testparser.DiscoveryLine
}

// Builder folds discovery listings into per-package snapshots.
type Builder struct {
	logger *zap.Logger
}

// NewBuilder creates a new tree builder.
func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger}
}

// BuildPackage builds the tree of one package. It returns nil when no
// listing contributes a test; callers treat that as an empty package.
//
// When a single target contributes tests, its root is dropped and its
// children become the children of the package root.
func (b *Builder) BuildPackage(pkgName string, listings []Listing) *Snapshot {
	root := &SuiteNode{
		ID:           pkgName,
		Label:        pkgName,
		IsStructural: true,
		Category:     CategoryUnit,
		PackageName:  pkgName,
	}
	snap := newSnapshot(root)

	for _, l := range listings {
		if len(l.Lines) == 0 {
			continue
		}
		b.foldTarget(snap, pkgName, l)
	}

	if len(root.ChildIDs) == 0 {
		return nil
	}
	if len(root.ChildIDs) == 1 {
		collapse(snap)
	}

	b.logger.Debug("built package tree",
		zap.String("package", pkgName),
		zap.Int("suites", len(snap.Suites)),
		zap.Int("cases", len(snap.Cases)))
	return snap
}

// foldTarget adds one target root and everything below it.
func (b *Builder) foldTarget(snap *Snapshot, pkgName string, l Listing) {
	category := CategoryOf(l.Target)
	targetID := TargetRootID(pkgName, l.Target)

	targetRoot, ok := snap.Suites[targetID]
	if !ok {
		targetRoot = &SuiteNode{
			ID:          targetID,
			Label:       l.Target.Name,
			Category:    category,
			PackageName: pkgName,
		}
		snap.Suites[targetID] = targetRoot
	}
	snap.Root.addChild(targetID)
	snap.Root.addTarget(l.Target)
	targetRoot.addTarget(l.Target)

	for _, line := range l.Lines {
		parent := targetRoot
		specName := ""
		for _, segment := range line.ModulePath {
			specName += segment + Separator
			id := parent.ID + Separator + segment
			suite, ok := snap.Suites[id]
			if !ok {
				suite = &SuiteNode{
					ID:           id,
					Label:        segment,
					TestSpecName: specName,
					Category:     category,
					PackageName:  pkgName,
				}
				snap.Suites[id] = suite
			}
			suite.addTarget(l.Target)
			parent.addChild(id)
			parent = suite
		}

		qualified := line.QualifiedName()
		caseID := targetID + Separator + qualified
		if _, dup := snap.Cases[caseID]; dup {
			b.logger.Debug("duplicate test in listing", zap.String("id", caseID))
			continue
		}
		snap.Cases[caseID] = &CaseNode{
			ID:           caseID,
			Label:        line.Name,
			TestSpecName: qualified,
			NodeIDPrefix: targetID,
			PackageName:  pkgName,
			Category:     category,
			Target:       l.Target,
		}
		parent.addChild(caseID)
	}
}

// collapse removes the only target root of a package, lifting its children.
func collapse(snap *Snapshot) {
	targetID := snap.Root.ChildIDs[0]
	targetRoot := snap.Suites[targetID]
	snap.Root.ChildIDs = targetRoot.ChildIDs
	snap.Root.Category = targetRoot.Category
	delete(snap.Suites, targetID)
}
