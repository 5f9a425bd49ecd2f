package pipeline

import (
	"github.com/ivgo/docinsight/internal/core/domain"
)

// WorkItem is one runnable (file, stage) pair.
type WorkItem struct {
	File  *domain.FileRecord
	Stage domain.StageID
}

// StageSpec declares one stage: which file kinds it applies to, which stages
// must have succeeded first, and any extra eligibility beyond prerequisites.
type StageSpec struct {
	ID            domain.StageID
	AppliesTo     func(domain.FileKind) bool
	Prerequisites []domain.StageID
	// Eligible, when set, is evaluated against the current file record once
	// all prerequisites have succeeded.
	Eligible func(*domain.FileRecord) bool
	// Degrade makes transient exhaustion produce a placeholder success
	// instead of a failed stage.
	Degrade bool
}

// Graph is the static declaration of all stages. It holds no per-file state;
// Runnable is a pure function of the records passed in.
type Graph struct {
	specs []StageSpec
	byID  map[domain.StageID]StageSpec
}

func NewGraph(specs ...StageSpec) *Graph {
	byID := make(map[domain.StageID]StageSpec, len(specs))
	for _, s := range specs {
		byID[s.ID] = s
	}
	return &Graph{specs: specs, byID: byID}
}

func documentsOnly(k domain.FileKind) bool { return k == domain.KindDocument }
func imagesOnly(k domain.FileKind) bool    { return k == domain.KindImage }

// DefaultGraph wires the six analysis stages. Text-dependent stages hang off
// extract; specialized extraction additionally requires a supported document
// type from structure analysis.
func DefaultGraph() *Graph {
	return NewGraph(
		StageSpec{
			ID:        domain.StageExtract,
			AppliesTo: documentsOnly,
		},
		StageSpec{
			ID:        domain.StageImage,
			AppliesTo: imagesOnly,
			Degrade:   true,
		},
		StageSpec{
			ID:            domain.StageSummarize,
			AppliesTo:     documentsOnly,
			Prerequisites: []domain.StageID{domain.StageExtract},
		},
		StageSpec{
			ID:            domain.StageStructure,
			AppliesTo:     documentsOnly,
			Prerequisites: []domain.StageID{domain.StageExtract},
		},
		StageSpec{
			ID:            domain.StageQuality,
			AppliesTo:     documentsOnly,
			Prerequisites: []domain.StageID{domain.StageExtract},
		},
		StageSpec{
			ID:            domain.StageSpecialized,
			AppliesTo:     documentsOnly,
			Prerequisites: []domain.StageID{domain.StageStructure},
			Eligible:      specializedEligible,
		},
	)
}

func specializedEligible(f *domain.FileRecord) bool {
	s := f.Stage(domain.StageStructure)
	if s.Status != domain.StatusSucceeded || s.Result == nil || s.Result.Structure == nil {
		return false
	}
	return s.Result.Structure.DocumentType.SpecializedSupported()
}

func (g *Graph) Spec(id domain.StageID) (StageSpec, bool) {
	s, ok := g.byID[id]
	return s, ok
}

// Runnable computes the currently eligible (file, stage) pairs. Idempotent:
// without intervening state changes repeated calls return the same set.
func (g *Graph) Runnable(files []*domain.FileRecord) []WorkItem {
	var out []WorkItem
	for _, f := range files {
		for _, spec := range g.specs {
			if g.runnableFor(f, spec) {
				out = append(out, WorkItem{File: f, Stage: spec.ID})
			}
		}
	}
	return out
}

// RunnableStage restricts the candidate set to one stage. Shares the exact
// eligibility rules with Runnable.
func (g *Graph) RunnableStage(files []*domain.FileRecord, stage domain.StageID) []WorkItem {
	spec, ok := g.byID[stage]
	if !ok {
		return nil
	}
	var out []WorkItem
	for _, f := range files {
		if g.runnableFor(f, spec) {
			out = append(out, WorkItem{File: f, Stage: spec.ID})
		}
	}
	return out
}

func (g *Graph) runnableFor(f *domain.FileRecord, spec StageSpec) bool {
	if spec.AppliesTo != nil && !spec.AppliesTo(f.Kind) {
		return false
	}
	if f.Stage(spec.ID).Status != domain.StatusNotStarted {
		return false
	}
	for _, pre := range spec.Prerequisites {
		if f.Stage(pre).Status != domain.StatusSucceeded {
			return false
		}
	}
	if spec.Eligible != nil && !spec.Eligible(f) {
		return false
	}
	return true
}

// Blocked lists applicable stages that will never become eligible for the
// file in its current state: a prerequisite failed (directly or transitively)
// or the extra eligibility predicate ruled the stage out after all
// prerequisites succeeded.
func (g *Graph) Blocked(f *domain.FileRecord) []domain.StageID {
	blocked := make(map[domain.StageID]bool)
	// Prerequisite chains are short; a fixed number of passes settles
	// transitive blockage.
	for range g.specs {
		for _, spec := range g.specs {
			if blocked[spec.ID] {
				continue
			}
			if spec.AppliesTo != nil && !spec.AppliesTo(f.Kind) {
				continue
			}
			if f.Stage(spec.ID).Status != domain.StatusNotStarted {
				continue
			}
			allSucceeded := true
			for _, pre := range spec.Prerequisites {
				if f.Stage(pre).Status == domain.StatusFailed || blocked[pre] {
					blocked[spec.ID] = true
				}
				if f.Stage(pre).Status != domain.StatusSucceeded {
					allSucceeded = false
				}
			}
			if !blocked[spec.ID] && allSucceeded && spec.Eligible != nil && !spec.Eligible(f) {
				blocked[spec.ID] = true
			}
		}
	}

	var out []domain.StageID
	for _, spec := range g.specs {
		if blocked[spec.ID] {
			out = append(out, spec.ID)
		}
	}
	return out
}
