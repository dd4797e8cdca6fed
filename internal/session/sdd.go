package session

import (
	"encoding/json"
	"strings"
)

// Phase is a spec-driven-development workflow stage announced through a
// "sdd-<phase>" Skill invocation. The zero value means no phase seen yet.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseExplore
	PhasePropose
	PhaseSpec
	PhaseDesign
	PhaseTasks
	PhaseApply
	PhaseVerify
	PhaseArchive
)

// PhaseCount is the number of recognized phases.
const PhaseCount = 8

const sddSkillPrefix = "Skill: sdd-"

var phaseLabels = map[Phase]string{
	PhaseExplore: "Explore",
	PhasePropose: "Propose",
	PhaseSpec:    "Spec",
	PhaseDesign:  "Design",
	PhaseTasks:   "Tasks",
	PhaseApply:   "Apply",
	PhaseVerify:  "Verify",
	PhaseArchive: "Archive",
}

var phaseFromSkill = map[string]Phase{
	"explore": PhaseExplore,
	"propose": PhasePropose,
	"spec":    PhaseSpec,
	"design":  PhaseDesign,
	"tasks":   PhaseTasks,
	"apply":   PhaseApply,
	"verify":  PhaseVerify,
	"archive": PhaseArchive,
}

// Label returns the capitalized phase name, or "" for PhaseNone.
func (p Phase) Label() string { return phaseLabels[p] }

func (p Phase) String() string {
	if l, ok := phaseLabels[p]; ok {
		return l
	}
	return "none"
}

// Index is the 0-based position of the phase in workflow order, or -1 when
// no phase is set.
func (p Phase) Index() int {
	if p < PhaseExplore || p > PhaseArchive {
		return -1
	}
	return int(p - PhaseExplore)
}

func (p Phase) MarshalJSON() ([]byte, error) {
	if p == PhaseNone {
		return []byte("null"), nil
	}
	return json.Marshal(p.String())
}

// DetectPhase recognizes a Skill tool whose label is "Skill: sdd-<phase>".
func DetectPhase(tool ToolUse) (Phase, bool) {
	if tool.ToolName != "Skill" {
		return PhaseNone, false
	}
	suffix, ok := strings.CutPrefix(tool.DisplayLabel, sddSkillPrefix)
	if !ok {
		return PhaseNone, false
	}
	p, ok := phaseFromSkill[suffix]
	return p, ok
}
