package skeleton

import (
	"strings"

	"github.com/menta2k/pose-template/pkg/types"
)

// Label name validation messages
const (
	MsgEmptyLabelName     = "Label name cannot be empty"
	MsgDuplicateLabelName = "Label name must be unique"
)

// ValidateLabelName checks a new name for the label ownID against the other
// template points. It returns an empty string when the name is valid.
func ValidateLabelName(name string, points []types.KeypointNode, ownID string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return MsgEmptyLabelName
	}
	for _, p := range points {
		if p.Label.ID == ownID {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(p.Label.Name), trimmed) {
			return MsgDuplicateLabelName
		}
	}
	return ""
}
