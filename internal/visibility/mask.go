package visibility

import (
	"idea-review/backend/pkg/models"
)

// ShouldMask decides whether an item's owner identity is hidden from the
// viewer. The rule is independent of response shaping: blind review must be
// enabled, the viewer is not an admin, the viewer is not the owner, and the
// review has no terminal outcome yet. It is evaluated per item, so one list
// response may mix masked and revealed entries.
func ShouldMask(blindEnabled bool, viewer models.Actor, ownerID string, outcome *models.Outcome) bool {
	return blindEnabled &&
		viewer.Role != models.RoleAdmin &&
		viewer.ID != ownerID &&
		outcome == nil
}

// MaskOwner replaces the idea's owner identity with the anonymization
// sentinels when ShouldMask holds. All other fields pass through unchanged.
// The input is never mutated.
func MaskOwner(blindEnabled bool, viewer models.Actor, idea *models.Idea, outcome *models.Outcome) *models.Idea {
	if !ShouldMask(blindEnabled, viewer, idea.OwnerID, outcome) {
		return idea
	}
	masked := *idea
	masked.OwnerID = models.AnonymousOwnerID
	masked.OwnerName = models.AnonymousOwnerName
	return &masked
}
