package component

import (
	"fmt"
	"time"

	"github.com/quality-measures/accelerator/internal/ums"
)

// createVersion appends a new draft version wrapping node, recomputing the
// content hash and (when CategoryAutoAssigned) the category. Bumps the
// semver-lite minor by incrementing Version.Number; the component's overall
// identity (ID) never changes (spec §4.6 createVersion).
func createVersion(c *Component, node ums.ClauseNode, createdBy, changeDescription string, now time.Time) error {
	hash, err := generateHash(node)
	if err != nil {
		return fmt.Errorf("component %s: %w", c.ID, err)
	}

	c.Node = node
	if c.CategoryAutoAssigned {
		c.Category = autoAssignCategory(node)
	}

	next := c.Latest().Number + 1
	version := Version{
		Number:     next,
		Hash:       hash,
		Status:     StatusDraft,
		Complexity: complexity(node),
		CreatedAt:  now,
	}
	c.Versions = append(c.Versions, version)
	c.History = append(c.History, HistoryEntry{
		VersionNumber:     next,
		Status:            StatusDraft,
		CreatedAt:         now,
		CreatedBy:         createdBy,
		ChangeDescription: changeDescription,
	})
	c.UpdatedAt = now
	return nil
}

// approve transitions the component's latest version from draft to
// approved, stamping the approver and time. Approving an already-approved
// or archived version is a no-op error (spec §4.6: draft -> approved ->
// archived, archiving terminal).
func approve(c *Component, approvedBy string, now time.Time) error {
	if len(c.Versions) == 0 {
		return fmt.Errorf("component %s has no versions to approve", c.ID)
	}
	idx := len(c.Versions) - 1
	v := &c.Versions[idx]
	if v.Status != StatusDraft {
		return fmt.Errorf("component %s version %d is %s, not draft", c.ID, v.Number, v.Status)
	}
	v.Status = StatusApproved
	v.ApprovedAt = &now
	c.History = append(c.History, HistoryEntry{
		VersionNumber: v.Number,
		Status:        StatusApproved,
		CreatedAt:     now,
		CreatedBy:     approvedBy,
	})
	c.UpdatedAt = now
	return nil
}

// archive terminally marks the component's latest version as archived.
func archive(c *Component, archivedBy string, now time.Time) error {
	if len(c.Versions) == 0 {
		return fmt.Errorf("component %s has no versions to archive", c.ID)
	}
	idx := len(c.Versions) - 1
	v := &c.Versions[idx]
	if v.Status == StatusArchived {
		return fmt.Errorf("component %s version %d is already archived", c.ID, v.Number)
	}
	v.Status = StatusArchived
	c.History = append(c.History, HistoryEntry{
		VersionNumber: v.Number,
		Status:        StatusArchived,
		CreatedAt:     now,
		CreatedBy:     archivedBy,
	})
	c.UpdatedAt = now
	return nil
}
