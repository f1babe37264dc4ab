package services

import (
	"fmt"
	"unicode/utf8"

	"github.com/dmitrijs2005/runavault/internal/common"
	"github.com/dmitrijs2005/runavault/internal/server/models"
	"github.com/dmitrijs2005/runavault/internal/server/sitekey"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, fmt.Sprintf(format, args...))
}

func checkIdentity(id models.Identity) error {
	if id.Subject == "" {
		return common.ErrorUnauthorized
	}
	return nil
}

func checkSite(site string) error {
	if site == "" {
		return invalid("site is required")
	}
	if !sitekey.ValidSegment(site) {
		return invalid("site must not contain %q", "#")
	}
	return nil
}

// checkSubdirectory accepts an empty subdirectory, meaning default.
func checkSubdirectory(subdirectory string) error {
	if subdirectory != "" && !sitekey.ValidSegment(subdirectory) {
		return invalid("subdirectory must not contain %q", "#")
	}
	return nil
}

func checkNotes(notes string) error {
	if utf8.RuneCountInString(notes) > common.MaxNotesLength {
		return invalid("notes cannot exceed %d characters", common.MaxNotesLength)
	}
	return nil
}

func checkSharedWith(sw models.SharedWith) error {
	for _, ids := range [][]string{sw.Groups, sw.Users} {
		for _, id := range ids {
			if id == common.None {
				return invalid("grantee id %q is reserved", common.None)
			}
			if !sitekey.ValidSegment(id) {
				return invalid("invalid grantee id %q", id)
			}
		}
	}
	for grantee, role := range sw.Roles {
		if grantee == "" {
			return invalid("role without grantee")
		}
		if role != common.RoleViewer && role != common.RoleEditor {
			return invalid("unknown role %q for %s", role, grantee)
		}
	}
	return nil
}
