// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "slices"

// # User Roles

// Role labels granted to foundation accounts. A user may hold several.
const (
	// Unrestricted access; bypasses every role check.
	RoleSuperAdmin = "super_admin"

	// Manages users, fairs, news, newsletters and projects.
	RoleGeneralAdmin = "general_admin"

	// Publishes news and newsletter campaigns.
	RoleContentAdmin = "content_admin"

	// Organises fairs and reviews enrollments.
	RoleFairAdmin = "fair_admin"

	// Follows project progress.
	RoleProjectAdmin = "project_admin"

	// Default role for self-registered participants.
	RoleEntrepreneur = "entrepreneur"
)

// # Role Checks

// HasAnyRole reports whether held satisfies required.
//
// An empty required set admits everyone; [RoleSuperAdmin] satisfies any set.
func HasAnyRole(held, required []string) bool {
	if len(required) == 0 {
		return true
	}

	if slices.Contains(held, RoleSuperAdmin) {
		return true
	}

	for _, role := range required {
		if slices.Contains(held, role) {
			return true
		}
	}
	return false
}
