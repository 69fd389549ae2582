// AngelaMos | 2026
// dto.go

package entitlement

import "time"

type ResolveResponse struct {
	UserID         string               `json:"user_id"`
	OrganizationID string               `json:"organization_id"`
	Features       map[string]bool      `json:"features"`
	Limits         map[string]LimitInfo `json:"limits"`
	ResolvedAt     time.Time            `json:"resolved_at"`
	Cached         bool                 `json:"cached"`
}

func ToResolveResponse(pm *PermissionMap) ResolveResponse {
	return ResolveResponse{
		UserID:         pm.UserID,
		OrganizationID: pm.OrganizationID,
		Features:       pm.Features,
		Limits:         pm.Limits,
		ResolvedAt:     pm.ResolvedAt,
		Cached:         pm.Cached,
	}
}

type WhatIfRequest struct {
	PlanID string `json:"plan_id" validate:"required,uuid"`
}
