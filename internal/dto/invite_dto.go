package dto

import (
	"time"

	"github.com/lshigami/skillcheck/internal/model"
)

type IssueInviteRequest struct {
	TemplateID     string `json:"template_id" validate:"required"`
	CandidateID    string `json:"candidate_id" validate:"required"`
	ApplicationID  string `json:"application_id" validate:"required"`
	CandidateEmail string `json:"candidate_email,omitempty" validate:"omitempty,email"`
}

type InviteResponse struct {
	InviteID   string             `json:"invite_id"`
	TemplateID string             `json:"template_id"`
	InviteURL  string             `json:"invite_url"`
	Status     model.InviteStatus `json:"status"`
	ExpiresAt  time.Time          `json:"expires_at"`
	// Created is false when an existing live invite was returned.
	Created bool `json:"created"`
}

type RedeemRequest struct {
	Token string `json:"token" validate:"required"`
}

type RedeemResponse struct {
	AttemptID string    `json:"attempt_id"`
	InviteID  string    `json:"invite_id"`
	Deadline  time.Time `json:"deadline"`
}
