// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

package models

// Surveyor roles. Admins may submit location updates on behalf of other
// surveyors and manage surveyor records.
const (
	RoleSurveyor = "surveyor"
	RoleAdmin    = "admin"
)

// Presence status strings returned by the status map endpoint.
const (
	StatusOnline  = "Online"
	StatusOffline = "Offline"
)

// Surveyor represents a field surveyor account.
//
// PasswordHash is the bcrypt hash of the surveyor's credential and is never
// serialized in API responses.
type Surveyor struct {
	ID           string `json:"id" validate:"required,max=64"`
	Name         string `json:"name" validate:"required,max=128"`
	City         string `json:"city" validate:"max=128"`
	ProjectName  string `json:"projectName" validate:"max=128"`
	Username     string `json:"username" validate:"required,min=3,max=64"`
	PasswordHash string `json:"-"`
	Role         string `json:"role" validate:"omitempty,oneof=surveyor admin"`
}

// SurveyorWithStatus is a Surveyor annotated with its computed presence
// state for list responses.
type SurveyorWithStatus struct {
	Surveyor
	Online bool `json:"online"`
}

// SurveyorFilter selects surveyors by exact city and project name match.
// Both fields must match when both are set.
type SurveyorFilter struct {
	City        string `json:"city"`
	ProjectName string `json:"projectName"`
}

// CreateSurveyorRequest is the payload for creating or updating a surveyor.
// Password is the plaintext credential; it is hashed before storage and
// never persisted as-is.
type CreateSurveyorRequest struct {
	ID          string `json:"id" validate:"required,max=64"`
	Name        string `json:"name" validate:"required,max=128"`
	City        string `json:"city" validate:"max=128"`
	ProjectName string `json:"projectName" validate:"max=128"`
	Username    string `json:"username" validate:"required,min=3,max=64"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	Role        string `json:"role" validate:"omitempty,oneof=surveyor admin"`
}

// LoginRequest is the payload for the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the session token and the authenticated surveyor.
type LoginResponse struct {
	Token    string   `json:"token"`
	Surveyor Surveyor `json:"surveyor"`
}
