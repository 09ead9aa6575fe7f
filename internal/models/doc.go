// Surveyor Tracking Backend - Field Surveyor Presence and Live Location
// Copyright 2026 NeoGeo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/neogeo/surveyor-tracking

// Package models defines the domain types shared across the application:
// surveyors, location samples, live location messages, and the standard
// API response envelope.
package models
