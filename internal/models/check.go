package models

import (
	"time"
)

// ServiceStatus is the supervisor's view of the panelix unit.
type ServiceStatus struct {
	Unit     string `json:"unit"`
	Status   string `json:"status" example:"running"`
	State    string `json:"state,omitempty"`
	SubState string `json:"subState,omitempty"`
	PID      int    `json:"pid,omitempty"`
}

/**
 * Aggregated result of a system check
 * @description
 * - Combines platform, capability, service and version information
 * - OverallStatus is "healthy" when every check passed, otherwise "warning"
 */
type CheckResponse struct {
	Timestamp     time.Time        `json:"timestamp"`
	Platform      PlatformInfo     `json:"platform"`
	Capabilities  DeficiencyReport `json:"capabilities"`
	Service       *ServiceStatus   `json:"service,omitempty"`
	Installed     *InstalledState  `json:"installed,omitempty"`
	LatestVersion string           `json:"latestVersion,omitempty"`
	OverallStatus string           `json:"overallStatus" example:"healthy"`
	TotalChecks   int              `json:"totalChecks"`
	PassedChecks  int              `json:"passedChecks"`
	FailedChecks  int              `json:"failedChecks"`
}

// HealthResponse answers the readiness probe of the status server.
type HealthResponse struct {
	Status        string    `json:"status" example:"ok"`
	Version       string    `json:"version"`
	StartTime     time.Time `json:"startTime"`
	Uptime        string    `json:"uptime"`
	TotalRequests int64     `json:"totalRequests"`
	ErrorRequests int64     `json:"errorRequests"`
}

// PlanStep is one entry of a computed migration plan.
type PlanStep struct {
	Version string `json:"version"`
	Name    string `json:"name"`
}

// PlanResponse describes what an update would do, without mutating anything.
type PlanResponse struct {
	From  string     `json:"from"`
	To    string     `json:"to"`
	NoOp  bool       `json:"noOp"`
	Steps []PlanStep `json:"steps"`
}
