package services

import (
	"time"

	"panelix-setup/internal/config"
	"panelix-setup/internal/deps"
	"panelix-setup/internal/logger"
	"panelix-setup/internal/models"
	"panelix-setup/internal/platform"
	"panelix-setup/internal/utils"
)

/**
 * Server aggregates the read side of the status API
 * @description
 * - Bundles the system check, migration planning and service runtime
 *   queries behind one object handed to the controllers
 */
type Server struct {
	cfg       *config.AppConfig
	systemd   *SystemdManager
	engine    *MigrationEngine
	startTime time.Time
	version   string
}

func NewServer(cfg *config.AppConfig, version string) *Server {
	runner := &utils.ExecRunner{}
	return &Server{
		cfg:       cfg,
		systemd:   NewSystemdManager(runner),
		engine:    NewMigrationEngine(),
		startTime: time.Now(),
		version:   version,
	}
}

func (s *Server) StartTime() time.Time     { return s.startTime }
func (s *Server) Version() string          { return s.version }
func (s *Server) Engine() *MigrationEngine { return s.engine }

// JWTSecret reads the installation's current secret for API auth.
func (s *Server) JWTSecret() string {
	return config.ReadSecret(s.cfg.Paths.ConfigFile, config.SecretKeyJWTSecret)
}

/**
 * Run the full system check
 * @returns {*models.CheckResponse} aggregated result, never nil
 * @description
 * - Platform probe, capability scan, service runtime, installed state
 *   and newest published version are each one check
 * - Remote manifest failures degrade to a warning; the check never
 *   fails outright on network trouble
 */
func (s *Server) BuildCheck() *models.CheckResponse {
	resp := &models.CheckResponse{Timestamp: time.Now()}
	runner := &utils.ExecRunner{}

	total, passed := 0, 0

	total++
	info, err := platform.Detect()
	if err != nil {
		logger.Warnf("platform probe failed: %v", err)
		resp.Platform = models.PlatformInfo{OSFamily: models.OSUnknown}
	} else {
		resp.Platform = *info
		passed++
	}

	total++
	resp.Capabilities = deps.Check(deps.DefaultRequirements(), runner)
	if resp.Capabilities.Satisfied() {
		passed++
	}

	total++
	resp.Service = s.systemd.Runtime()
	if resp.Service.Status == "running" {
		passed++
	}

	total++
	state, err := ReadInstalledState(s.cfg.Paths.InstallDir, s.cfg.Paths.DataDir)
	if err == nil && state != nil {
		resp.Installed = state
		passed++
	}

	if info != nil {
		if manifest, err := FetchManifest(info); err == nil {
			resp.LatestVersion = manifest.Newest.Version
		} else {
			logger.Warnf("release manifest unavailable: %v", err)
		}
	}

	resp.TotalChecks = total
	resp.PassedChecks = passed
	resp.FailedChecks = total - passed
	if passed == total {
		resp.OverallStatus = "healthy"
	} else {
		resp.OverallStatus = "warning"
	}
	return resp
}

// State reports the running status server and the installation it manages.
func (s *Server) State() *models.ServerState {
	state := &models.ServerState{
		StartTime: s.startTime,
		Version:   s.version,
	}
	if info, err := platform.Detect(); err == nil {
		state.Platform = *info
	}
	if installed, err := ReadInstalledState(s.cfg.Paths.InstallDir, s.cfg.Paths.DataDir); err == nil && installed != nil {
		state.Installed = installed
	}
	return state
}
