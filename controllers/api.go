package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"panelix-setup/internal/middleware"
	"panelix-setup/internal/models"
	"panelix-setup/services"
)

type APIController struct {
	server *services.Server
}

/**
 * Create new API controller instance
 * @param {*services.Server} server - Read side of the status API
 * @returns {*APIController} New API controller instance
 * @example
 * server := services.NewServer(&config.Config, version)
 * controller := controllers.NewAPIController(server)
 * controller.RegisterRoutes(router)
 */
func NewAPIController(server *services.Server) *APIController {
	return &APIController{
		server: server,
	}
}

/**
 * Register all API routes to Gin engine
 * @param {*gin.Engine} r - Gin router instance
 * @description
 * - Read-only routes (health, state, check, plan) are open
 * - The update route mutates the installation and requires a bearer
 *   token signed with the installation's jwtSecret
 */
func (a *APIController) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", a.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/panelix/api/v1/state", a.State)
	r.GET("/panelix/api/v1/check", a.Check)
	r.GET("/panelix/api/v1/plan", a.Plan)

	authed := r.Group("/panelix/api/v1", middleware.AuthMiddleware(a.server.JWTSecret))
	authed.POST("/update", a.Update)
}

// @Summary 健康检查
// @Description Liveness of the status server plus request counters
// @Tags Health
// @Success 200 {object} models.HealthResponse
// @Router /healthz [get]
func (a *APIController) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:        "ok",
		Version:       a.server.Version(),
		StartTime:     a.server.StartTime(),
		Uptime:        time.Since(a.server.StartTime()).Round(time.Second).String(),
		TotalRequests: middleware.GetTotalRequests(),
		ErrorRequests: middleware.GetErrorRequests(),
	})
}

// @Summary 查询服务器状态
// @Description Status server identity, host platform and installed state
// @Tags State
// @Success 200 {object} models.ServerState
// @Router /panelix/api/v1/state [get]
func (a *APIController) State(c *gin.Context) {
	c.JSON(http.StatusOK, a.server.State())
}

// @Summary 系统体检
// @Description Platform probe, capability scan, service runtime and version check
// @Tags Check
// @Success 200 {object} models.CheckResponse
// @Router /panelix/api/v1/check [get]
func (a *APIController) Check(c *gin.Context) {
	c.JSON(http.StatusOK, a.server.BuildCheck())
}

// @Summary 查询升级计划
// @Description Migration steps an update to the target version would run
// @Tags Update
// @Param target query string true "target version"
// @Success 200 {object} models.PlanResponse
// @Failure 400 {object} map[string]interface{}
// @Router /panelix/api/v1/plan [get]
func (a *APIController) Plan(c *gin.Context) {
	target := c.Query("target")
	if target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target query parameter is required"})
		return
	}
	plan, err := a.server.Engine().DescribePlan(target)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, plan)
}

// @Summary 执行升级
// @Description Run the migration engine to the target version
// @Tags Update
// @Security BearerAuth
// @Param target query string true "target version"
// @Success 200 {object} models.InstalledState
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /panelix/api/v1/update [post]
func (a *APIController) Update(c *gin.Context) {
	target := c.Query("target")
	if target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target query parameter is required"})
		return
	}
	state, err := a.server.Engine().Run(c.Request.Context(), target)
	if err != nil {
		status := http.StatusInternalServerError
		if models.ExitCode(err) == models.ExitBusy {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}
