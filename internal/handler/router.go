package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/middleware"
	"github.com/noah-isme/sma-timetable/internal/models"
)

// Routes groups the handlers mounted under the API prefix.
type Routes struct {
	Timetable *TimetableHandler
	Metrics   *MetricsHandler
	Tokens    middleware.TokenValidator
}

// Mount attaches the API. Reads are open; roster changes, solves and every
// schedule mutation require an ADMIN or SCHEDULER token.
func (r Routes) Mount(rg *gin.RouterGroup) {
	write := []gin.HandlerFunc{
		middleware.JWT(r.Tokens),
		middleware.RequireRoles(models.RoleAdmin, models.RoleScheduler),
	}
	guarded := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, write...), h)
	}

	units := rg.Group("/units")
	units.POST("/solve", guarded(r.Timetable.SolveBatch)...)
	units.PUT("/:unitID", guarded(r.Timetable.RegisterUnit)...)
	units.GET("/:unitID", r.Timetable.GetUnit)
	units.POST("/:unitID/solve", guarded(r.Timetable.Solve)...)
	units.GET("/:unitID/draft", r.Timetable.Draft)
	units.POST("/:unitID/draft/commit", guarded(r.Timetable.CommitDraft)...)
	units.GET("/:unitID/schedule", r.Timetable.Current)
	units.POST("/:unitID/schedule", guarded(r.Timetable.Commit)...)
	units.POST("/:unitID/schedule/overrides", guarded(r.Timetable.Override)...)
	units.GET("/:unitID/schedule/history", r.Timetable.History)
	units.GET("/:unitID/schedule/export", r.Timetable.Export)
	units.GET("/:unitID/recommendations", r.Timetable.Recommendations)
	units.POST("/:unitID/validate", r.Timetable.Validate)

	if r.Metrics != nil {
		rg.GET("/metrics/summary", r.Metrics.Snapshot)
	}
}
