package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/onca-labs/fiscaliza/internal/adapters"
	"github.com/onca-labs/fiscaliza/internal/cache"
	"github.com/onca-labs/fiscaliza/internal/config"
	"github.com/onca-labs/fiscaliza/internal/errors"
	"github.com/onca-labs/fiscaliza/internal/monitoring"
	"github.com/onca-labs/fiscaliza/internal/profile"
	"github.com/onca-labs/fiscaliza/internal/quiz"
	"github.com/onca-labs/fiscaliza/internal/ratelimit"
	"github.com/onca-labs/fiscaliza/internal/resilience"
	"github.com/onca-labs/fiscaliza/internal/scoring"
	"github.com/onca-labs/fiscaliza/internal/security"
	"github.com/onca-labs/fiscaliza/internal/textutil"
	"github.com/onca-labs/fiscaliza/internal/types"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		os.Exit(1)
	}

	appLogger := monitoring.NewLogger(cfg.LogLevel)
	appMetrics := monitoring.NewMetrics()

	gin.SetMode(cfg.GinMode)

	camara := adapters.NewCamaraAdapterWithTimeout(cfg.CamaraBaseURL, cfg.UpstreamTimeout)
	senado := adapters.NewSenadoAdapterWithTimeout(cfg.SenadoBaseURL, cfg.UpstreamTimeout)

	observeUpstream := func(service, url string, statusCode int, duration time.Duration, success bool) {
		appMetrics.RecordUpstreamRequest(service, success)
		appLogger.UpstreamLogger(service, url, statusCode, duration, success)
		switch service {
		case resilience.ServiceCamara:
			appMetrics.IncrementCamaraCalls()
		case resilience.ServiceSenado:
			appMetrics.IncrementSenadoCalls()
		}
	}
	camara.OnResult(observeUpstream)
	senado.OnResult(observeUpstream)

	profiles := profile.NewService(camara, senado, scoring.DefaultWeights())
	quizStore := quiz.NewStore()

	registerHealthChecks(cfg)
	healthCtx, stopHealthChecks := context.WithCancel(context.Background())
	resilience.StartHealthChecks(healthCtx)

	appCache := cache.NewCache(cfg.CacheTTL)
	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimitPerMin,
		BurstMultiplier:   2,
	})
	edge := security.NewMiddleware(security.Config{
		MaxQueryLength: 200,
		RequestTimeout: cfg.RequestTimeout,
		EnableHSTS:     cfg.EnableHSTS,
	})

	r := gin.New()
	r.Use(monitoring.Middleware(appMetrics, appLogger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())
	r.Use(edge.Headers())
	r.Use(edge.Timeout())
	r.Use(limiter.IPMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(appCache.Middleware("/api", appMetrics))

	r.GET("/health", func(c *gin.Context) {
		services := resilience.AllServiceHealth()
		response := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   version,
			"services":  services,
		}
		for _, service := range services {
			if service.Level == resilience.LevelEmergency {
				response["status"] = "degraded"
				c.JSON(http.StatusServiceUnavailable, response)
				return
			}
		}
		c.JSON(http.StatusOK, response)
	})

	r.GET("/health/services", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"services":         resilience.AllServiceHealth(),
			"circuit_breakers": resilience.BreakerStats(),
			"timestamp":        time.Now().Format(time.RFC3339),
		})
	})

	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, appMetrics.GetStats())
	})

	r.GET("/cache/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"cache":      appCache.Stats(),
			"rate_limit": limiter.Stats(),
		})
	})

	api := r.Group("/api")

	api.GET("/deputados", func(c *gin.Context) {
		members, err := profiles.ListDeputies(c.Request.Context())
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"dados": filterMembers(members, c)})
	})

	api.GET("/senadores", func(c *gin.Context) {
		members, err := profiles.ListSenators(c.Request.Context())
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"dados": filterMembers(members, c)})
	})

	profileLimit := limiter.EndpointMiddleware("perfil", cfg.ProfileLimitPerMin)

	api.GET("/deputados/:id/perfil", profileLimit, func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.Error(errors.NewValidationError("id must be numeric"))
			return
		}
		years := requestedYears(c)
		start := time.Now()
		p, err := profiles.DeputyProfile(c.Request.Context(), id, years)
		if err != nil {
			c.Error(err)
			return
		}
		appLogger.ProfileLogger("camara", id, years, time.Since(start))
		c.JSON(http.StatusOK, p)
	})

	api.GET("/senadores/:id/perfil", profileLimit, func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.Error(errors.NewValidationError("id must be numeric"))
			return
		}
		years := requestedYears(c)
		start := time.Now()
		p, err := profiles.SenatorProfile(c.Request.Context(), id, years)
		if err != nil {
			c.Error(err)
			return
		}
		appLogger.ProfileLogger("senado", id, years, time.Since(start))
		c.JSON(http.StatusOK, p)
	})

	api.GET("/busca", edge.QueryGuard("q"), func(c *gin.Context) {
		q := strings.TrimSpace(c.Query("q"))
		if q == "" {
			c.Error(errors.NewValidationError("q parameter is required"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"dados": profiles.Search(c.Request.Context(), q)})
	})

	api.GET("/analytics", func(c *gin.Context) {
		aggregate, err := profiles.Analytics(c.Request.Context())
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, aggregate)
	})

	registerQuizRoutes(api, quizStore, profiles)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		appLogger.SystemLogger("startup", "listening on port "+cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.SystemLogger("shutdown", "signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stopHealthChecks()
	camara.Close()
	senado.Close()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	appLogger.SystemLogger("shutdown", "server exited")
}

// registerHealthChecks wires a liveness probe per upstream into the
// degradation tracker.
func registerHealthChecks(cfg *config.Config) {
	probe := func(url string) resilience.HealthCheckFunc {
		client := &http.Client{Timeout: 5 * time.Second}
		return func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			resp.Body.Close()
			return nil
		}
	}
	resilience.RegisterService(resilience.ServiceCamara, probe(cfg.CamaraBaseURL+"/referencias/situacoesDeputado"))
	resilience.RegisterService(resilience.ServiceSenado, probe(cfg.SenadoBaseURL+"/senador/lista/atual.json"))
}

// requestedYears parses the repeatable ano query parameter; absent or
// invalid values fall back to the current legislature window.
func requestedYears(c *gin.Context) []int {
	var years []int
	for _, raw := range c.QueryArray("ano") {
		if year, err := strconv.Atoi(raw); err == nil && year > 1988 {
			years = append(years, year)
		}
	}
	if len(years) == 0 {
		return profile.DefaultYears()
	}
	return years
}

// filterMembers applies the optional uf, partido and nome listing
// filters.
func filterMembers(members []types.PoliticianSummary, c *gin.Context) []types.PoliticianSummary {
	uf := strings.ToUpper(strings.TrimSpace(c.Query("uf")))
	party := strings.ToUpper(strings.TrimSpace(c.Query("partido")))
	name := textutil.Normalize(strings.TrimSpace(c.Query("nome")))

	if uf == "" && party == "" && name == "" {
		return members
	}

	out := make([]types.PoliticianSummary, 0, len(members))
	for _, m := range members {
		if uf != "" && !strings.EqualFold(m.State, uf) {
			continue
		}
		if party != "" && !strings.EqualFold(m.Party, party) {
			continue
		}
		if name != "" && !strings.Contains(textutil.Normalize(m.Name), name) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// registerQuizRoutes mounts the political-DNA flow.
func registerQuizRoutes(api *gin.RouterGroup, store *quiz.Store, profiles *profile.Service) {
	dna := api.Group("/dna")

	dna.POST("/start", func(c *gin.Context) {
		id, state, err := store.Create()
		if err != nil {
			c.Error(err)
			return
		}
		questions := quiz.Questions()
		c.JSON(http.StatusOK, gin.H{
			"sessao":   id,
			"pergunta": questions[state.Index],
			"indice":   state.Index,
			"total":    len(questions),
		})
	})

	dna.POST("/:session/answer", func(c *gin.Context) {
		var body struct {
			Resposta quiz.Answer `json:"resposta" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Error(errors.NewValidationError("resposta is required"))
			return
		}

		id := c.Param("session")
		state, err := store.Transition(id, func(s quiz.State) (quiz.State, error) {
			return quiz.Respond(s, body.Resposta)
		})
		if err == quiz.ErrSessionNotFound {
			c.Error(errors.NewNotFoundError("quiz session not found", err))
			return
		}
		if err != nil {
			c.Error(errors.NewValidationError(err.Error()))
			return
		}

		if state.Phase == quiz.PhaseComputing {
			// Roster failures settle to an empty match list rather than
			// failing the session.
			members, err := profiles.ListDeputies(c.Request.Context())
			if err != nil {
				members = nil
			}
			state, err = store.Transition(id, func(s quiz.State) (quiz.State, error) {
				return quiz.Complete(s, members)
			})
			if err != nil {
				c.Error(err)
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"fase":       state.Phase,
				"resultados": state.Outcomes,
			})
			return
		}

		questions := quiz.Questions()
		c.JSON(http.StatusOK, gin.H{
			"fase":     state.Phase,
			"pergunta": questions[state.Index],
			"indice":   state.Index,
			"total":    len(questions),
		})
	})

	dna.GET("/:session/results", func(c *gin.Context) {
		state, err := store.Get(c.Param("session"))
		if err == quiz.ErrSessionNotFound {
			c.Error(errors.NewNotFoundError("quiz session not found", err))
			return
		}
		if err != nil {
			c.Error(err)
			return
		}
		if state.Phase != quiz.PhaseResults {
			c.JSON(http.StatusConflict, gin.H{
				"fase":  state.Phase,
				"error": "quiz ainda não concluído",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"fase":       state.Phase,
			"resultados": state.Outcomes,
		})
	})
}
